package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is the running accumulator threaded through the graph engine.
//
// Each pipeline stage owns exactly one of the pointer fields below and
// writes to it at most once per run: INTAKE writes Intake, UNDERSTAND
// writes Understand, and so on. A stage's delta carries only its own
// group (plus the identity fields); the Reduce function merges a delta
// into the accumulated state by assigning group pointers, never by
// mutating fields inside an already-set group. Because the graph
// topology runs each stage node at most once per execution, this is
// sufficient to uphold the spec's append-only invariant without extra
// bookkeeping.
type State struct {
	WorkflowID   string
	InvoiceID    string
	CurrentStage Stage
	Status       WorkflowStatus
	RawPayload   map[string]interface{}

	// Pending carries the human decision deposited by the Review Service
	// before Resume is invoked. Unlike the stage-output groups below, it
	// is an input rather than an output: it is written once by
	// ResolveCheckpoint (outside the graph) and read once by the
	// HITL_DECISION stage, so it is replaced rather than append-only.
	Pending *PendingDecision

	Intake         *IntakeOutput
	Understand     *UnderstandOutput
	Prepare        *PrepareOutput
	Retrieve       *RetrieveOutput
	Match          *MatchOutput
	CheckpointHITL *CheckpointOutput
	HITLDecision   *HITLDecisionOutput
	Reconcile      *ReconcileOutput
	Approve        *ApproveOutput
	Posting        *PostingOutput
	Notify         *NotifyOutput
	Complete       *CompleteOutput
}

// PendingDecision is the human review outcome deposited into state before
// a paused workflow is resumed.
type PendingDecision struct {
	Decision      HumanDecision
	ReviewerID    string
	ReviewerNotes string
}

// IntakeOutput holds the outputs of the INTAKE stage.
type IntakeOutput struct {
	RawID     string
	IngestTS  time.Time
	Validated bool
}

// UnderstandOutput holds the outputs of the UNDERSTAND stage.
type UnderstandOutput struct {
	ParsedInvoice   map[string]interface{}
	OCRProviderUsed string
	InvoiceText     string
	ParsedLineItems []LineItem
	DetectedPOs     []string
	ParsedDates     map[string]string
}

// PrepareOutput holds the outputs of the PREPARE stage.
type PrepareOutput struct {
	VendorProfile         map[string]interface{}
	NormalizedInvoice     map[string]interface{}
	Flags                 map[string]interface{}
	EnrichmentProviderUsed string
	NormalizedName        string
	RiskScore             float64
	MissingInfo           []string
}

// RetrieveOutput holds the outputs of the RETRIEVE stage.
type RetrieveOutput struct {
	MatchedPOs       []PurchaseOrder
	MatchedGRNs      []map[string]interface{}
	History          []map[string]interface{}
	ERPConnectorUsed string
}

// PurchaseOrder is a purchase order returned by the ERP connector.
type PurchaseOrder struct {
	POID        string
	Vendor      string
	Amount      decimal.Decimal
	Currency    string
	Status      string
	CreatedDate string
}

// MatchOutput holds the outputs of the MATCH_TWO_WAY stage.
type MatchOutput struct {
	Score         float64
	Result        MatchResult
	TolerancePct  float64
	Evidence      map[string]interface{}
}

// CheckpointOutput holds the outputs of the CHECKPOINT_HITL stage.
type CheckpointOutput struct {
	CheckpointID string
	ReviewURL    string
	PausedReason string
}

// HITLDecisionOutput holds the outputs of the HITL_DECISION stage.
type HITLDecisionOutput struct {
	HumanDecision HumanDecision
	ReviewerID    string
	ReviewerNotes string
	ResumeToken   string
	NextStage     Stage
}

// ReconcileOutput holds the outputs of the RECONCILE stage.
type ReconcileOutput struct {
	AccountingEntries     []JournalEntry
	ReconciliationReport  map[string]interface{}
}

// JournalEntry is a single debit or credit ledger line produced by RECONCILE.
type JournalEntry struct {
	EntryID string
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// ApproveOutput holds the outputs of the APPROVE stage.
type ApproveOutput struct {
	ApprovalStatus ApprovalStatus
	ApproverID     string
}

// PostingOutput holds the outputs of the POSTING stage.
type PostingOutput struct {
	Posted              bool
	ERPTxnID            string
	ScheduledPaymentID  string
}

// NotifyOutput holds the outputs of the NOTIFY stage.
type NotifyOutput struct {
	NotifyStatus       string
	NotifiedParties    []string
	EmailProviderUsed  string
}

// CompleteOutput holds the outputs of the terminal COMPLETE stage.
type CompleteOutput struct {
	FinalPayload map[string]interface{}
	AuditLog     []map[string]interface{}
	Status       WorkflowStatus
}

// Reduce merges a stage's delta into the accumulated state. Identity
// fields (WorkflowID, InvoiceID, CurrentStage, Status) are replaced
// whenever the delta sets them; each stage-output group is assigned
// only when the delta provides it, and only if prev does not already
// hold one — see the State doc comment for why this is safe.
func Reduce(prev, delta State) State {
	if delta.WorkflowID != "" {
		prev.WorkflowID = delta.WorkflowID
	}
	if delta.InvoiceID != "" {
		prev.InvoiceID = delta.InvoiceID
	}
	if delta.CurrentStage != "" {
		prev.CurrentStage = delta.CurrentStage
	}
	if delta.Status != "" {
		prev.Status = delta.Status
	}
	if delta.RawPayload != nil {
		prev.RawPayload = delta.RawPayload
	}
	if delta.Pending != nil {
		prev.Pending = delta.Pending
	}

	assignGroup(&prev.Intake, delta.Intake)
	assignGroup(&prev.Understand, delta.Understand)
	assignGroup(&prev.Prepare, delta.Prepare)
	assignGroup(&prev.Retrieve, delta.Retrieve)
	assignGroup(&prev.Match, delta.Match)
	assignGroup(&prev.CheckpointHITL, delta.CheckpointHITL)
	assignGroup(&prev.HITLDecision, delta.HITLDecision)
	assignGroup(&prev.Reconcile, delta.Reconcile)
	assignGroup(&prev.Approve, delta.Approve)
	assignGroup(&prev.Posting, delta.Posting)
	assignGroup(&prev.Notify, delta.Notify)
	assignGroup(&prev.Complete, delta.Complete)

	return prev
}

// assignGroup sets *prev to delta when prev is nil and delta is provided.
// A non-nil prev receiving a non-nil delta means some stage rewrote
// output group it does not own; the graph topology (each stage node runs
// at most once per execution) prevents this from firing in the shipped
// pipeline, so a violation here indicates a bug in the stage wiring.
func assignGroup[T any](prev **T, delta *T) {
	if delta == nil {
		return
	}
	if *prev != nil {
		panic("domain: stage output group already set; append-only invariant violated")
	}
	*prev = delta
}
