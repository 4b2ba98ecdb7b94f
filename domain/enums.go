package domain

// Stage identifies one of the twelve pipeline stages.
type Stage string

const (
	StageIntake         Stage = "INTAKE"
	StageUnderstand      Stage = "UNDERSTAND"
	StagePrepare         Stage = "PREPARE"
	StageRetrieve        Stage = "RETRIEVE"
	StageMatchTwoWay     Stage = "MATCH_TWO_WAY"
	StageCheckpointHITL  Stage = "CHECKPOINT_HITL"
	StageHITLDecision    Stage = "HITL_DECISION"
	StageReconcile       Stage = "RECONCILE"
	StageApprove         Stage = "APPROVE"
	StagePosting         Stage = "POSTING"
	StageNotify          Stage = "NOTIFY"
	StageComplete        Stage = "COMPLETE"
)

// WorkflowStatus is the lifecycle status of a Workflow.
type WorkflowStatus string

const (
	StatusPending       WorkflowStatus = "PENDING"
	StatusRunning       WorkflowStatus = "RUNNING"
	StatusPaused        WorkflowStatus = "PAUSED"
	StatusCompleted     WorkflowStatus = "COMPLETED"
	StatusFailed        WorkflowStatus = "FAILED"
	StatusManualHandoff WorkflowStatus = "MANUAL_HANDOFF"
)

// MatchResult is the outcome of the MATCH_TWO_WAY stage.
type MatchResult string

const (
	MatchMatched MatchResult = "MATCHED"
	MatchFailed  MatchResult = "FAILED"
)

// HumanDecision is the outcome recorded by the Review Service at HITL_DECISION.
type HumanDecision string

const (
	DecisionAccept HumanDecision = "ACCEPT"
	DecisionReject HumanDecision = "REJECT"
)

// ApprovalStatus is the outcome of the APPROVE stage.
type ApprovalStatus string

const (
	ApprovalAutoApproved ApprovalStatus = "AUTO_APPROVED"
	ApprovalEscalated    ApprovalStatus = "ESCALATED"
	ApprovalApproved     ApprovalStatus = "APPROVED"
	ApprovalRejected     ApprovalStatus = "REJECTED"
)

// ReviewStatus is the lifecycle status of a HumanReview queue entry.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewReviewed ReviewStatus = "REVIEWED"
	ReviewExpired  ReviewStatus = "EXPIRED"
)

// ActorType identifies who produced an AuditLog entry.
type ActorType string

const (
	ActorSystem ActorType = "system"
	ActorHuman  ActorType = "human"
	ActorUser   ActorType = "user"
)

// Capability is a family of interchangeable tools.
type Capability string

const (
	CapabilityOCR           Capability = "ocr"
	CapabilityEnrichment    Capability = "enrichment"
	CapabilityERPConnector  Capability = "erp_connector"
	CapabilityDB            Capability = "db"
	CapabilityEmail         Capability = "email"
	CapabilityStorage       Capability = "storage"
)

// Backend identifies which Ability Router backend handles a given ability.
type Backend string

const (
	BackendInternal Backend = "internal"
	BackendExternal Backend = "external"
)
