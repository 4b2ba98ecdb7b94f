package domain

import "time"

// Workflow is the central aggregate tracking one invoice's journey through
// the pipeline.
type Workflow struct {
	WorkflowID   string
	Invoice      Invoice
	Status       WorkflowStatus
	CurrentStage Stage
	StateData    State
	MatchScore   *float64
	MatchResult  *MatchResult
	ErrorMessage string
	RetryCount   int
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// NewWorkflow creates a PENDING workflow for the given invoice.
func NewWorkflow(invoice Invoice) *Workflow {
	id := NewWorkflowID(invoice.InvoiceID)
	return &Workflow{
		WorkflowID:   id,
		Invoice:      invoice,
		Status:       StatusPending,
		CurrentStage: StageIntake,
		StateData: State{
			WorkflowID: id,
			InvoiceID:  invoice.InvoiceID,
			Status:     StatusPending,
		},
		StartedAt: time.Now().UTC(),
	}
}
