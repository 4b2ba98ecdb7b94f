package domain

import "time"

// Checkpoint is a durable snapshot of a workflow's state at the instant it
// suspended for human review.
type Checkpoint struct {
	CheckpointID  string
	WorkflowID    string
	StageID       Stage
	StateBlob     State
	PausedReason  string
	ReviewURL     string
	IsResolved    bool
	Status        ReviewStatus
	ResolvedAt    *time.Time
	Resolution    *HumanDecision
	ResolverID    string
	ResolverNotes string
}

// HumanReview is a denormalized queue entry suitable for listing pending
// reviews without loading the full Checkpoint/State blob.
type HumanReview struct {
	CheckpointID  string
	InvoiceID     string
	VendorName    string
	Amount        string
	Currency      string
	MatchScore    *float64
	ReasonForHold string
	Status        ReviewStatus
	Priority      int
	AssignedTo    string
	ReviewURL     string
	CreatedAt     time.Time
	ExpiresAt     *time.Time
}
