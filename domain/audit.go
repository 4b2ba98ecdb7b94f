package domain

import "time"

// Audit event types emitted at minimum by the runtime and review store.
const (
	EventWorkflowStarted   = "workflow_started"
	EventStageStart        = "stage_start"
	EventStageComplete     = "stage_complete"
	EventStageError        = "stage_error"
	EventBigtoolSelection  = "bigtool_selection"
	EventMCPCall           = "mcp_call"
	EventCheckpointCreated = "checkpoint_created"
	EventHumanDecision     = "human_decision"
	EventWorkflowCancelled = "workflow_cancelled"
	EventReviewExpired     = "review_expired"
)

// AuditLog is a single append-only audit trail entry.
type AuditLog struct {
	ID         int64
	WorkflowID string
	EventType  string
	StageID    Stage
	Message    string
	Details    map[string]interface{}
	ActorType  ActorType
	ActorID    string
	CreatedAt  time.Time
}
