// Package reviewstore implements the Checkpoint & Review Store (C5): it
// tracks Workflow aggregates and the human-review queue, and is the only
// component permitted to deposit a resolved human decision into a paused
// workflow's checkpointed state.
package reviewstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lumenpay/invoiceflow/domain"
	gstore "github.com/lumenpay/invoiceflow/graph/store"
)

var errNoCheckpointOutput = errors.New("reviewstore: state has no CheckpointHITL output")

// Store layers workflow and human-review bookkeeping on top of the Graph
// Runtime's own state store (graph). Modeled on store.MemStore: an
// in-memory, mutex-guarded map keyed by the natural id of each record.
type Store struct {
	mu        sync.RWMutex
	workflows map[string]*domain.Workflow
	reviews   map[string]*domain.Checkpoint // keyed by CheckpointID
	audit     []domain.AuditLog
	nextAudit int64
	graph     gstore.Store[domain.State]
	log       *zap.Logger
}

// New creates a review store backed by the given Graph Runtime state store.
func New(graphStore gstore.Store[domain.State], log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		workflows: make(map[string]*domain.Workflow),
		reviews:   make(map[string]*domain.Checkpoint),
		graph:     graphStore,
		log:       log,
	}
}

// appendAudit records an append-only audit trail entry. Callers must hold
// s.mu for writing.
func (s *Store) appendAudit(workflowID, eventType string, stage domain.Stage, message string, actor domain.ActorType, actorID string) {
	s.nextAudit++
	s.audit = append(s.audit, domain.AuditLog{
		ID:         s.nextAudit,
		WorkflowID: workflowID,
		EventType:  eventType,
		StageID:    stage,
		Message:    message,
		ActorType:  actor,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	})
}

// AuditTrail returns a copy of the audit log entries for one workflow, in
// the order they were recorded.
func (s *Store) AuditTrail(workflowID string) []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AuditLog
	for _, e := range s.audit {
		if e.WorkflowID == workflowID {
			out = append(out, e)
		}
	}
	return out
}

// CreateWorkflow records a newly started workflow.
func (s *Store) CreateWorkflow(ctx context.Context, wf *domain.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.WorkflowID] = wf
	s.appendAudit(wf.WorkflowID, domain.EventWorkflowStarted, domain.StageIntake, "workflow started", domain.ActorSystem, "")
	return nil
}

// GetWorkflow returns the current workflow record.
func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return wf, nil
}

// UpdateWorkflowState syncs a workflow's denormalized fields from the
// latest state produced by a Graph Runtime step.
func (s *Store) UpdateWorkflowState(ctx context.Context, workflowID string, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		return domain.ErrWorkflowNotFound
	}
	wf.StateData = state
	wf.Status = state.Status
	wf.CurrentStage = state.CurrentStage
	if state.Match != nil {
		score := state.Match.Score
		result := state.Match.Result
		wf.MatchScore = &score
		wf.MatchResult = &result
	}
	if state.Status == domain.StatusCompleted || state.Status == domain.StatusManualHandoff || state.Status == domain.StatusFailed {
		now := time.Now().UTC()
		wf.CompletedAt = &now
	}
	return nil
}

// MarkFailed records a stage failure on the workflow.
func (s *Store) MarkFailed(ctx context.Context, workflowID string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		return domain.ErrWorkflowNotFound
	}
	wf.Status = domain.StatusFailed
	wf.ErrorMessage = errMsg
	now := time.Now().UTC()
	wf.CompletedAt = &now
	return nil
}

// Cancel transitions a workflow to FAILED if it is still in a cancelable
// state (PENDING, RUNNING, or PAUSED); otherwise it returns ErrCancelRejected.
func (s *Store) Cancel(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[workflowID]
	if !ok {
		return domain.ErrWorkflowNotFound
	}
	switch wf.Status {
	case domain.StatusPending, domain.StatusRunning, domain.StatusPaused:
	default:
		return domain.ErrCancelRejected
	}
	wf.Status = domain.StatusFailed
	wf.ErrorMessage = "cancelled"
	now := time.Now().UTC()
	wf.CompletedAt = &now
	s.appendAudit(workflowID, domain.EventWorkflowCancelled, wf.CurrentStage, "cancelled by caller", domain.ActorUser, "")
	return nil
}

// EnqueueReview persists the checkpoint produced when a workflow pauses at
// CHECKPOINT_HITL and derives the human-review queue entry from it.
func (s *Store) EnqueueReview(ctx context.Context, state domain.State, expiry time.Duration) (*domain.HumanReview, error) {
	if state.CheckpointHITL == nil {
		return nil, errNoCheckpointOutput
	}

	cp := &domain.Checkpoint{
		CheckpointID: state.CheckpointHITL.CheckpointID,
		WorkflowID:   state.WorkflowID,
		StageID:      domain.StageCheckpointHITL,
		StateBlob:    state,
		PausedReason: state.CheckpointHITL.PausedReason,
		ReviewURL:    state.CheckpointHITL.ReviewURL,
	}

	s.mu.Lock()
	s.reviews[cp.CheckpointID] = cp
	s.appendAudit(cp.WorkflowID, domain.EventCheckpointCreated, domain.StageCheckpointHITL, cp.PausedReason, domain.ActorSystem, "")
	s.mu.Unlock()

	return s.toHumanReview(cp, expiry), nil
}

func (s *Store) toHumanReview(cp *domain.Checkpoint, expiry time.Duration) *domain.HumanReview {
	state := cp.StateBlob
	amount := floatField(state.RawPayload, "amount")
	currency, _ := state.RawPayload["currency"].(string)
	vendor, _ := state.RawPayload["vendor_name"].(string)

	var score *float64
	if state.Match != nil {
		v := state.Match.Score
		score = &v
	}

	now := time.Now().UTC()
	expires := now.Add(expiry)

	status := cp.Status
	if status == "" {
		status = domain.ReviewPending
	}

	return &domain.HumanReview{
		CheckpointID:  cp.CheckpointID,
		InvoiceID:     state.InvoiceID,
		VendorName:    vendor,
		Amount:        formatAmount(amount),
		Currency:      currency,
		MatchScore:    score,
		ReasonForHold: cp.PausedReason,
		Status:        status,
		Priority:      1,
		ReviewURL:     cp.ReviewURL,
		CreatedAt:     now,
		ExpiresAt:     &expires,
	}
}

// ListPendingReviews returns every checkpoint awaiting a human decision.
func (s *Store) ListPendingReviews(ctx context.Context, expiry time.Duration) []*domain.HumanReview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.HumanReview
	for _, cp := range s.reviews {
		if cp.IsResolved {
			continue
		}
		out = append(out, s.toHumanReview(cp, expiry))
	}
	return out
}

// ResolveCheckpoint atomically marks a checkpoint resolved and deposits the
// reviewer's decision into the checkpointed state so the Graph Runtime can
// resume HITL_DECISION with state.Pending populated. Returns
// ErrCheckpointNotFound or ErrCheckpointAlreadyResolved.
func (s *Store) ResolveCheckpoint(ctx context.Context, checkpointID string, decision domain.HumanDecision, reviewerID, notes string) (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.reviews[checkpointID]
	if !ok {
		return domain.State{}, domain.ErrCheckpointNotFound
	}
	if cp.IsResolved {
		return domain.State{}, domain.ErrCheckpointAlreadyResolved
	}

	graphState, step, err := s.graph.LoadCheckpoint(ctx, checkpointID)
	if err != nil {
		return domain.State{}, domain.ErrCheckpointNotFound
	}

	graphState.Pending = &domain.PendingDecision{
		Decision:      decision,
		ReviewerID:    reviewerID,
		ReviewerNotes: notes,
	}

	if err := s.graph.SaveCheckpoint(ctx, checkpointID, graphState, step); err != nil {
		return domain.State{}, err
	}

	now := time.Now().UTC()
	cp.IsResolved = true
	cp.ResolvedAt = &now
	cp.Resolution = &decision
	cp.ResolverID = reviewerID
	cp.ResolverNotes = notes

	s.appendAudit(cp.WorkflowID, domain.EventHumanDecision, domain.StageHITLDecision, string(decision), domain.ActorHuman, reviewerID)

	return graphState, nil
}

// expiredMessage is the ErrorMessage a workflow receives when its checkpoint
// ages out of the review window; it names the window in whole hours, e.g.
// "Review expired after 72 hours" for a 72h expiry.
func expiredMessage(expiry time.Duration) string {
	return fmt.Sprintf("Review expired after %d hours", int(expiry.Hours()))
}

// ExpireStale marks every unresolved review older than its expiry window as
// EXPIRED: the checkpoint is resolved with an EXPIRED status, the owning
// workflow transitions to FAILED with expiredMessage, and both changes are
// recorded in the audit trail. Returns the affected checkpoint ids.
func (s *Store) ExpireStale(ctx context.Context, expiry time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-expiry)
	message := expiredMessage(expiry)
	var expired []string
	for id, cp := range s.reviews {
		if cp.IsResolved {
			continue
		}
		if cp.StateBlob.CheckpointHITL == nil {
			continue
		}
		wf, ok := s.workflows[cp.WorkflowID]
		if !ok || !wf.StartedAt.Before(cutoff) {
			continue
		}

		now := time.Now().UTC()
		cp.IsResolved = true
		cp.Status = domain.ReviewExpired
		cp.ResolvedAt = &now

		wf.Status = domain.StatusFailed
		wf.ErrorMessage = message
		wf.CompletedAt = &now

		s.appendAudit(cp.WorkflowID, domain.EventReviewExpired, cp.StageID, message, domain.ActorSystem, "")

		expired = append(expired, id)
	}
	return expired
}

func floatField(m map[string]interface{}, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func formatAmount(f float64) string {
	return decimal.NewFromFloat(f).String()
}
