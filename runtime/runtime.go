// Package runtime implements the Graph Runtime (C4): it wires the twelve
// stage functions into a graph.Engine, owns the two conditional branch
// points, and exposes Start/Resume/Cancel as the single entry point the
// CLI (and any other driver) uses to run a workflow.
package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumenpay/invoiceflow/ability"
	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
	"github.com/lumenpay/invoiceflow/graph/emit"
	"github.com/lumenpay/invoiceflow/graph/model"
	gstore "github.com/lumenpay/invoiceflow/graph/store"
	"github.com/lumenpay/invoiceflow/reviewstore"
	"github.com/lumenpay/invoiceflow/stage"
	"github.com/lumenpay/invoiceflow/toolkit"
)

// Runtime owns the workflow engine, the review queue, and the collaborators
// every stage needs.
type Runtime struct {
	engine   *graph.Engine[domain.State]
	store    gstore.Store[domain.State]
	reviews  *reviewstore.Store
	settings domain.Settings
	log      *zap.Logger
}

// New builds the twelve-node workflow graph and its two conditional edges,
// wiring a fresh Ability Router and Tool Registry/Selector to every stage.
func New(settings domain.Settings, st gstore.Store[domain.State], emitter emit.Emitter, llm model.ChatModel, log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}

	router := ability.NewRouter()
	registry := toolkit.NewDefaultRegistry(log)
	selector := toolkit.NewSelector(registry, llm, log)

	deps := &stage.Deps{Router: router, Selector: selector, Settings: settings, Log: log}

	engine := graph.New[domain.State](domain.Reduce, st, emitter, graph.Options{MaxSteps: 100})

	mustAdd(engine, string(domain.StageIntake), &stage.Intake{Deps: deps})
	mustAdd(engine, string(domain.StageUnderstand), &stage.Understand{Deps: deps})
	mustAdd(engine, string(domain.StagePrepare), &stage.Prepare{Deps: deps})
	mustAdd(engine, string(domain.StageRetrieve), &stage.Retrieve{Deps: deps})
	mustAdd(engine, string(domain.StageMatchTwoWay), &stage.Match{Deps: deps})
	mustAdd(engine, string(domain.StageCheckpointHITL), &stage.CheckpointHITL{Deps: deps})
	mustAdd(engine, string(domain.StageHITLDecision), &stage.HITLDecision{Deps: deps})
	mustAdd(engine, string(domain.StageReconcile), &stage.Reconcile{Deps: deps})
	mustAdd(engine, string(domain.StageApprove), &stage.Approve{Deps: deps})
	mustAdd(engine, string(domain.StagePosting), &stage.Posting{Deps: deps})
	mustAdd(engine, string(domain.StageNotify), &stage.Notify{Deps: deps})
	mustAdd(engine, string(domain.StageComplete), &stage.Complete{Deps: deps})

	_ = engine.StartAt(string(domain.StageIntake))

	_ = engine.Connect(string(domain.StageIntake), string(domain.StageUnderstand), nil)
	_ = engine.Connect(string(domain.StageUnderstand), string(domain.StagePrepare), nil)
	_ = engine.Connect(string(domain.StagePrepare), string(domain.StageRetrieve), nil)
	_ = engine.Connect(string(domain.StageRetrieve), string(domain.StageMatchTwoWay), nil)

	// MATCH_TWO_WAY branches on the match result: a failed match routes to
	// CHECKPOINT_HITL for a human decision, a successful one skips straight
	// to RECONCILE.
	_ = engine.Connect(string(domain.StageMatchTwoWay), string(domain.StageCheckpointHITL), func(s domain.State) bool {
		return s.Match != nil && s.Match.Result == domain.MatchFailed
	})
	_ = engine.Connect(string(domain.StageMatchTwoWay), string(domain.StageReconcile), func(s domain.State) bool {
		return s.Match != nil && s.Match.Result == domain.MatchMatched
	})

	// HITL_DECISION branches on the reviewer's decision, recorded by
	// HITLDecisionOutput.NextStage.
	_ = engine.Connect(string(domain.StageHITLDecision), string(domain.StageReconcile), func(s domain.State) bool {
		return s.HITLDecision != nil && s.HITLDecision.NextStage == domain.StageReconcile
	})
	_ = engine.Connect(string(domain.StageHITLDecision), string(domain.StageComplete), func(s domain.State) bool {
		return s.HITLDecision != nil && s.HITLDecision.NextStage == domain.StageComplete
	})

	_ = engine.Connect(string(domain.StageReconcile), string(domain.StageApprove), nil)
	_ = engine.Connect(string(domain.StageApprove), string(domain.StagePosting), nil)
	_ = engine.Connect(string(domain.StagePosting), string(domain.StageNotify), nil)
	_ = engine.Connect(string(domain.StageNotify), string(domain.StageComplete), nil)

	return &Runtime{
		engine:   engine,
		store:    st,
		reviews:  reviewstore.New(st, log),
		settings: settings,
		log:      log,
	}
}

func mustAdd(engine *graph.Engine[domain.State], id string, node graph.Node[domain.State]) {
	if err := engine.Add(id, node); err != nil {
		panic(fmt.Sprintf("runtime: failed to register node %s: %v", id, err))
	}
}

// Start runs a new workflow from INTAKE through completion or a pause at
// CHECKPOINT_HITL. The returned error is nil even when the workflow pauses:
// callers distinguish a pause from completion via Workflow.Status.
func (r *Runtime) Start(ctx context.Context, invoice domain.Invoice) (*domain.Workflow, error) {
	if err := invoice.Validate(); err != nil {
		return nil, fmt.Errorf("runtime: invalid invoice: %w", err)
	}

	wf := domain.NewWorkflow(invoice)
	if err := r.reviews.CreateWorkflow(ctx, wf); err != nil {
		return nil, err
	}

	initial := domain.State{
		WorkflowID:   wf.WorkflowID,
		InvoiceID:    invoice.InvoiceID,
		CurrentStage: domain.StageIntake,
		Status:       domain.StatusRunning,
		RawPayload:   invoice.ToParams(),
	}

	final, err := r.engine.Run(ctx, wf.WorkflowID, initial)
	if err != nil {
		_ = r.reviews.MarkFailed(ctx, wf.WorkflowID, err.Error())
		return nil, err
	}

	return r.settle(ctx, wf, final)
}

// settle syncs the workflow record with the engine's final state and, if
// the workflow paused at CHECKPOINT_HITL, enqueues the human review.
func (r *Runtime) settle(ctx context.Context, wf *domain.Workflow, final domain.State) (*domain.Workflow, error) {
	if err := r.reviews.UpdateWorkflowState(ctx, wf.WorkflowID, final); err != nil {
		return nil, err
	}

	if final.Status == domain.StatusPaused && final.CheckpointHITL != nil {
		if err := r.engine.SaveCheckpoint(ctx, wf.WorkflowID, final.CheckpointHITL.CheckpointID); err != nil {
			return nil, err
		}
		if _, err := r.reviews.EnqueueReview(ctx, final, r.settings.ReviewExpiryHours); err != nil {
			return nil, err
		}
	}

	return r.reviews.GetWorkflow(ctx, wf.WorkflowID)
}

// Resume applies a reviewer's decision to a paused workflow and continues
// execution from HITL_DECISION through completion.
func (r *Runtime) Resume(ctx context.Context, checkpointID string, decision domain.HumanDecision, reviewerID, notes string) (*domain.Workflow, error) {
	resolvedState, err := r.reviews.ResolveCheckpoint(ctx, checkpointID, decision, reviewerID, notes)
	if err != nil {
		return nil, err
	}

	wf, err := r.reviews.GetWorkflow(ctx, resolvedState.WorkflowID)
	if err != nil {
		return nil, err
	}

	resumeRunID := resolvedState.WorkflowID + "_resume_" + checkpointID
	final, err := r.engine.ResumeFromCheckpoint(ctx, checkpointID, resumeRunID, string(domain.StageHITLDecision))
	if err != nil {
		_ = r.reviews.MarkFailed(ctx, wf.WorkflowID, err.Error())
		return nil, err
	}

	return r.settle(ctx, wf, final)
}

// Cancel marks a PENDING, RUNNING or PAUSED workflow FAILED; a workflow in
// any other status is rejected with domain.ErrCancelRejected. It does not
// interrupt an engine run that is already in progress, and it leaves a
// pending review checkpoint unresolved.
func (r *Runtime) Cancel(ctx context.Context, workflowID string) error {
	return r.reviews.Cancel(ctx, workflowID)
}

// GetWorkflow returns the current workflow record.
func (r *Runtime) GetWorkflow(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	return r.reviews.GetWorkflow(ctx, workflowID)
}

// ListPendingReviews returns every checkpoint awaiting a human decision.
func (r *Runtime) ListPendingReviews(ctx context.Context) []*domain.HumanReview {
	return r.reviews.ListPendingReviews(ctx, r.settings.ReviewExpiryHours)
}

// ExpireStale marks reviews older than the configured expiry window as
// EXPIRED and returns the affected checkpoint ids.
func (r *Runtime) ExpireStale(ctx context.Context) []string {
	return r.reviews.ExpireStale(ctx, r.settings.ReviewExpiryHours)
}

// AuditTrail returns the append-only audit log recorded for one workflow,
// in the order each event occurred.
func (r *Runtime) AuditTrail(ctx context.Context, workflowID string) []domain.AuditLog {
	return r.reviews.AuditTrail(workflowID)
}
