package stage

import (
	"context"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// HITLDecision implements the HITL_DECISION stage. It only ever runs on a
// resumed execution: state.Pending must have been deposited by
// ResolveCheckpoint before the runtime calls ResumeFromCheckpoint.
type HITLDecision struct{ *Deps }

func (s *HITLDecision) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	if state.Pending == nil {
		return graph.NodeResult[domain.State]{
			Err: &domain.StageError{Stage: domain.StageHITLDecision, Err: errMissingDecision},
		}
	}

	checkpointID := ""
	if state.CheckpointHITL != nil {
		checkpointID = state.CheckpointHITL.CheckpointID
	}

	s.Router.Call("human_review_action", map[string]interface{}{
		"checkpoint_id": checkpointID,
		"decision":      string(state.Pending.Decision),
		"reviewer_id":   state.Pending.ReviewerID,
	})

	nextStage := domain.StageReconcile
	status := domain.StatusRunning
	route := graph.Goto(string(domain.StageReconcile))
	if state.Pending.Decision == domain.DecisionReject {
		nextStage = domain.StageComplete
		status = domain.StatusManualHandoff
		route = graph.Goto(string(domain.StageComplete))
	}

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageHITLDecision,
			Status:       status,
			HITLDecision: &domain.HITLDecisionOutput{
				HumanDecision: state.Pending.Decision,
				ReviewerID:    state.Pending.ReviewerID,
				ReviewerNotes: state.Pending.ReviewerNotes,
				NextStage:     nextStage,
			},
		},
		Route: route,
	}
}
