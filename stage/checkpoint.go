package stage

import (
	"context"
	"fmt"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// CheckpointHITL implements the CHECKPOINT_HITL stage. It computes the
// checkpoint identity and a human-readable hold reason, then terminates
// the current Run() call (Route: Stop) so the Graph Runtime can durably
// persist the checkpoint and enqueue the review outside the node itself.
// HITL_DECISION is never invoked in the same Run call; it only executes
// when the runtime later resumes from the saved checkpoint.
type CheckpointHITL struct{ *Deps }

func (s *CheckpointHITL) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	checkpointID := domain.NewCheckpointID(state.WorkflowID)
	reviewURL := fmt.Sprintf("%s/review/%s", s.Settings.FrontendBaseURL, checkpointID)

	var score float64
	if state.Match != nil {
		score = state.Match.Score
	}
	reason := fmt.Sprintf("two-way match failed: score %.2f below threshold %.2f", score, s.Settings.MatchThreshold)

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageCheckpointHITL,
			Status:       domain.StatusPaused,
			CheckpointHITL: &domain.CheckpointOutput{
				CheckpointID: checkpointID,
				ReviewURL:    reviewURL,
				PausedReason: reason,
			},
		},
		Route: graph.Stop(),
	}
}
