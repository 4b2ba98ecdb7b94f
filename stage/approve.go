package stage

import (
	"context"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Approve implements the APPROVE stage.
type Approve struct{ *Deps }

func (s *Approve) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	var riskScore float64
	if state.Prepare != nil {
		riskScore = state.Prepare.RiskScore
	}

	result := s.Router.Call("apply_approval_policy", map[string]interface{}{
		"amount":                  floatField(state.RawPayload, "amount"),
		"risk_score":              riskScore,
		"auto_approve_threshold":  s.Settings.AutoApproveThreshold,
	})

	status, _ := result["approval_status"].(domain.ApprovalStatus)
	approverID, _ := result["approver_id"].(string)

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageApprove,
			Approve: &domain.ApproveOutput{
				ApprovalStatus: status,
				ApproverID:     approverID,
			},
		},
	}
}
