package stage

import (
	"context"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Complete implements the terminal COMPLETE stage. A workflow that arrived
// here via a REJECT decision already carries Status MANUAL_HANDOFF and that
// status is preserved; every other path is marked COMPLETED.
type Complete struct{ *Deps }

func (s *Complete) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	status := domain.StatusCompleted
	if state.Status == domain.StatusManualHandoff {
		status = domain.StatusManualHandoff
	}

	finalPayload := map[string]interface{}{
		"workflow_id": state.WorkflowID,
		"invoice_id":  state.InvoiceID,
		"status":      status,
	}
	if state.Match != nil {
		finalPayload["match_score"] = state.Match.Score
		finalPayload["match_result"] = state.Match.Result
	}
	if state.Approve != nil {
		finalPayload["approval_status"] = state.Approve.ApprovalStatus
	}
	if state.Posting != nil {
		finalPayload["erp_txn_id"] = state.Posting.ERPTxnID
		finalPayload["scheduled_payment_id"] = state.Posting.ScheduledPaymentID
	}

	s.Router.Call("output_final_payload", map[string]interface{}{"workflow_id": state.WorkflowID})

	auditLog := []map[string]interface{}{
		{"stage": string(state.CurrentStage), "event": string(domain.EventWorkflowStarted)},
		{"stage": string(domain.StageComplete), "event": "workflow_finalized", "status": string(status)},
	}

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageComplete,
			Status:       status,
			Complete: &domain.CompleteOutput{
				FinalPayload: finalPayload,
				AuditLog:     auditLog,
				Status:       status,
			},
		},
		Route: graph.Stop(),
	}
}
