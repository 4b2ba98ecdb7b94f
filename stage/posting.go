package stage

import (
	"context"
	"errors"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Posting implements the POSTING stage. The ERP backend and payment
// scheduler each mint their own identifiers; the backend-returned id always
// wins over any value the stage might otherwise have generated locally.
type Posting struct{ *Deps }

func (s *Posting) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	connector := s.Selector.Select(ctx, domain.CapabilityERPConnector, map[string]interface{}{
		"is_development": s.Settings.IsDevelopment(),
		"use_mock":       s.Settings.IsDevelopment(),
	})

	postResult := s.Router.Call("post_to_erp", map[string]interface{}{
		"invoice_id": state.InvoiceID,
		"connector":  connector,
	})
	if msg, failed := abilityError(postResult); failed {
		return graph.NodeResult[domain.State]{
			Err: &domain.StageError{Stage: domain.StagePosting, Err: errors.New(msg)},
		}
	}
	erpTxnID, _ := postResult["erp_txn_id"].(string)

	payResult := s.Router.Call("schedule_payment", map[string]interface{}{
		"invoice_id": state.InvoiceID,
		"erp_txn_id": erpTxnID,
	})
	if msg, failed := abilityError(payResult); failed {
		return graph.NodeResult[domain.State]{
			Err: &domain.StageError{Stage: domain.StagePosting, Err: errors.New(msg)},
		}
	}
	scheduledPaymentID, _ := payResult["scheduled_payment_id"].(string)

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StagePosting,
			Posting: &domain.PostingOutput{
				Posted:             erpTxnID != "",
				ERPTxnID:           erpTxnID,
				ScheduledPaymentID: scheduledPaymentID,
			},
		},
	}
}
