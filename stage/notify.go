package stage

import (
	"context"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Notify implements the NOTIFY stage.
type Notify struct{ *Deps }

func (s *Notify) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	provider := s.Selector.Select(ctx, domain.CapabilityEmail, map[string]interface{}{
		"is_development": s.Settings.IsDevelopment(),
	})

	s.Router.Call("notify_vendor", map[string]interface{}{
		"invoice_id": state.InvoiceID,
		"provider":   provider,
	})
	s.Router.Call("notify_finance_team", map[string]interface{}{
		"invoice_id": state.InvoiceID,
		"provider":   provider,
	})

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageNotify,
			Notify: &domain.NotifyOutput{
				NotifyStatus:      "sent",
				NotifiedParties:   []string{"vendor", "finance_team"},
				EmailProviderUsed: provider,
			},
		},
	}
}
