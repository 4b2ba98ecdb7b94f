package stage

import (
	"context"
	"time"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Intake implements the INTAKE stage.
type Intake struct{ *Deps }

func (s *Intake) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	rawID := domain.NewRawID()

	validation := s.Router.Call("validate_schema", state.RawPayload)
	persistParams := map[string]interface{}{"raw_id": rawID, "invoice_id": state.InvoiceID}
	s.Router.Call("persist_raw_invoice", persistParams)

	s.Selector.Select(ctx, domain.CapabilityStorage, map[string]interface{}{
		"is_development": s.Settings.IsDevelopment(),
		"is_production":  s.Settings.IsProduction(),
	})

	valid, _ := validation["valid"].(bool)

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageIntake,
			Intake: &domain.IntakeOutput{
				RawID:     rawID,
				IngestTS:  time.Now().UTC(),
				Validated: valid,
			},
		},
	}
}
