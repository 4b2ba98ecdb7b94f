package stage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Match implements the MATCH_TWO_WAY stage.
type Match struct{ *Deps }

func (s *Match) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	var matchedPOs []domain.PurchaseOrder
	if state.Retrieve != nil {
		matchedPOs = state.Retrieve.MatchedPOs
	}

	poTotal := decimal.Zero
	for _, po := range matchedPOs {
		poTotal = poTotal.Add(po.Amount)
	}
	poTotalF, _ := poTotal.Float64()

	invoiceAmount := floatField(state.RawPayload, "amount")

	result := s.Router.Call("compute_match_score", map[string]interface{}{
		"invoice_amount": invoiceAmount,
		"po_total":       poTotalF,
		"pos_count":      float64(len(matchedPOs)),
		"threshold":      s.Settings.MatchThreshold,
		"tolerance_pct":  s.Settings.TwoWayTolerancePct,
	})

	score, _ := result["score"].(float64)
	matchResult, _ := result["result"].(domain.MatchResult)
	evidence, _ := result["evidence"].(map[string]interface{})

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageMatchTwoWay,
			Match: &domain.MatchOutput{
				Score:        score,
				Result:       matchResult,
				TolerancePct: s.Settings.TwoWayTolerancePct,
				Evidence:     evidence,
			},
		},
	}
}
