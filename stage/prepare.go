package stage

import (
	"context"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Prepare implements the PREPARE stage.
type Prepare struct{ *Deps }

func (s *Prepare) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	normResult := s.Router.Call("normalize_vendor", map[string]interface{}{
		"vendor_name": state.RawPayload["vendor_name"],
	})
	normalizedName, _ := normResult["normalized_name"].(string)

	enrichProvider := s.Selector.Select(ctx, domain.CapabilityEnrichment, map[string]interface{}{
		"vendor_type": "business",
	})
	enrichResult := s.Router.Call("enrich_vendor", map[string]interface{}{
		"vendor_name":    state.RawPayload["vendor_name"],
		"vendor_tax_id":  state.RawPayload["vendor_tax_id"],
		"provider":       enrichProvider,
	})

	flagsResult := s.Router.Call("compute_flags", state.RawPayload)
	riskScore, _ := flagsResult["risk_score"].(float64)
	missingInfo := toStringSlice(flagsResult["missing_info"])

	vendorProfile := map[string]interface{}{
		"normalized_name": normalizedName,
		"tax_id":           enrichResult["tax_id"],
		"enrichment_meta":  enrichResult["meta"],
	}
	normalizedInvoice := map[string]interface{}{
		"amount":     state.RawPayload["amount"],
		"currency":   state.RawPayload["currency"],
		"line_items": state.RawPayload["line_items"],
	}
	flags := map[string]interface{}{
		"missing_info": missingInfo,
		"risk_score":   riskScore,
	}

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StagePrepare,
			Prepare: &domain.PrepareOutput{
				VendorProfile:          vendorProfile,
				NormalizedInvoice:      normalizedInvoice,
				Flags:                  flags,
				EnrichmentProviderUsed: enrichProvider,
				NormalizedName:         normalizedName,
				RiskScore:              riskScore,
				MissingInfo:            missingInfo,
			},
		},
	}
}
