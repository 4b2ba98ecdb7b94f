package stage

import (
	"context"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Retrieve implements the RETRIEVE stage.
type Retrieve struct{ *Deps }

func (s *Retrieve) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	var detectedPOs []string
	if state.Understand != nil {
		detectedPOs = state.Understand.DetectedPOs
	}

	connector := s.Selector.Select(ctx, domain.CapabilityERPConnector, map[string]interface{}{
		"is_development": s.Settings.IsDevelopment(),
		"use_mock":       s.Settings.IsDevelopment(),
	})

	poResult := s.Router.Call("fetch_po", map[string]interface{}{
		"vendor_name":    state.RawPayload["vendor_name"],
		"po_numbers":     detectedPOs,
		"connector":      connector,
		"invoice_amount": state.RawPayload["amount"],
	})

	matchedPOs := parsePurchaseOrders(poResult["purchase_orders"])

	poIDs := make([]string, 0, len(matchedPOs))
	for _, po := range matchedPOs {
		poIDs = append(poIDs, po.POID)
	}

	grnResult := s.Router.Call("fetch_grn", map[string]interface{}{"po_ids": poIDs})
	matchedGRNs := toMapSlice(grnResult["grns"])

	historyResult := s.Router.Call("fetch_history", map[string]interface{}{
		"vendor_name": state.RawPayload["vendor_name"],
	})
	history := toMapSlice(historyResult["history"])

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageRetrieve,
			Retrieve: &domain.RetrieveOutput{
				MatchedPOs:       matchedPOs,
				MatchedGRNs:      matchedGRNs,
				History:          history,
				ERPConnectorUsed: connector,
			},
		},
	}
}

func parsePurchaseOrders(v interface{}) []domain.PurchaseOrder {
	raw := toMapSlice(v)
	out := make([]domain.PurchaseOrder, 0, len(raw))
	for _, m := range raw {
		po := domain.PurchaseOrder{
			POID:        stringField(m, "po_id"),
			Vendor:      stringField(m, "vendor"),
			Currency:    stringField(m, "currency"),
			Status:      stringField(m, "status"),
			CreatedDate: stringField(m, "created_date"),
		}
		if amt, ok := m["amount"].(float64); ok {
			po.Amount = amountToDecimal(amt)
		}
		out = append(out, po)
	}
	return out
}

func toMapSlice(v interface{}) []map[string]interface{} {
	switch t := v.(type) {
	case []map[string]interface{}:
		return t
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
