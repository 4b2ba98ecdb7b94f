package stage

import (
	"context"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Understand implements the UNDERSTAND stage.
type Understand struct{ *Deps }

func (s *Understand) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	ocrProvider := s.Selector.Select(ctx, domain.CapabilityOCR, map[string]interface{}{
		"document_type": "invoice",
	})

	ocrResult := s.Router.Call("ocr_extract", map[string]interface{}{
		"attachments": toStringSlice(state.RawPayload["attachments"]),
		"provider":    ocrProvider,
	})
	invoiceText, _ := ocrResult["extracted_text"].(string)

	parsed := s.Router.Call("parse_line_items", map[string]interface{}{
		"invoice_text": invoiceText,
		"line_items":   state.RawPayload["line_items"],
	})
	detectedPOs := toStringSlice(parsed["detected_pos"])

	parsedInvoice := map[string]interface{}{
		"invoice_text":   invoiceText,
		"detected_pos":   detectedPOs,
		"currency":       state.RawPayload["currency"],
		"amount":         state.RawPayload["amount"],
	}

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageUnderstand,
			Understand: &domain.UnderstandOutput{
				ParsedInvoice:   parsedInvoice,
				OCRProviderUsed: ocrProvider,
				InvoiceText:     invoiceText,
				DetectedPOs:     detectedPOs,
				ParsedDates:     map[string]string{},
			},
		},
	}
}

func toStringSlice(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
