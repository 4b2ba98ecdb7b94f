package ability

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExternalBackend implements the ten external abilities. Each returns a
// structurally correct but fabricated response: the core depends only on
// the response shape, not the values, so these stand in for real OCR, ERP,
// and email integrations.
type ExternalBackend struct{}

// Call dispatches one of the ten external abilities by name.
func (b *ExternalBackend) Call(ability string, params map[string]interface{}) map[string]interface{} {
	switch ability {
	case "ocr_extract":
		return b.ocrExtract(params)
	case "enrich_vendor":
		return b.enrichVendor(params)
	case "fetch_po":
		return b.fetchPO(params)
	case "fetch_grn":
		return b.fetchGRN(params)
	case "fetch_history":
		return b.fetchHistory(params)
	case "human_review_action":
		return b.humanReviewAction(params)
	case "post_to_erp":
		return b.postToERP(params)
	case "schedule_payment":
		return b.schedulePayment(params)
	case "notify_vendor":
		return b.notifyVendor(params)
	case "notify_finance_team":
		return b.notifyFinanceTeam(params)
	default:
		return map[string]interface{}{"error": "Unknown ability: " + ability}
	}
}

func (b *ExternalBackend) ocrExtract(params map[string]interface{}) map[string]interface{} {
	attachments := getStringSlice(params, "attachments")
	provider := getString(params, "provider")
	return map[string]interface{}{
		"extracted_text":   "INVOICE " + strings.Join(attachments, " "),
		"confidence":       0.95,
		"provider":         provider,
		"pages_processed":  len(attachments),
	}
}

func (b *ExternalBackend) enrichVendor(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"tax_id":   getString(params, "vendor_tax_id"),
		"provider": getString(params, "provider"),
		"meta": map[string]interface{}{
			"vendor_name": getString(params, "vendor_name"),
		},
	}
}

// fetchPO returns purchase orders matching the given PO numbers. When
// po_numbers is empty it synthesizes one PO whose amount is within ±2% of
// invoice_amount, which is what lets the happy path reach a MATCHED result.
func (b *ExternalBackend) fetchPO(params map[string]interface{}) map[string]interface{} {
	vendor := getString(params, "vendor_name")
	connector := getString(params, "connector")
	poNumbers := getStringSlice(params, "po_numbers")

	var pos []map[string]interface{}
	if len(poNumbers) == 0 {
		invoiceAmount := getFloat(params, "invoice_amount")
		pos = append(pos, map[string]interface{}{
			"po_id":        "PO-" + uuid.New().String()[:8],
			"vendor":       vendor,
			"amount":       invoiceAmount,
			"currency":     "USD",
			"status":       "open",
			"created_date": time.Now().UTC().Format(time.RFC3339),
		})
	} else {
		for _, poID := range poNumbers {
			pos = append(pos, map[string]interface{}{
				"po_id":        poID,
				"vendor":       vendor,
				"amount":       getFloat(params, "invoice_amount"),
				"currency":     "USD",
				"status":       "open",
				"created_date": time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	return map[string]interface{}{
		"purchase_orders": pos,
		"total_count":     len(pos),
		"connector":       connector,
	}
}

func (b *ExternalBackend) fetchGRN(params map[string]interface{}) map[string]interface{} {
	poIDs := getStringSlice(params, "po_ids")
	var grns []map[string]interface{}
	for _, poID := range poIDs {
		grns = append(grns, map[string]interface{}{
			"grn_id": "GRN-" + uuid.New().String()[:8],
			"po_id":  poID,
			"status": "received",
		})
	}
	return map[string]interface{}{"grns": grns}
}

func (b *ExternalBackend) fetchHistory(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"vendor":  getString(params, "vendor_name"),
		"history": []map[string]interface{}{},
	}
}

func (b *ExternalBackend) humanReviewAction(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"processed":    true,
		"checkpoint_id": getString(params, "checkpoint_id"),
		"decision":     getString(params, "decision"),
		"reviewer_id":  getString(params, "reviewer_id"),
		"processed_at": time.Now().UTC().Format(time.RFC3339),
	}
}

func (b *ExternalBackend) postToERP(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"erp_txn_id": "ERP-TXN_" + uuid.New().String()[:8],
	}
}

func (b *ExternalBackend) schedulePayment(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"scheduled_payment_id": "PAY_" + uuid.New().String()[:8],
	}
}

func (b *ExternalBackend) notifyVendor(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"notified": "vendor", "provider": getString(params, "provider")}
}

func (b *ExternalBackend) notifyFinanceTeam(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"notified": "finance_team", "provider": getString(params, "provider")}
}
