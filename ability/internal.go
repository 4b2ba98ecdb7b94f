package ability

import (
	"strings"

	"github.com/lumenpay/invoiceflow/domain"
)

// InternalBackend implements the ten internal abilities as pure functions
// over the parameter map: no external dependencies, deterministic
// transformations of the input.
type InternalBackend struct{}

// Call dispatches one of the ten internal abilities by name.
func (b *InternalBackend) Call(ability string, params map[string]interface{}) map[string]interface{} {
	switch ability {
	case "validate_schema":
		return b.validateSchema(params)
	case "persist_raw_invoice":
		return acknowledge(params, "raw_id")
	case "parse_line_items":
		return b.parseLineItems(params)
	case "normalize_vendor":
		return b.normalizeVendor(params)
	case "compute_flags":
		return b.computeFlags(params)
	case "compute_match_score":
		return b.computeMatchScore(params)
	case "save_checkpoint":
		return acknowledge(params, "checkpoint_id")
	case "build_accounting_entries":
		return acknowledge(params, "invoice_id")
	case "apply_approval_policy":
		return b.applyApprovalPolicy(params)
	case "output_final_payload":
		return acknowledge(params, "workflow_id")
	default:
		return map[string]interface{}{"error": "Unknown ability: " + ability}
	}
}

// acknowledge returns the passed-in identifying field plus a confirmation
// flag, for abilities with no other computation to perform.
func acknowledge(params map[string]interface{}, idKey string) map[string]interface{} {
	return map[string]interface{}{
		idKey:       params[idKey],
		"confirmed": true,
	}
}

func (b *InternalBackend) validateSchema(params map[string]interface{}) map[string]interface{} {
	required := []string{"invoice_id", "vendor_name", "amount"}
	var missing []string
	for _, field := range required {
		if _, ok := params[field]; !ok {
			missing = append(missing, field)
		}
	}
	return map[string]interface{}{
		"valid":          len(missing) == 0,
		"missing_fields": missing,
	}
}

func (b *InternalBackend) parseLineItems(params map[string]interface{}) map[string]interface{} {
	text := getString(params, "invoice_text")
	var detectedPOs []string
	for _, token := range strings.Fields(text) {
		upper := strings.ToUpper(token)
		if strings.HasPrefix(upper, "PO") && len(upper) > 2 {
			detectedPOs = append(detectedPOs, upper)
		}
	}
	return map[string]interface{}{
		"line_items":   params["line_items"],
		"detected_pos": detectedPOs,
	}
}

// normalizeVendor trims, collapses internal whitespace, and upper-cases
// the vendor name. Idempotent: normalize(normalize(x)) == normalize(x).
func (b *InternalBackend) normalizeVendor(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"normalized_name": NormalizeVendorName(getString(params, "vendor_name")),
	}
}

// NormalizeVendorName applies the trim+collapse+upper-case transform
// directly, for callers (PREPARE stage) that need the value rather than
// an ability-call wrapper around it.
func NormalizeVendorName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	return strings.ToUpper(strings.Join(fields, " "))
}

func (b *InternalBackend) computeFlags(params map[string]interface{}) map[string]interface{} {
	var missing []string
	for _, field := range []string{"vendor_tax_id", "invoice_date", "due_date"} {
		if v, ok := params[field]; !ok || v == nil || v == "" {
			missing = append(missing, field)
		}
	}

	amount := getFloat(params, "amount")
	risk := 0.2*float64(len(missing)) + boolTerm(amount > 50000, 0.3)
	if risk > 1.0 {
		risk = 1.0
	}

	return map[string]interface{}{
		"missing_info": missing,
		"risk_score":   risk,
	}
}

func boolTerm(cond bool, weight float64) float64 {
	if cond {
		return weight
	}
	return 0
}

// computeMatchScore implements the MATCH_TWO_WAY scoring algorithm.
func (b *InternalBackend) computeMatchScore(params map[string]interface{}) map[string]interface{} {
	invoiceAmount := getFloat(params, "invoice_amount")
	poTotal := getFloat(params, "po_total")
	posCount := int(getFloat(params, "pos_count"))
	threshold := getFloat(params, "threshold")
	tolerancePct := getFloat(params, "tolerance_pct")

	score, diffPct := MatchScore(invoiceAmount, poTotal, posCount, tolerancePct)

	result := domain.MatchFailed
	if score >= threshold {
		result = domain.MatchMatched
	}

	return map[string]interface{}{
		"score":  score,
		"result": result,
		"evidence": map[string]interface{}{
			"invoice_amount":   invoiceAmount,
			"po_total":         poTotal,
			"pos_count":        posCount,
			"threshold_used":   threshold,
			"difference_pct":   diffPct,
		},
	}
}

// MatchScore computes the two-way match score per the algorithm in the
// system's matching stage: an empty PO set scores 0, an exact-zero match
// scores 1 or 0 depending on the invoice amount, and otherwise the score
// falls linearly from 1.0 to 0.9 while the percentage difference between
// invoice amount and PO total stays within tolerancePct, and is
// max(0, 1 - diffPct/100) beyond it.
func MatchScore(invoiceAmount, poTotal float64, posCount int, tolerancePct float64) (score, diffPct float64) {
	if posCount == 0 {
		return 0.0, 0.0
	}
	if poTotal == 0 {
		if invoiceAmount == 0 {
			return 1.0, 0.0
		}
		return 0.0, 0.0
	}

	diffPct = abs(invoiceAmount-poTotal) / poTotal * 100

	if diffPct <= tolerancePct {
		return 1.0 - (diffPct/tolerancePct)*0.1, diffPct
	}

	score = 1.0 - diffPct/100
	if score < 0 {
		score = 0
	}
	return score, diffPct
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func (b *InternalBackend) applyApprovalPolicy(params map[string]interface{}) map[string]interface{} {
	amount := getFloat(params, "amount")
	riskScore := getFloat(params, "risk_score")
	threshold := getFloat(params, "auto_approve_threshold")

	if amount <= threshold && riskScore < 0.5 {
		return map[string]interface{}{
			"approval_status": domain.ApprovalAutoApproved,
			"approver_id":     "SYSTEM",
		}
	}
	return map[string]interface{}{
		"approval_status": domain.ApprovalEscalated,
		"approver_id":     "finance_manager",
	}
}
