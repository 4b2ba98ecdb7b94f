package ability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenpay/invoiceflow/domain"
)

func TestNormalizeVendorName_TrimsCollapsesUppercases(t *testing.T) {
	assert.Equal(t, "ACME CORP", NormalizeVendorName("  acme   corp  "))
}

func TestNormalizeVendorName_Idempotent(t *testing.T) {
	once := NormalizeVendorName("Acme  Corp")
	twice := NormalizeVendorName(once)
	assert.Equal(t, once, twice)
}

func TestMatchScore_EmptyPOSet(t *testing.T) {
	score, diff := MatchScore(100, 0, 0, 5)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, diff)
}

func TestMatchScore_ExactZeroMatch(t *testing.T) {
	score, _ := MatchScore(0, 0, 1, 5)
	assert.Equal(t, 1.0, score)
}

func TestMatchScore_WithinTolerance(t *testing.T) {
	score, diff := MatchScore(102, 100, 1, 5)
	assert.InDelta(t, 2.0, diff, 0.001)
	assert.Greater(t, score, 0.9)
	assert.LessOrEqual(t, score, 1.0)
}

func TestMatchScore_BeyondTolerance(t *testing.T) {
	score, diff := MatchScore(150, 100, 1, 5)
	assert.InDelta(t, 50.0, diff, 0.001)
	assert.Less(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestApplyApprovalPolicy_AutoApprovesLowRiskUnderThreshold(t *testing.T) {
	b := &InternalBackend{}
	result := b.applyApprovalPolicy(map[string]interface{}{
		"amount":                  float64(5000),
		"risk_score":              0.1,
		"auto_approve_threshold":  float64(10000),
	})
	assert.Equal(t, domain.ApprovalAutoApproved, result["approval_status"])
	assert.Equal(t, "SYSTEM", result["approver_id"])
}

func TestApplyApprovalPolicy_EscalatesOverThreshold(t *testing.T) {
	b := &InternalBackend{}
	result := b.applyApprovalPolicy(map[string]interface{}{
		"amount":                  float64(50000),
		"risk_score":              0.1,
		"auto_approve_threshold":  float64(10000),
	})
	assert.Equal(t, domain.ApprovalEscalated, result["approval_status"])
	assert.Equal(t, "finance_manager", result["approver_id"])
}

func TestApplyApprovalPolicy_EscalatesHighRisk(t *testing.T) {
	b := &InternalBackend{}
	result := b.applyApprovalPolicy(map[string]interface{}{
		"amount":                  float64(100),
		"risk_score":              0.9,
		"auto_approve_threshold":  float64(10000),
	})
	assert.Equal(t, domain.ApprovalEscalated, result["approval_status"])
}

func TestValidateSchema_ReportsMissingFields(t *testing.T) {
	b := &InternalBackend{}
	result := b.validateSchema(map[string]interface{}{"invoice_id": "INV-1"})
	assert.Equal(t, false, result["valid"])
	assert.Contains(t, result["missing_fields"], "vendor_name")
	assert.Contains(t, result["missing_fields"], "amount")
}
