package stage

import (
	"errors"

	"github.com/shopspring/decimal"
)

var errMissingDecision = errors.New("stage: HITL_DECISION requires state.Pending to be set before resume")

func amountToDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func floatField(m map[string]interface{}, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

// abilityError returns the backend's reported failure, if the result map
// carries an "error" key, and whether one was present.
func abilityError(result map[string]interface{}) (string, bool) {
	msg, ok := result["error"].(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}
