package toolkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph/model"
)

func TestSelect_EmptyPoolReturnsCapabilityDefault(t *testing.T) {
	s := NewSelector(NewRegistry(nil), nil, nil)
	name := s.Select(context.Background(), domain.CapabilityOCR, nil)
	assert.Equal(t, "google_vision", name)
}

func TestSelect_RuleBasedWins(t *testing.T) {
	s := NewSelector(NewDefaultRegistry(nil), nil, nil)
	name := s.Select(context.Background(), domain.CapabilityOCR, map[string]interface{}{"quality": "high"})
	assert.Equal(t, "google_vision", name)

	name = s.Select(context.Background(), domain.CapabilityOCR, map[string]interface{}{"quality": "low"})
	assert.Equal(t, "tesseract", name)
}

func TestSelect_LLMFallbackWhenNoRuleMatches(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "netsuite"}}}
	s := NewSelector(NewDefaultRegistry(nil), mock, nil)

	name := s.Select(context.Background(), domain.CapabilityERPConnector, map[string]interface{}{})
	assert.Equal(t, "netsuite", name)
	assert.Equal(t, 1, mock.CallCount())
}

func TestSelect_DefaultWhenLLMAnswerInvalid(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "not_a_real_tool"}}}
	s := NewSelector(NewDefaultRegistry(nil), mock, nil)

	name := s.Select(context.Background(), domain.CapabilityERPConnector, map[string]interface{}{})
	assert.Equal(t, "mock_erp", name)
}

func TestSelect_NeverReturnsOutOfPoolName(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&StubTool{ToolName: "custom_ocr", Cap: domain.CapabilityOCR})
	s := NewSelector(r, nil, nil)

	name := s.Select(context.Background(), domain.CapabilityOCR, map[string]interface{}{"quality": "high"})
	assert.Equal(t, "custom_ocr", name, "google_vision is not in this pool, so the fallback default must yield to the only pool member")
}

func TestSelectionLog_RecordsEveryCall(t *testing.T) {
	s := NewSelector(NewDefaultRegistry(nil), nil, nil)
	s.Select(context.Background(), domain.CapabilityOCR, map[string]interface{}{"quality": "high"})
	s.Select(context.Background(), domain.CapabilityEmail, map[string]interface{}{"is_development": true})

	log := s.SelectionLog()
	require.Len(t, log, 2)
	assert.Equal(t, MethodRuleBased, log[0].Method)
}
