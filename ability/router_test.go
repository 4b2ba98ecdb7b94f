package ability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay/invoiceflow/domain"
)

func TestRouter_UnknownAbility(t *testing.T) {
	r := NewRouter()
	result := r.Call("does_not_exist", nil)
	assert.Equal(t, "Unknown ability: does_not_exist", result["error"])
}

func TestRouter_RecordsCallLog(t *testing.T) {
	r := NewRouter()
	r.Call("normalize_vendor", map[string]interface{}{"vendor_name": "acme"})
	r.Call("ocr_extract", map[string]interface{}{"attachments": []string{}})

	log := r.CallLog()
	require.Len(t, log, 2)
	assert.Equal(t, "normalize_vendor", log[0].Ability)
	assert.Equal(t, domain.BackendInternal, log[0].Backend)
	assert.Equal(t, "ocr_extract", log[1].Ability)
	assert.Equal(t, domain.BackendExternal, log[1].Backend)
}

func TestRouter_ClearCallLog(t *testing.T) {
	r := NewRouter()
	r.Call("normalize_vendor", map[string]interface{}{"vendor_name": "acme"})
	r.ClearCallLog()
	assert.Empty(t, r.CallLog())
}

func TestBackendFor_MatchesRoutingTable(t *testing.T) {
	backend, ok := BackendFor("validate_schema")
	require.True(t, ok)
	assert.Equal(t, domain.BackendInternal, backend)

	backend, ok = BackendFor("post_to_erp")
	require.True(t, ok)
	assert.Equal(t, domain.BackendExternal, backend)

	_, ok = BackendFor("nope")
	assert.False(t, ok)
}

func TestRouter_NeverPanicsOnNilParams(t *testing.T) {
	r := NewRouter()
	assert.NotPanics(t, func() {
		r.Call("validate_schema", nil)
	})
}
