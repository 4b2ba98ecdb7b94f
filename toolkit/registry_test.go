package toolkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay/invoiceflow/domain"
)

func TestNewDefaultRegistry_PoolsAllCapabilities(t *testing.T) {
	r := NewDefaultRegistry(nil)

	for _, cap := range []domain.Capability{
		domain.CapabilityOCR, domain.CapabilityEnrichment, domain.CapabilityERPConnector,
		domain.CapabilityDB, domain.CapabilityEmail, domain.CapabilityStorage,
	} {
		assert.Len(t, r.Pool(cap), 3)
	}
}

func TestRegistry_RegisterReplacesDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	first := &StubTool{ToolName: "x", Cap: domain.CapabilityOCR}
	second := &StubTool{ToolName: "x", Cap: domain.CapabilityOCR, Desc: "replacement"}

	r.Register(first)
	r.Register(second)

	got, ok := r.Get(domain.CapabilityOCR, "x")
	require.True(t, ok)
	assert.Equal(t, "replacement", got.Description())
	assert.Len(t, r.Pool(domain.CapabilityOCR), 1, "duplicate registration must not grow the pool")
}

func TestRegistry_DefaultIsFirstRegistered(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&StubTool{ToolName: "first", Cap: domain.CapabilityEmail})
	r.Register(&StubTool{ToolName: "second", Cap: domain.CapabilityEmail})

	assert.Equal(t, "first", r.Default(domain.CapabilityEmail))
}

func TestRegistry_DefaultEmptyPool(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, "", r.Default(domain.CapabilityEmail))
}
