// Package toolkit implements the tool registry and capability-based
// selector: per-capability pools of domain.ToolImpl, a rule-based selection
// algorithm with an optional LLM fallback, and the selection log.
package toolkit

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lumenpay/invoiceflow/domain"
)

// Registry owns per-capability pools of domain.ToolImpl, keyed by
// capability then name, and tracks registration order per capability for
// "default tool" disambiguation.
type Registry struct {
	mu    sync.RWMutex
	tools map[domain.Capability]map[string]domain.ToolImpl
	order map[domain.Capability][]string
	log   *zap.Logger
}

// NewRegistry creates an empty registry. Register tools with Register, or
// use NewDefaultRegistry for the standard eighteen-tool pool.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		tools: make(map[domain.Capability]map[string]domain.ToolImpl),
		order: make(map[domain.Capability][]string),
		log:   log,
	}
}

// Register adds a tool to its capability's pool. Registering a name that
// already exists for that capability replaces the existing entry and logs
// a warning, matching the source registry's duplicate-registration policy.
func (r *Registry) Register(tool domain.ToolImpl) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cap := tool.Capability()
	if r.tools[cap] == nil {
		r.tools[cap] = make(map[string]domain.ToolImpl)
	}

	if _, exists := r.tools[cap][tool.Name()]; exists {
		r.log.Warn("tool already registered, replacing",
			zap.String("capability", string(cap)),
			zap.String("tool", tool.Name()))
	} else {
		r.order[cap] = append(r.order[cap], tool.Name())
	}

	r.tools[cap][tool.Name()] = tool
}

// Get returns a specific tool by capability and name.
func (r *Registry) Get(capability domain.Capability, name string) (domain.ToolImpl, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[capability][name]
	return t, ok
}

// Pool returns the list of tool names registered for a capability, in
// registration order.
func (r *Registry) Pool(capability domain.Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order := r.order[capability]
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Default returns the first tool registered for a capability (used as the
// fallback when no selector rule or LLM fallback applies), or "" if the
// pool is empty.
func (r *Registry) Default(capability domain.Capability) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order := r.order[capability]
	if len(order) == 0 {
		return ""
	}
	return order[0]
}

// NewDefaultRegistry builds a registry with the standard pool of three
// mock tools per capability (eighteen total).
func NewDefaultRegistry(log *zap.Logger) *Registry {
	r := NewRegistry(log)
	for _, t := range defaultTools() {
		r.Register(t)
	}
	return r
}
