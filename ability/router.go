// Package ability implements the compile-time ability router: it dispatches
// a named operation and parameter map to one of two backends, Internal or
// External, and logs every call for audit inspection.
package ability

import (
	"sync"
	"time"

	"github.com/lumenpay/invoiceflow/domain"
)

// routingTable maps every known ability to the backend that serves it.
var routingTable = map[string]domain.Backend{
	"validate_schema":        domain.BackendInternal,
	"persist_raw_invoice":    domain.BackendInternal,
	"parse_line_items":       domain.BackendInternal,
	"normalize_vendor":       domain.BackendInternal,
	"compute_flags":          domain.BackendInternal,
	"compute_match_score":    domain.BackendInternal,
	"save_checkpoint":        domain.BackendInternal,
	"build_accounting_entries": domain.BackendInternal,
	"apply_approval_policy":  domain.BackendInternal,
	"output_final_payload":   domain.BackendInternal,

	"ocr_extract":          domain.BackendExternal,
	"enrich_vendor":        domain.BackendExternal,
	"fetch_po":             domain.BackendExternal,
	"fetch_grn":            domain.BackendExternal,
	"fetch_history":        domain.BackendExternal,
	"human_review_action":  domain.BackendExternal,
	"post_to_erp":          domain.BackendExternal,
	"schedule_payment":     domain.BackendExternal,
	"notify_vendor":        domain.BackendExternal,
	"notify_finance_team":  domain.BackendExternal,
}

// CallLogEntry records one Call invocation for audit inspection. The log is
// not authoritative: AuditLog rows written by the Graph Runtime are the
// system of record.
type CallLogEntry struct {
	Ability    string
	Backend    domain.Backend
	Timestamp  time.Time
	ParamsKeys []string
}

// Backend serves a set of abilities for one routing-table side (Internal or
// External). InternalBackend and ExternalBackend are the production
// implementations; tests substitute their own to simulate backend failure
// without reaching through the real fabricated responses.
type Backend interface {
	Call(ability string, params map[string]interface{}) map[string]interface{}
}

// Router dispatches abilities to the Internal or External backend per the
// compile-time routing table.
type Router struct {
	mu       sync.Mutex
	log      []CallLogEntry
	internal Backend
	external Backend
}

// NewRouter builds a Router with a fresh Internal and External backend.
func NewRouter() *Router {
	return NewRouterWithBackends(&InternalBackend{}, &ExternalBackend{})
}

// NewRouterWithBackends builds a Router over caller-supplied backends. Used
// by tests to inject a backend that reports a failure the production
// InternalBackend/ExternalBackend never produce.
func NewRouterWithBackends(internal, external Backend) *Router {
	return &Router{internal: internal, external: external}
}

// Call dispatches ability with params to the backend named in the routing
// table. An unknown ability returns {"error": "Unknown ability: <name>"}
// without panicking; the router never raises on backend failure, it only
// surfaces the returned map's "error" key.
func (r *Router) Call(ability string, params map[string]interface{}) map[string]interface{} {
	backend, known := routingTable[ability]
	if !known {
		return map[string]interface{}{"error": "Unknown ability: " + ability}
	}

	r.record(ability, backend, params)

	switch backend {
	case domain.BackendInternal:
		return r.internal.Call(ability, params)
	case domain.BackendExternal:
		return r.external.Call(ability, params)
	default:
		return map[string]interface{}{"error": "Unknown ability: " + ability}
	}
}

// BackendFor reports which backend a known ability is routed to, and
// whether the ability is known at all. Used by tests to check invariant 8
// (recorded backend equals the routing table).
func BackendFor(ability string) (domain.Backend, bool) {
	b, ok := routingTable[ability]
	return b, ok
}

func (r *Router) record(ability string, backend domain.Backend, params map[string]interface{}) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, CallLogEntry{
		Ability:    ability,
		Backend:    backend,
		Timestamp:  time.Now().UTC(),
		ParamsKeys: keys,
	})
}

// CallLog returns a copy of the accumulated call log.
func (r *Router) CallLog() []CallLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallLogEntry, len(r.log))
	copy(out, r.log)
	return out
}

// ClearCallLog empties the call log. Used between test runs.
func (r *Router) ClearCallLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = nil
}
