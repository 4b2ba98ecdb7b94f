package toolkit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph/model"
)

// SelectionMethod identifies how a Select call arrived at its answer.
type SelectionMethod string

const (
	MethodRuleBased SelectionMethod = "rule_based"
	MethodLLMFallback SelectionMethod = "llm_fallback"
	MethodDefault     SelectionMethod = "default"
)

// SelectionLogEntry records one Select call for audit inspection.
type SelectionLogEntry struct {
	Timestamp   time.Time
	Capability  domain.Capability
	Selected    string
	ContextKeys []string
	Available   []string
	Method      SelectionMethod
}

// capabilityDefaults is the fallback tool for each capability when no rule
// matches and no LLM fallback is configured or useful.
var capabilityDefaults = map[domain.Capability]string{
	domain.CapabilityOCR:          "google_vision",
	domain.CapabilityEnrichment:   "clearbit",
	domain.CapabilityERPConnector: "mock_erp",
	domain.CapabilityDB:           "sqlite",
	domain.CapabilityEmail:        "sendgrid",
	domain.CapabilityStorage:      "local_fs",
}

// Selector chooses a concrete tool name from a capability's pool using a
// rule set, an optional LLM fallback, and the capability default.
type Selector struct {
	registry *Registry
	llm      model.ChatModel
	log      *zap.Logger

	mu          sync.Mutex
	selections  []SelectionLogEntry
}

// NewSelector builds a Selector over registry. llm may be nil, in which
// case step 3 (LLM fallback) is always skipped.
func NewSelector(registry *Registry, llm model.ChatModel, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{registry: registry, llm: llm, log: log}
}

// Select runs the four-step algorithm: empty pool returns the capability
// default; otherwise rule-based selection is tried first, then LLM
// fallback (if configured), then the capability default. The chosen name
// is always a pool member (or the hardcoded default when the pool is
// empty); Select never returns an out-of-pool name.
func (s *Selector) Select(ctx context.Context, capability domain.Capability, selCtx map[string]interface{}) string {
	available := s.registry.Pool(capability)
	if len(available) == 0 {
		s.logSelection(capability, capabilityDefaults[capability], selCtx, available, MethodDefault)
		return capabilityDefaults[capability]
	}

	if name := ruleBasedSelect(capability, selCtx, available); name != "" {
		s.logSelection(capability, name, selCtx, available, MethodRuleBased)
		return name
	}

	if s.llm != nil {
		if name := s.llmSelect(ctx, capability, selCtx, available); name != "" {
			s.logSelection(capability, name, selCtx, available, MethodLLMFallback)
			return name
		}
	}

	def := capabilityDefaults[capability]
	if !contains(available, def) {
		def = available[0]
	}
	s.logSelection(capability, def, selCtx, available, MethodDefault)
	return def
}

func (s *Selector) logSelection(capability domain.Capability, selected string, selCtx map[string]interface{}, available []string, method SelectionMethod) {
	keys := make([]string, 0, len(selCtx))
	for k := range selCtx {
		keys = append(keys, k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections = append(s.selections, SelectionLogEntry{
		Timestamp:   time.Now().UTC(),
		Capability:  capability,
		Selected:    selected,
		ContextKeys: keys,
		Available:   available,
		Method:      method,
	})
}

// SelectionLog returns a copy of the accumulated selection log.
func (s *Selector) SelectionLog() []SelectionLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SelectionLogEntry, len(s.selections))
	copy(out, s.selections)
	return out
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func ctxString(ctx map[string]interface{}, key string) string {
	if v, ok := ctx[key].(string); ok {
		return v
	}
	return ""
}

func ctxBool(ctx map[string]interface{}, key string) bool {
	if v, ok := ctx[key].(bool); ok {
		return v
	}
	return false
}

func ctxInt(ctx map[string]interface{}, key string) int {
	switch v := ctx[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// ruleBasedSelect applies the capability-specific rule table. The first
// rule whose guard is satisfied AND whose candidate is in the pool wins;
// it returns "" if no rule matches.
func ruleBasedSelect(capability domain.Capability, ctx map[string]interface{}, available []string) string {
	switch capability {
	case domain.CapabilityOCR:
		return selectOCR(ctx, available)
	case domain.CapabilityEnrichment:
		return selectEnrichment(ctx, available)
	case domain.CapabilityERPConnector:
		return selectERP(ctx, available)
	case domain.CapabilityDB:
		return selectDB(ctx, available)
	case domain.CapabilityEmail:
		return selectEmail(ctx, available)
	case domain.CapabilityStorage:
		return selectStorage(ctx, available)
	default:
		return ""
	}
}

func selectOCR(ctx map[string]interface{}, available []string) string {
	quality := ctxString(ctx, "quality")
	if (quality == "high" || ctxBool(ctx, "has_tables")) && contains(available, "google_vision") {
		return "google_vision"
	}
	if ctxInt(ctx, "page_count") > 5 && contains(available, "aws_textract") {
		return "aws_textract"
	}
	if (quality == "low" || ctxBool(ctx, "cost_sensitive")) && contains(available, "tesseract") {
		return "tesseract"
	}
	if ctxString(ctx, "document_type") == "invoice" && contains(available, "google_vision") {
		return "google_vision"
	}
	return ""
}

func selectEnrichment(ctx map[string]interface{}, available []string) string {
	if ctxBool(ctx, "is_known_vendor") && contains(available, "vendor_db") {
		return "vendor_db"
	}
	switch ctxString(ctx, "vendor_type") {
	case "business", "b2b", "enterprise":
		if contains(available, "clearbit") {
			return "clearbit"
		}
	}
	switch ctxString(ctx, "enrichment_type") {
	case "contact", "person", "employee":
		if contains(available, "people_data_labs") {
			return "people_data_labs"
		}
	}
	if contains(available, "clearbit") {
		return "clearbit"
	}
	return ""
}

func selectERP(ctx map[string]interface{}, available []string) string {
	system := strings.ToLower(ctxString(ctx, "erp_system"))
	if strings.Contains(system, "sap") && contains(available, "sap_sandbox") {
		return "sap_sandbox"
	}
	if strings.Contains(system, "netsuite") && contains(available, "netsuite") {
		return "netsuite"
	}
	if (ctxBool(ctx, "is_development") || ctxBool(ctx, "use_mock")) && contains(available, "mock_erp") {
		return "mock_erp"
	}
	return ""
}

func selectDB(ctx map[string]interface{}, available []string) string {
	if (ctxString(ctx, "data_size") == "large" || ctxBool(ctx, "is_production")) && contains(available, "postgres") {
		return "postgres"
	}
	if ctxBool(ctx, "serverless") && contains(available, "dynamodb") {
		return "dynamodb"
	}
	if ctxBool(ctx, "is_development") && contains(available, "sqlite") {
		return "sqlite"
	}
	return ""
}

func selectEmail(ctx map[string]interface{}, available []string) string {
	if (ctxString(ctx, "volume") == "high" || ctxString(ctx, "email_type") == "transactional") && contains(available, "sendgrid") {
		return "sendgrid"
	}
	if ctxBool(ctx, "aws_environment") && contains(available, "ses") {
		return "ses"
	}
	if ctxBool(ctx, "is_development") && contains(available, "smtp") {
		return "smtp"
	}
	return ""
}

func selectStorage(ctx map[string]interface{}, available []string) string {
	if (ctxString(ctx, "size") == "large" || ctxBool(ctx, "is_production")) && contains(available, "s3") {
		return "s3"
	}
	if ctxBool(ctx, "gcp_environment") && contains(available, "gcs") {
		return "gcs"
	}
	if ctxBool(ctx, "is_development") && contains(available, "local_fs") {
		return "local_fs"
	}
	return ""
}

// llmSelect asks the configured ChatModel to name a tool from available,
// accepting the answer iff it names a pool member (full match first,
// substring match second).
func (s *Selector) llmSelect(ctx context.Context, capability domain.Capability, selCtx map[string]interface{}, available []string) string {
	prompt := fmt.Sprintf(
		"capability=%s available=%v context=%v\nReply with exactly one tool name from available.",
		capability, available, selCtx,
	)

	out, err := s.llm.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "You select a concrete tool implementation for a pipeline stage."},
		{Role: model.RoleUser, Content: prompt},
	}, nil)
	if err != nil {
		s.log.Warn("llm fallback selection failed", zap.Error(err), zap.String("capability", string(capability)))
		return ""
	}

	answer := strings.TrimSpace(out.Text)
	if contains(available, answer) {
		return answer
	}
	for _, name := range available {
		if strings.Contains(answer, name) {
			return name
		}
	}
	return ""
}
