package toolkit

import (
	"sync"
	"time"

	"github.com/lumenpay/invoiceflow/domain"
)

// StubTool is a domain.ToolImpl whose provider logic is a configurable
// function of its input params. The shipped registry wires every pool
// entry to a StubTool that fabricates a structurally correct response;
// swapping in a real provider means replacing the Provide function with
// one that calls out to the real system while keeping the same shape.
//
// Execute wraps Provide: it measures elapsed time, turns a returned error
// into ToolResult.Error rather than panicking, and counts invocations.
type StubTool struct {
	ToolName    string
	Cap         domain.Capability
	ProviderName string
	Desc        string
	Ver         string
	Mock        bool
	Provide     func(params map[string]interface{}) (map[string]interface{}, error)

	mu         sync.Mutex
	execCount  int
}

func (t *StubTool) Name() string                 { return t.ToolName }
func (t *StubTool) Capability() domain.Capability { return t.Cap }
func (t *StubTool) Provider() string              { return t.ProviderName }
func (t *StubTool) Description() string           { return t.Desc }
func (t *StubTool) Version() string               { return t.Ver }
func (t *StubTool) IsMock() bool                  { return t.Mock }

// ExecCount returns the number of times Execute has been called.
func (t *StubTool) ExecCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.execCount
}

// Execute runs Provide, measuring elapsed time and catching errors into
// ToolResult.Error. A failing tool does not retry; the calling stage
// decides whether to treat the failure as fatal.
func (t *StubTool) Execute(params map[string]interface{}) domain.ToolResult {
	t.mu.Lock()
	t.execCount++
	t.mu.Unlock()

	start := time.Now()
	data, err := t.Provide(params)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		return domain.ToolResult{
			Success:         false,
			ToolName:        t.ToolName,
			ExecutionTimeMs: elapsed,
			Error:           err.Error(),
		}
	}
	return domain.ToolResult{
		Success:         true,
		Data:            data,
		ToolName:        t.ToolName,
		ExecutionTimeMs: elapsed,
	}
}

// defaultTools returns the standard eighteen-tool pool: three providers
// per capability, matching the registry's documented initialization.
func defaultTools() []domain.ToolImpl {
	ack := func(name string) func(map[string]interface{}) (map[string]interface{}, error) {
		return func(params map[string]interface{}) (map[string]interface{}, error) {
			out := map[string]interface{}{"provider": name}
			for k, v := range params {
				out[k] = v
			}
			return out, nil
		}
	}

	type spec struct {
		cap   domain.Capability
		names []string
	}
	specs := []spec{
		{domain.CapabilityOCR, []string{"google_vision", "tesseract", "aws_textract"}},
		{domain.CapabilityEnrichment, []string{"clearbit", "people_data_labs", "vendor_db"}},
		{domain.CapabilityERPConnector, []string{"sap_sandbox", "netsuite", "mock_erp"}},
		{domain.CapabilityDB, []string{"postgres", "sqlite", "dynamodb"}},
		{domain.CapabilityEmail, []string{"sendgrid", "ses", "smtp"}},
		{domain.CapabilityStorage, []string{"s3", "gcs", "local_fs"}},
	}

	var out []domain.ToolImpl
	for _, s := range specs {
		for _, name := range s.names {
			out = append(out, &StubTool{
				ToolName:     name,
				Cap:          s.cap,
				ProviderName: name,
				Desc:         string(s.cap) + " provider " + name,
				Ver:          "1.0.0",
				Mock:         true,
				Provide:      ack(name),
			})
		}
	}
	return out
}
