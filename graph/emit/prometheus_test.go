package emit

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusEmitter_EmitUpdatesCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	emitter := NewPrometheusEmitter(registry)

	emitter.Emit(Event{NodeID: "nodeA", Msg: "node_start"})
	emitter.Emit(Event{NodeID: "nodeA", Msg: "node_end", Meta: map[string]interface{}{"duration_ms": 42.0}})
	emitter.Emit(Event{NodeID: "nodeA", Msg: "error"})
	emitter.Emit(Event{Msg: "checkpoint_saved"})

	if got := counterValue(t, registry, "invoiceflow_node_starts_total"); got != 1 {
		t.Errorf("node_starts_total = %v, want 1", got)
	}
	if got := counterValue(t, registry, "invoiceflow_node_errors_total"); got != 1 {
		t.Errorf("node_errors_total = %v, want 1", got)
	}
	if got := counterValue(t, registry, "invoiceflow_checkpoints_saved_total"); got != 1 {
		t.Errorf("checkpoints_saved_total = %v, want 1", got)
	}
}

func TestPrometheusEmitter_EmitBatchAppliesEachEvent(t *testing.T) {
	registry := prometheus.NewRegistry()
	emitter := NewPrometheusEmitter(registry)

	err := emitter.EmitBatch(context.Background(), []Event{
		{NodeID: "nodeA", Msg: "node_start"},
		{NodeID: "nodeB", Msg: "node_start"},
	})
	if err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}

	if got := counterValue(t, registry, "invoiceflow_node_starts_total"); got != 2 {
		t.Errorf("node_starts_total = %v, want 2", got)
	}
}

func TestPrometheusEmitter_FlushIsNoop(t *testing.T) {
	emitter := NewPrometheusEmitter(prometheus.NewRegistry())
	if err := emitter.Flush(context.Background()); err != nil {
		t.Fatalf("expected Flush to be a no-op, got %v", err)
	}
}

func counterValue(t *testing.T, gatherer prometheus.Gatherer, name string) float64 {
	t.Helper()

	families, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += counterOrZero(m)
		}
	}
	return total
}

func counterOrZero(m *dto.Metric) float64 {
	if c := m.GetCounter(); c != nil {
		return c.GetValue()
	}
	return 0
}
