package graph

import (
	"context"
	"testing"

	"github.com/lumenpay/invoiceflow/graph/emit"
	"github.com/lumenpay/invoiceflow/graph/store"
)

type testState struct {
	Visited []string
	Counter int
}

func testReducer(prev, delta testState) testState {
	if delta.Visited != nil {
		prev.Visited = append(prev.Visited, delta.Visited...)
	}
	if delta.Counter != 0 {
		prev.Counter = delta.Counter
	}
	return prev
}

func visitNode(id string) NodeFunc[testState] {
	return func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Visited: []string{id}}}
	}
}

func TestEngine_RunWalksLinearGraph(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New[testState](testReducer, st, emit.NewLogEmitter(discard{}, false), Options{MaxSteps: 10})

	mustAdd(t, e, "a", visitNode("a"))
	mustAdd(t, e, "b", visitNode("b"))
	mustAdd(t, e, "c", visitNode("c"))

	if err := e.StartAt("a"); err != nil {
		t.Fatalf("StartAt failed: %v", err)
	}
	if err := e.Connect("a", "b", nil); err != nil {
		t.Fatalf("Connect a->b failed: %v", err)
	}
	if err := e.Connect("b", "c", nil); err != nil {
		t.Fatalf("Connect b->c failed: %v", err)
	}

	final, err := e.Run(context.Background(), "run1", testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(final.Visited) != 3 || final.Visited[0] != "a" || final.Visited[2] != "c" {
		t.Errorf("expected visit order [a b c], got %v", final.Visited)
	}
}

func TestEngine_ConditionalEdgeFirstMatchWins(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New[testState](testReducer, st, emit.NewLogEmitter(discard{}, false))

	mustAdd(t, e, "start", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Counter: 5}}
	}))
	mustAdd(t, e, "low", visitNode("low"))
	mustAdd(t, e, "high", visitNode("high"))

	_ = e.StartAt("start")
	if err := e.Connect("start", "low", func(s testState) bool { return s.Counter < 10 }); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := e.Connect("start", "high", func(s testState) bool { return s.Counter >= 0 }); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	final, err := e.Run(context.Background(), "run2", testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(final.Visited) != 1 || final.Visited[0] != "low" {
		t.Errorf("expected only 'low' visited (first matching edge wins), got %v", final.Visited)
	}
}

func TestEngine_ExplicitRouteOverridesEdges(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New[testState](testReducer, st, emit.NewLogEmitter(discard{}, false))

	mustAdd(t, e, "start", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Visited: []string{"start"}}, Route: Goto("c")}
	}))
	mustAdd(t, e, "b", visitNode("b"))
	mustAdd(t, e, "c", visitNode("c"))

	_ = e.StartAt("start")
	_ = e.Connect("start", "b", nil)

	final, err := e.Run(context.Background(), "run3", testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(final.Visited) != 2 || final.Visited[1] != "c" {
		t.Errorf("expected explicit Goto to route to 'c' instead of the 'b' edge, got %v", final.Visited)
	}
}

func TestEngine_StopTerminatesRunImmediately(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New[testState](testReducer, st, emit.NewLogEmitter(discard{}, false))

	mustAdd(t, e, "start", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Visited: []string{"start"}}, Route: Stop()}
	}))
	mustAdd(t, e, "never", visitNode("never"))
	_ = e.StartAt("start")
	_ = e.Connect("start", "never", nil)

	final, err := e.Run(context.Background(), "run4", testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(final.Visited) != 1 || final.Visited[0] != "start" {
		t.Errorf("expected Stop() to end the run at 'start', got %v", final.Visited)
	}
}

func TestEngine_SaveAndResumeFromCheckpoint(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New[testState](testReducer, st, emit.NewLogEmitter(discard{}, false))

	mustAdd(t, e, "a", visitNode("a"))
	mustAdd(t, e, "pause", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Visited: []string{"pause"}}, Route: Stop()}
	}))
	mustAdd(t, e, "resume", visitNode("resume"))

	_ = e.StartAt("a")
	_ = e.Connect("a", "pause", nil)
	_ = e.Connect("pause", "resume", nil)

	if _, err := e.Run(context.Background(), "run5", testState{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := e.SaveCheckpoint(context.Background(), "run5", "cp1"); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	final, err := e.ResumeFromCheckpoint(context.Background(), "cp1", "run5-resumed", "resume")
	if err != nil {
		t.Fatalf("ResumeFromCheckpoint failed: %v", err)
	}
	if len(final.Visited) != 3 || final.Visited[2] != "resume" {
		t.Errorf("expected resumed run to append 'resume' onto the checkpointed state, got %v", final.Visited)
	}
}

func TestEngine_MaxStepsExceeded(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New[testState](testReducer, st, emit.NewLogEmitter(discard{}, false), Options{MaxSteps: 2})

	mustAdd(t, e, "loop", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Counter: s.Counter + 1}, Route: Goto("loop")}
	}))
	_ = e.StartAt("loop")

	_, err := e.Run(context.Background(), "run6", testState{})
	if err == nil {
		t.Fatal("expected Run to fail once MaxSteps is exceeded")
	}
}

func mustAdd(t *testing.T, e *Engine[testState], id string, n Node[testState]) {
	t.Helper()
	if err := e.Add(id, n); err != nil {
		t.Fatalf("Add(%s) failed: %v", id, err)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
