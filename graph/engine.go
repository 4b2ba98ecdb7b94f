package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumenpay/invoiceflow/graph/emit"
	"github.com/lumenpay/invoiceflow/graph/store"
)

// contextKey is a private type used for context value keys to avoid collisions.
type contextKey string

// Context keys for propagating execution metadata to nodes.
const (
	// RunIDKey is the context key for the unique workflow run identifier.
	RunIDKey contextKey = "invoiceflow.run_id"

	// StepIDKey is the context key for the current execution step number.
	StepIDKey contextKey = "invoiceflow.step_id"

	// NodeIDKey is the context key for the current node identifier.
	NodeIDKey contextKey = "invoiceflow.node_id"

	// AttemptKey is the context key for the current retry attempt number (0-based).
	AttemptKey contextKey = "invoiceflow.attempt"
)

// Reducer is a function that merges a partial state update (delta) into the previous state.
//
// Reducers are responsible for deterministic state composition across the
// sequential stage graph. A reducer must be pure: same inputs always produce
// the same output, with no randomness or side effects.
//
// Example:
//
//	reducer := func(prev, delta WorkflowState) WorkflowState {
//	    if delta.Stage != "" {
//	        prev.Stage = delta.Stage
//	    }
//	    prev.History = append(prev.History, delta.History...)
//	    return prev
//	}
type Reducer[S any] func(prev, delta S) S

// Engine orchestrates stateful workflow execution with checkpointing support.
//
// A single workflow advances through one node at a time: invoice workflows
// never fan out into concurrent branches, so the Engine runs a simple
// sequential loop rather than a scheduler. It:
//   - Manages workflow graph topology (nodes and edges)
//   - Executes nodes one at a time, following explicit or edge-based routing
//   - Merges state updates via the reducer
//   - Persists state at each step via the store
//   - Emits observability events via the emitter
//   - Enforces per-node timeouts and an overall MaxSteps limit
//   - Supports checkpoint save/resume for human-in-the-loop pauses
//
// Type parameter S is the state type shared across the workflow.
//
// Example:
//
//	reducer := func(prev, delta MyState) MyState {
//	    if delta.Query != "" {
//	        prev.Query = delta.Query
//	    }
//	    prev.Steps++
//	    return prev
//	}
//
//	store := store.NewMemStore[MyState]()
//	emitter := emit.NewLogEmitter(os.Stdout, false)
//
//	engine := New(reducer, store, emitter, Options{MaxSteps: 100})
//	engine.Add("process", processNode)
//	engine.StartAt("process")
//
//	final, err := engine.Run(ctx, "run-001", MyState{Query: "hello"})
type Engine[S any] struct {
	mu sync.RWMutex

	reducer   Reducer[S]
	nodes     map[string]Node[S]
	edges     []Edge[S]
	startNode string
	store     store.Store[S]
	emitter   emit.Emitter
	opts      Options
}

// Options configures Engine execution behavior.
//
// Zero values are valid - the Engine will use sensible defaults.
type Options struct {
	// MaxSteps limits workflow execution to prevent infinite loops.
	// If 0, no limit is enforced (use with caution).
	//
	// Workflow loops (A -> B -> A) are supported via edge predicates or
	// explicit Goto routing. Use MaxSteps to prevent infinite loops when a
	// conditional exit is missing or misconfigured.
	//
	// When MaxSteps is exceeded, Run() returns EngineError with code "MAX_STEPS_EXCEEDED".
	MaxSteps int

	// DefaultNodeTimeout is the maximum execution time for nodes without
	// an explicit NodePolicy.Timeout. Default: 0 (no timeout).
	DefaultNodeTimeout time.Duration

	// RunWallClockBudget is the maximum total execution time for Run().
	// Set to 0 to disable (workflow runs until completion or MaxSteps).
	RunWallClockBudget time.Duration
}

// New creates a new Engine with the given configuration.
//
// Supports two configuration patterns:
//
// 1. Options struct:
//
//	engine := New(reducer, store, emitter, Options{MaxSteps: 100})
//
// 2. Functional options:
//
//	engine := New(
//	    reducer, store, emitter,
//	    WithMaxSteps(100),
//	    WithDefaultNodeTimeout(10*time.Second),
//	)
//
// Parameters:
//   - reducer: Function to merge partial state updates (required for Run)
//   - st: Persistence backend for state and checkpoints (required for Run)
//   - emitter: Observability event receiver (optional, can be nil)
//   - options: Configuration via Options struct or variadic Option functions
//
// The constructor does not validate all parameters to allow flexible
// initialization. Validation occurs when Run() is called.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, options ...interface{}) *Engine[S] {
	cfg := &engineConfig{opts: Options{}}

	for _, opt := range options {
		switch v := opt.(type) {
		case Options:
			cfg.opts = v
		case Option:
			_ = v(cfg)
		default:
			// Ignore unknown types for forward compatibility.
		}
	}

	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
		opts:    cfg.opts,
	}
}

// Add registers a node in the workflow graph.
//
// Nodes must be added before calling StartAt or Run. Node IDs must be
// unique within the workflow.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if e == nil {
		return &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{Message: "duplicate node ID: " + nodeID, Code: "DUPLICATE_NODE"}
	}

	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry point for workflow execution.
//
// The node must have been registered via Add() before calling StartAt.
func (e *Engine[S]) StartAt(nodeID string) error {
	if e == nil {
		return &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{Message: "start node does not exist: " + nodeID, Code: "NODE_NOT_FOUND"}
	}

	e.startNode = nodeID
	return nil
}

// Connect creates an edge between two nodes.
//
// Edges define possible transitions in the workflow graph. They can be
// unconditional (predicate is nil) or conditional. Node explicit routing
// via NodeResult.Route takes precedence over edges.
//
// Node existence is not validated (lazy validation) to allow flexible
// graph construction order.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if e == nil {
		return &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// Run executes the workflow from start to completion or error.
//
// Workflow execution:
//  1. Validates engine configuration (reducer, store, startNode)
//  2. Executes nodes one at a time starting from startNode
//  3. Follows explicit routing (Stop, Goto) or falls back to edges; a node
//     with no outgoing edges ends the run
//  4. Applies the reducer to merge each node's delta into current state
//  5. Persists state after each node
//  6. Emits observability events
//  7. Enforces MaxSteps and per-node timeouts
//  8. Respects context cancellation
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if e == nil {
		return zero, &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if e.reducer == nil {
		return zero, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return zero, &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	if e.startNode == "" {
		return zero, &EngineError{Message: "start node not set (call StartAt before Run)", Code: "NO_START_NODE"}
	}

	e.mu.RLock()
	_, exists := e.nodes[e.startNode]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{Message: "start node does not exist: " + e.startNode, Code: "NODE_NOT_FOUND"}
	}

	if e.opts.RunWallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RunWallClockBudget)
		defer cancel()
	}

	return e.runFrom(ctx, runID, e.startNode, initial, 0)
}

// ResumeFromCheckpoint resumes workflow execution from a saved checkpoint.
//
// This enables human-in-the-loop pauses: a node stops the workflow (Stop())
// while waiting on a review decision, the caller persists a checkpoint, and
// later calls ResumeFromCheckpoint with the node that should run next.
func (e *Engine[S]) ResumeFromCheckpoint(ctx context.Context, cpID string, newRunID string, startNode string) (S, error) {
	var zero S

	checkpointState, checkpointStep, err := e.store.LoadCheckpoint(ctx, cpID)
	if err != nil {
		return zero, &EngineError{Message: "cannot resume: checkpoint not found: " + err.Error(), Code: "CHECKPOINT_NOT_FOUND"}
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID:  newRunID,
			Step:   checkpointStep,
			NodeID: startNode,
			Msg:    "resuming from checkpoint: " + cpID,
			Meta: map[string]interface{}{
				"checkpoint_id":   cpID,
				"checkpoint_step": checkpointStep,
			},
		})
	}

	if e.reducer == nil {
		return zero, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return zero, &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	if startNode == "" {
		return zero, &EngineError{Message: "start node not specified for resume", Code: "NO_START_NODE"}
	}

	e.mu.RLock()
	_, exists := e.nodes[startNode]
	e.mu.RUnlock()
	if !exists {
		return zero, &EngineError{Message: "resume start node does not exist: " + startNode, Code: "NODE_NOT_FOUND"}
	}

	return e.runFrom(ctx, newRunID, startNode, checkpointState, checkpointStep)
}

// runFrom is the shared sequential execution loop used by both Run and
// ResumeFromCheckpoint. startStep is the step number already reached
// (0 for a fresh run, the checkpoint's step when resuming).
func (e *Engine[S]) runFrom(ctx context.Context, runID string, startNode string, initial S, startStep int) (S, error) {
	var zero S

	currentState := initial
	currentNode := startNode
	step := startStep

	for {
		step++

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return zero, &EngineError{Message: "workflow exceeded MaxSteps limit", Code: "MAX_STEPS_EXCEEDED"}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		e.mu.RUnlock()
		if !exists {
			return zero, &EngineError{Message: "node not found during execution: " + currentNode, Code: "NODE_NOT_FOUND"}
		}

		e.emitNodeStart(runID, currentNode, step-1)
		nodeStartedAt := time.Now()

		var policy *NodePolicy
		if policyProvider, ok := nodeImpl.(interface{ Policy() NodePolicy }); ok {
			p := policyProvider.Policy()
			policy = &p
		}

		result, timeoutErr := e.runNodeWithRetry(ctx, nodeImpl, currentNode, currentState, policy)
		if timeoutErr != nil {
			e.emitError(runID, currentNode, step-1, timeoutErr)
			return zero, timeoutErr
		}

		if result.Err != nil {
			e.emitError(runID, currentNode, step-1, result.Err)
			return zero, result.Err
		}

		currentState = e.reducer(currentState, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, currentNode, currentState); err != nil {
			return zero, &EngineError{Message: "failed to save step: " + err.Error(), Code: "STORE_ERROR"}
		}

		e.emitNodeEnd(runID, currentNode, step-1, result.Delta, float64(time.Since(nodeStartedAt).Milliseconds()))

		if result.Route.Terminal {
			e.emitRoutingDecision(runID, currentNode, step-1, map[string]interface{}{"terminal": true})
			return currentState, nil
		}

		if result.Route.To != "" {
			e.emitRoutingDecision(runID, currentNode, step-1, map[string]interface{}{"next_node": result.Route.To})
			currentNode = result.Route.To
			continue
		}

		nextNode := e.evaluateEdges(currentNode, currentState)
		if nextNode == "" {
			// A node with no outgoing edges ends the run; a node whose edges
			// all fail their predicates is a routing error.
			e.mu.RLock()
			hasEdges := false
			for _, edge := range e.edges {
				if edge.From == currentNode {
					hasEdges = true
					break
				}
			}
			e.mu.RUnlock()
			if !hasEdges {
				e.emitRoutingDecision(runID, currentNode, step-1, map[string]interface{}{"terminal": true})
				return currentState, nil
			}
			return zero, &EngineError{Message: "no valid route from node: " + currentNode, Code: "NO_ROUTE"}
		}

		e.emitRoutingDecision(runID, currentNode, step-1, map[string]interface{}{"next_node": nextNode, "via_edge": true})
		currentNode = nextNode
	}
}

// runNodeWithRetry executes a single node, applying its NodePolicy.Timeout
// and retrying per NodePolicy.RetryPolicy when the node returns a retryable
// error. Returns a non-nil timeoutErr only for timeouts; node errors (after
// retries are exhausted) are carried in the returned NodeResult.Err.
func (e *Engine[S]) runNodeWithRetry(ctx context.Context, node Node[S], nodeID string, state S, policy *NodePolicy) (NodeResult[S], error) {
	attempt := 0
	for {
		nodeCtx := context.WithValue(ctx, AttemptKey, attempt)
		result, timeoutErr := executeNodeWithTimeout(nodeCtx, node, nodeID, state, policy, e.opts.DefaultNodeTimeout)
		if timeoutErr != nil {
			return result, timeoutErr
		}
		if result.Err == nil {
			return result, nil
		}
		if policy == nil || policy.RetryPolicy == nil {
			return result, nil
		}

		retryPol := policy.RetryPolicy
		if err := retryPol.Validate(); err != nil {
			return NodeResult[S]{Err: fmt.Errorf("retry policy validation failed for node %s: %w", nodeID, err)}, nil
		}
		if retryPol.Retryable == nil || !retryPol.Retryable(result.Err) {
			return result, nil
		}
		if attempt+1 >= retryPol.MaxAttempts {
			return NodeResult[S]{Err: ErrMaxAttemptsExceeded}, nil
		}

		delay := computeBackoff(attempt, retryPol.BaseDelay, retryPol.MaxDelay, nil)
		select {
		case <-ctx.Done():
			return NodeResult[S]{Err: ctx.Err()}, nil
		case <-time.After(delay):
		}
		attempt++
	}
}

// evaluateEdges finds the first matching edge from the given node based on predicates.
//
// Evaluates outgoing edges in registration order: an unconditional edge
// (nil predicate) always matches; otherwise the first edge whose predicate
// returns true wins. Returns empty string if no edges match.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil {
			return edge.To
		}
		if edge.When(state) {
			return edge.To
		}
	}

	return ""
}

// SaveCheckpoint creates a named checkpoint for the most recent state of a run.
//
// The checkpoint captures the latest persisted state from the specified
// run, keyed by cpID (typically a checkpoint ID generated by the review
// store). Used to pause a workflow awaiting a human decision.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID string, cpID string) error {
	latestState, latestStep, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return &EngineError{Message: "cannot create checkpoint: run state not found: " + err.Error(), Code: "RUN_NOT_FOUND"}
	}

	if err := e.store.SaveCheckpoint(ctx, cpID, latestState, latestStep); err != nil {
		return &EngineError{Message: "failed to save checkpoint: " + err.Error(), Code: "CHECKPOINT_SAVE_FAILED"}
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID:  runID,
			Step:   latestStep,
			NodeID: "",
			Msg:    "checkpoint_saved",
			Meta:   map[string]interface{}{"checkpoint_id": cpID},
		})
	}

	return nil
}

func (e *Engine[S]) emitNodeStart(runID, nodeID string, step int) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_start"})
	}
}

func (e *Engine[S]) emitNodeEnd(runID, nodeID string, step int, delta S, durationMs float64) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: runID, Step: step, NodeID: nodeID, Msg: "node_end",
			Meta: map[string]interface{}{"delta": delta, "duration_ms": durationMs},
		})
	}
}

func (e *Engine[S]) emitError(runID, nodeID string, step int, err error) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: runID, Step: step, NodeID: nodeID, Msg: "error",
			Meta: map[string]interface{}{"error": err.Error()},
		})
	}
}

func (e *Engine[S]) emitRoutingDecision(runID, nodeID string, step int, meta map[string]interface{}) {
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "routing_decision", Meta: meta})
	}
}

// EngineError represents an error from Engine operations.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
