// Package graph provides the core graph execution engine for InvoiceFlow.
package graph

import "time"

// Option is a functional option for configuring an Engine.
//
// Functional options provide a clean, extensible API for engine configuration:
// - Chainable: engine := New(reducer, store, emitter, WithMaxSteps(100), WithDefaultNodeTimeout(10*time.Second)).
// - Self-documenting: Option names clearly describe their purpose.
// - Optional: Only specify the configuration you need.
//
// Options can be mixed with the Options struct:
//
//	opts := graph.Options{MaxSteps: 100}
//	engine := graph.New(reducer, store, emitter, opts, graph.WithDefaultNodeTimeout(10*time.Second))
type Option func(*engineConfig) error

// engineConfig is an internal struct used to collect options before applying them to an Engine.
type engineConfig struct {
	opts Options
}

// WithMaxSteps limits workflow execution to prevent infinite loops.
//
// Default: 0 (no limit, use with caution).
//
// Workflow loops (A → B → A) are fully supported. Use MaxSteps to prevent
// infinite loops when a conditional exit is missing or misconfigured.
//
// When MaxSteps is exceeded, Run() returns an EngineError with code "MAX_STEPS_EXCEEDED".
//
// Example:
//
//	engine := graph.New(
//	    reducer, store, emitter,
//	    graph.WithMaxSteps(100),
//	)
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.MaxSteps = n
		return nil
	}
}

// WithDefaultNodeTimeout sets the maximum execution time for nodes without explicit Policy().Timeout.
//
// Default: 0 (no timeout). Individual nodes can override via NodePolicy.Timeout.
//
// Prevents a single slow ability call from blocking workflow progress indefinitely.
// When exceeded, the node's context is cancelled and Run() returns an
// EngineError with code "NODE_TIMEOUT".
//
// Example:
//
//	engine := graph.New(
//	    reducer, store, emitter,
//	    graph.WithDefaultNodeTimeout(10*time.Second),
//	)
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.DefaultNodeTimeout = d
		return nil
	}
}

// WithRunWallClockBudget sets the maximum total execution time for Run().
//
// Default: 0 (disabled). If exceeded, Run() returns context.DeadlineExceeded.
//
// Example:
//
//	engine := graph.New(
//	    reducer, store, emitter,
//	    graph.WithRunWallClockBudget(5*time.Minute),
//	)
func WithRunWallClockBudget(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.RunWallClockBudget = d
		return nil
	}
}
