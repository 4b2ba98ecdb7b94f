// Package graph provides the core graph execution engine for InvoiceFlow.
package graph

import "errors"

// ErrMaxStepsExceeded indicates that the graph execution reached the maximum
// allowed step count without completing. This prevents infinite loops and
// runaway executions.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrMaxAttemptsExceeded is returned when a node fails more times than allowed
// by its NodePolicy.RetryPolicy.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// ErrInvalidRetryPolicy is returned by RetryPolicy.Validate when the policy's
// configuration is internally inconsistent (e.g. MaxDelay < BaseDelay).
var ErrInvalidRetryPolicy = errors.New("invalid retry policy configuration")
