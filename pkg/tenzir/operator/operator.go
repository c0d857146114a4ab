// Package operator defines the contract every pipeline node implements
// (spec §4.3), generalizing the teacher's plugin-factory pattern
// (collector/cmd/otelarrowcol/components.go builds a component.Factories
// table keyed by plugin name) from OTel's three fixed signal types to the
// engine's schema-generic element types.
package operator

import (
	"context"
	"time"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
)

// ElementType is the coarse type label carried by a pipeline edge (spec
// §3.4).
type ElementType uint8

const (
	Void ElementType = iota
	Bytes
	Events
	Metrics
)

func (e ElementType) String() string {
	switch e {
	case Void:
		return "void"
	case Bytes:
		return "bytes"
	case Events:
		return "events"
	case Metrics:
		return "metrics"
	default:
		return "unknown"
	}
}

// Location is the scheduler placement hint an operator declares (spec
// §4.3 point 3).
type Location uint8

const (
	Anywhere Location = iota
	Local
	Remote
)

// DemandSettings is the producer-side batching policy (spec §4.3 point
// 8).
type DemandSettings struct {
	MinElements  int
	MaxElements  int
	MaxBatches   int
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	BackoffRate  float64
}

// DefaultDemandSettings mirrors the engine's stock tuning: start at a
// 10ms backoff, double on successive empty pulls, cap at one second —
// sized the same way the teacher's batch processor times out an
// in-flight batch (collector/processor/batchprocessor).
func DefaultDemandSettings() DemandSettings {
	return DemandSettings{
		MinElements: 1,
		MaxElements: 8192,
		MaxBatches:  1,
		MinBackoff:  10 * time.Millisecond,
		MaxBackoff:  1 * time.Second,
		BackoffRate: 2.0,
	}
}

// Element is the payload that crosses a pipeline edge: exactly one of
// its fields is meaningful, selected by Type.
type Element struct {
	Type  ElementType
	Batch batch.Batch // valid when Type == Events or Type == Metrics
	Bytes []byte      // valid when Type == Bytes
}

// Order describes whether a transformer's output preserves row order
// relative to its input (spec §4.7, rewrite rule 2).
type Order uint8

const (
	Ordered Order = iota
	Unordered
)

// Filter is an opaque predicate handed between operators during
// optimization (spec §4.7). The core does not interpret predicate
// structure — that belongs to the where/select operator library, out of
// scope per spec §1 — it only threads Filter through OptimizeResult.
type Filter interface {
	// TriviallyTrue reports whether this filter matches every row,
	// the identity element optimize() is seeded with during assembly
	// (spec §4.8 step 2).
	TriviallyTrue() bool
}

// TrivialFilter is the identity Filter used to seed assembly-time
// optimization.
type TrivialFilter struct{}

func (TrivialFilter) TriviallyTrue() bool { return true }

// OptimizeResult is what Optimize returns (spec §4.7).
type OptimizeResult struct {
	// Replacement, if non-nil, supersedes the operator that produced
	// this result.
	Replacement Operator
	// Residual is the filter the caller must still apply itself.
	Residual Filter
	// Order is the order the replacement promises to preserve.
	Order Order
}

// Control is the subset of the control-plane handle (package control)
// that Instantiate needs; declared here so that package operator does
// not depend on package control. *control.Handle satisfies it.
type Control interface {
	Context() context.Context
	ShutdownRequested() bool
	SetWaiting(bool)
}

// Generator is what Instantiate returns: a pull-based coroutine shape
// expressed as an interface with a blocking Next, since Go has no native
// generator/yield
// (spec §9: "Actor-style message passing for operator I/O... model
// operators as coroutines with explicit yield and an awaitable control
// plane"). Next blocks until an output Element is ready, the operator is
// done (ok == false), or ctx is cancelled.
type Generator interface {
	// Next produces the next output Element. ok is false exactly once,
	// on generator termination (the operator's EOF); after that Next
	// must not be called again.
	Next(ctx context.Context) (el Element, ok bool, err error)
}

// Operator is the contract every pipeline node implements (spec §4.3).
type Operator interface {
	Name() string
	InputType() ElementType
	OutputType() ElementType
	Location() Location
	Detached() bool
	Internal() bool
	InputIndependent() bool
	IdleAfter() time.Duration
	Demand() DemandSettings

	// Optimize offers filter/order to this operator during assembly-time
	// rewriting (spec §4.7).
	Optimize(filter Filter, order Order) OptimizeResult

	// Instantiate starts this operator's execution coroutine against
	// input (nil for a source) and the given control-plane handle.
	Instantiate(input Generator, ctl Control) (Generator, error)
}
