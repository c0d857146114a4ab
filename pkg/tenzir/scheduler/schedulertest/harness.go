// Package schedulertest provides deterministic test doubles for
// exercising the scheduler without depending on wall-clock sleeps,
// mirroring how the teacher's internal/testutil/metrics_test_utils.go
// stubs out OTel-SDK collection points rather than sleeping in
// assertions on timer-driven code.
package schedulertest

import (
	"context"
	"time"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

// ScriptedOperator replays a fixed sequence of Elements (and, optionally,
// a trailing error) regardless of what it is fed as input, so tests can
// assert exact scheduler behavior (pacing, idle kicks, cancellation)
// against known output instead of a live data-producing operator.
type ScriptedOperator struct {
	NameStr      string
	Script       []operator.Element
	FailAfter    int // -1 disables
	FailWith     error
	DemandPolicy operator.DemandSettings
	Idle         time.Duration
	Independent  bool
	IsDetached   bool
}

// NewSource builds a ScriptedOperator with zero backoff, suitable as a
// pipeline's first stage: Instantiate ignores its (nil) input and simply
// replays Script.
func NewSource(name string, script ...operator.Element) *ScriptedOperator {
	return &ScriptedOperator{
		NameStr:      name,
		Script:       script,
		FailAfter:    -1,
		DemandPolicy: operator.DemandSettings{MinBackoff: 0, MaxBackoff: 0, BackoffRate: 1},
	}
}

func (s *ScriptedOperator) Name() string                 { return s.NameStr }
func (s *ScriptedOperator) InputType() operator.ElementType  { return operator.Void }
func (s *ScriptedOperator) OutputType() operator.ElementType { return operator.Events }
func (s *ScriptedOperator) Location() operator.Location  { return operator.Anywhere }
func (s *ScriptedOperator) Detached() bool               { return s.IsDetached }
func (s *ScriptedOperator) Internal() bool                { return false }
func (s *ScriptedOperator) InputIndependent() bool        { return s.Independent }
func (s *ScriptedOperator) IdleAfter() time.Duration      { return s.Idle }
func (s *ScriptedOperator) Demand() operator.DemandSettings { return s.DemandPolicy }

func (s *ScriptedOperator) Optimize(filter operator.Filter, order operator.Order) operator.OptimizeResult {
	return operator.OptimizeResult{Residual: filter, Order: order}
}

func (s *ScriptedOperator) Instantiate(input operator.Generator, ctl operator.Control) (operator.Generator, error) {
	return &scriptedGenerator{script: s.Script, failAfter: s.FailAfter, failWith: s.FailWith}, nil
}

type scriptedGenerator struct {
	script    []operator.Element
	pos       int
	failAfter int
	failWith  error
}

func (g *scriptedGenerator) Next(ctx context.Context) (operator.Element, bool, error) {
	if ctx.Err() != nil {
		return operator.Element{}, false, ctx.Err()
	}
	if g.failAfter >= 0 && g.pos == g.failAfter {
		return operator.Element{}, false, g.failWith
	}
	if g.pos >= len(g.script) {
		return operator.Element{}, false, nil
	}
	el := g.script[g.pos]
	g.pos++
	return el, true, nil
}

// EmptyEvents builds a zero-row Events Element, the canonical "no
// progress this tick" output used to exercise idle_after escalation.
func EmptyEvents() operator.Element {
	return operator.Element{Type: operator.Events, Batch: batch.Empty(types.NewRecord(nil))}
}
