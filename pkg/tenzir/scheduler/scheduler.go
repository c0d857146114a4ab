// Package scheduler implements the pipeline executor (spec §4.4): it
// instantiates every operator in order, wires each one's output as the
// next one's input, and drives the chain to completion by repeatedly
// pulling the sink. Backoff, idle_after kicks, and detached-worker
// dispatch live here rather than in individual operators, grounded on
// how the teacher centralizes batching/timeout policy in
// collector/processor/batchprocessor rather than pushing it into every
// processor, and on the reader/writer goroutine-pair-with-channels idiom
// of collector/gen/exporter/otlpexporter/internal/arrow/stream.go.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tenzir/pipeline-core/pkg/tenzir/control"
	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
)

// stage is one instantiated operator in the pipeline's linear chain.
type stage struct {
	op     operator.Operator
	handle *control.Handle
	gen    operator.Generator // paced, and detached-wrapped if applicable
}

// Scheduler drives one pipeline run. It is single-use: construct one per
// run with New, call Run once, and discard it.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	bus    *diagnostic.Bus
	logger *zap.Logger
	stages []*stage
}

// New instantiates every operator in ops in order, wiring stage i's
// (paced, and detached-wrapped) generator as stage i+1's input, exactly
// as spec §4.8 step 3 describes assembly: "bind each operator's output
// as the next operator's input". Operator instantiation failure aborts
// the whole run with no partial side effects (spec §4.4): on a later
// operator's failure, already-built stages are cancelled and the
// scheduler calls no Next() on any of them; a detached stage's worker
// goroutine, started at instantiation, may already have called its
// operator's Next before that cancel.
func New(
	ctx context.Context,
	ops []operator.Operator,
	bus *diagnostic.Bus,
	metrics *control.MetricsPublisher,
	resolver control.SecretResolver,
	logger *zap.Logger,
) (*Scheduler, error) {
	if len(ops) == 0 {
		return nil, errors.New("scheduler: pipeline has no operators")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Scheduler{ctx: runCtx, cancel: cancel, bus: bus, logger: logger}
	bus.SetSignal(s)

	var input operator.Generator
	for i, op := range ops {
		h := control.NewHandle(runCtx, op.Name(), i, bus, metrics, resolver, logger)
		gen, err := op.Instantiate(input, h)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("scheduler: instantiate %q: %w", op.Name(), err)
		}
		if op.Detached() {
			gen = newDetachedGenerator(runCtx, gen)
		}
		wrapped := newPacedGenerator(gen, op, h.Diagnostics())
		s.stages = append(s.stages, &stage{op: op, handle: h, gen: wrapped})
		input = wrapped
	}
	return s, nil
}

// SignalError implements diagnostic.ErrorSignal: an Error-severity
// diagnostic from any operator cancels the whole run at its next
// suspension point (spec §4.4), realized here by cancelling the shared
// context every stage's Next() observes.
func (s *Scheduler) SignalError(operatorName string, d diagnostic.Diagnostic) {
	s.logger.Error("operator raised error diagnostic, cancelling pipeline",
		zap.String("operator", operatorName), zap.String("message", d.Message))
	s.cancel()
}

// Cancel requests pipeline shutdown. Safe to call concurrently with Run,
// any number of times, from outside the run (spec §4.4: "cancellation
// flows downstream from the sink or sideways from a supervisor").
func (s *Scheduler) Cancel() {
	s.cancel()
}

// Run drives the pipeline to completion by pulling the sink operator
// until it reports EOF, an error, or the run is cancelled. It returns
// nil on a clean finish or clean cancellation, or the combined error
// otherwise (spec §4.4: every Error diagnostic raised during the run is
// folded into the returned error via the bus's CombinedError).
func (s *Scheduler) Run() error {
	sink := s.stages[len(s.stages)-1]
	for {
		_, ok, err := sink.gen.Next(s.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			s.cancel()
			return multierr.Append(err, s.bus.CombinedError())
		}
		if !ok {
			break
		}
	}
	return s.bus.CombinedError()
}

// Stages exposes the instantiated operator handles in pipeline order,
// for tooling (the explain renderer, tests) that needs to inspect
// per-operator control-plane state without re-running the pipeline.
func (s *Scheduler) Stages() []*control.Handle {
	handles := make([]*control.Handle, len(s.stages))
	for i, st := range s.stages {
		handles[i] = st.handle
	}
	return handles
}
