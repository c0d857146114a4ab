// Package pipeline implements assembly (spec §4.8) and the embedding
// API (spec §6.5): "a function that takes a parsed pipeline plus a
// diagnostic sink and returns an executable pipeline handle, and a
// function that drives execution to completion or cancels it." There is
// deliberately no CLI here, matching spec §6.5's "the engine itself has
// no CLI".
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tenzir/pipeline-core/pkg/tenzir/control"
	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
	"github.com/tenzir/pipeline-core/pkg/tenzir/optimize"
	"github.com/tenzir/pipeline-core/pkg/tenzir/scheduler"
)

// Definition is one parsed operator reference (spec §6.1): a plugin name
// plus its structurally typed arguments, as handed over by the (external)
// parser.
type Definition struct {
	PluginName string
	Arguments  operator.Arguments
}

// Pipeline is an assembled, executable pipeline handle (spec §4.8 step
// 5). Construct one with Assemble; it is single-use, matching
// scheduler.Scheduler.
type Pipeline struct {
	ops      []operator.Operator
	sched    *scheduler.Scheduler
	fragment bool
}

// Options configures Assemble's collaborators. Bus is required; the
// rest default sensibly (a no-op meter, no secret resolver, a no-op
// logger) so a minimal embedding caller need only supply a Bus.
type Options struct {
	Bus      *diagnostic.Bus
	Metrics  *control.MetricsPublisher
	Resolver control.SecretResolver
	Logger   *zap.Logger
}

// Assemble performs spec §4.8's five assembly steps: resolve every
// Definition against registry, type-check the chain end-to-end,
// optimize it, determine standalone-vs-fragment, and bind every
// operator to its control-plane handle (which also instantiates each
// operator's generator — spec §4.4: instantiation failure here aborts
// the whole assembly with no partial side effects).
func Assemble(ctx context.Context, defs []Definition, registry *operator.Registry, opts Options) (*Pipeline, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("pipeline: empty operator list")
	}
	if opts.Bus == nil {
		return nil, fmt.Errorf("pipeline: Options.Bus is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = control.NewMetricsPublisher(nil)
	}

	ops := make([]operator.Operator, 0, len(defs))
	for _, def := range defs {
		op, err := registry.Build(def.PluginName, def.Arguments)
		if err != nil {
			return nil, fmt.Errorf("pipeline: build %q: %w", def.PluginName, err)
		}
		ops = append(ops, op)
	}

	if err := typeCheck(ops); err != nil {
		return nil, err
	}

	ops = optimize.Optimize(ops)

	fragment := ops[0].InputType() != operator.Void

	sched, err := scheduler.New(ctx, ops, opts.Bus, opts.Metrics, opts.Resolver, opts.Logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{ops: ops, sched: sched, fragment: fragment}, nil
}

// typeCheck verifies spec §4.8 step 1: each operator's declared output
// type must match the next operator's declared input type.
func typeCheck(ops []operator.Operator) error {
	for i := 1; i < len(ops); i++ {
		prev, cur := ops[i-1], ops[i]
		if prev.OutputType() != cur.InputType() {
			return fmt.Errorf("pipeline: type mismatch between %q (%s) and %q (%s)",
				prev.Name(), prev.OutputType(), cur.Name(), cur.InputType())
		}
	}
	return nil
}

// IsFragment reports whether this pipeline's head does not consume void
// — i.e. it is not a standalone, independently runnable pipeline (spec
// §4.8 step 3).
func (p *Pipeline) IsFragment() bool { return p.fragment }

// Operators exposes the assembled (post-optimization) operator chain,
// for the explain renderer and tests.
func (p *Pipeline) Operators() []operator.Operator { return p.ops }

// Run drives the pipeline to completion (spec §6.5's "drives execution
// to completion"). Blocks until the sink reaches EOF, an operator
// raises an Error diagnostic, or the pipeline is cancelled.
func (p *Pipeline) Run() error {
	return p.sched.Run()
}

// Cancel requests pipeline shutdown (spec §6.5's "or cancels it").
func (p *Pipeline) Cancel() {
	p.sched.Cancel()
}
