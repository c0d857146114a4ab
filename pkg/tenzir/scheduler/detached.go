package scheduler

import (
	"context"

	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
)

// detachedGenerator runs an operator's Next() loop on a dedicated
// goroutine rather than inline in the caller's pull chain, the way the
// teacher dedicates a reader goroutine to each stream rather than
// calling into it synchronously from the exporter's request path
// (collector/gen/exporter/otlpexporter/internal/arrow/stream.go). This
// is what lets a detached operator (spec §4.3 point 4: "an operator
// that does its own I/O scheduling, e.g. a network listener") block
// indefinitely in its own Next() without stalling every other stage's
// pull, since in this scheduler pulling is otherwise plain nested
// function calls on one goroutine.
type detachedGenerator struct {
	out  chan result
	done chan struct{}
}

type result struct {
	el  operator.Element
	ok  bool
	err error
}

func newDetachedGenerator(ctx context.Context, inner operator.Generator) *detachedGenerator {
	d := &detachedGenerator{
		out:  make(chan result, 1),
		done: make(chan struct{}),
	}
	go d.run(ctx, inner)
	return d
}

func (d *detachedGenerator) run(ctx context.Context, inner operator.Generator) {
	defer close(d.done)
	for {
		el, ok, err := inner.Next(ctx)
		select {
		case d.out <- result{el: el, ok: ok, err: err}:
		case <-ctx.Done():
			return
		}
		if !ok || err != nil {
			return
		}
	}
}

func (d *detachedGenerator) Next(ctx context.Context) (operator.Element, bool, error) {
	select {
	case r := <-d.out:
		return r.el, r.ok, r.err
	case <-ctx.Done():
		return operator.Element{}, false, ctx.Err()
	}
}
