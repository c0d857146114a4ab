package scheduler

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
)

// pacedGenerator decorates an operator's raw Generator with the
// scheduler's demand-settings and idle_after enforcement (spec §4.4):
// it is the one place backoff escalation and idle kicks live, so
// individual operators never implement pacing themselves. Wrapping one
// stage's generator before handing it to the next stage's Instantiate
// is what realizes "the scheduler pulls from the last operator backward"
// purely through ordinary nested Next() calls.
type pacedGenerator struct {
	inner operator.Generator
	diag  diagnostic.Handle

	demand           operator.DemandSettings
	idleAfter        time.Duration
	inputIndependent bool
	name             string

	currentBackoff time.Duration
	warnedOnce     bool
}

func newPacedGenerator(inner operator.Generator, op operator.Operator, diag diagnostic.Handle) *pacedGenerator {
	return &pacedGenerator{
		inner:            inner,
		diag:             diag,
		demand:           op.Demand(),
		idleAfter:        op.IdleAfter(),
		inputIndependent: op.InputIndependent(),
		name:             op.Name(),
	}
}

func isEmpty(el operator.Element) bool {
	switch el.Type {
	case operator.Events, operator.Metrics:
		return el.Batch.Rows() == 0
	case operator.Bytes:
		return len(el.Bytes) == 0
	default: // Void
		return true
	}
}

// Next pulls inner until it produces non-empty output, EOF, or an error,
// sleeping between empty pulls per the operator's DemandSettings and
// escalating geometrically, capped at min(idle_after, max_backoff) per
// spec §4.4's combination rule (and SPEC_FULL.md's resolution of the
// idle_after/tune open question: idle_after is a hard upper bound).
func (p *pacedGenerator) Next(ctx context.Context) (operator.Element, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return operator.Element{}, false, err
		}

		el, ok, err := p.inner.Next(ctx)
		if err != nil {
			return el, ok, err
		}
		if !ok {
			return el, false, nil
		}
		if !isEmpty(el) {
			p.currentBackoff = 0
			p.warnedOnce = false
			return el, true, nil
		}

		cap := p.demand.MaxBackoff
		if p.idleAfter > 0 && p.idleAfter < cap {
			cap = p.idleAfter
		}
		if p.currentBackoff <= 0 {
			p.currentBackoff = p.demand.MinBackoff
		}
		sleepFor := p.currentBackoff
		if sleepFor > cap {
			sleepFor = cap
		}

		if sleepFor > 0 {
			timer := time.NewTimer(sleepFor)
			select {
			case <-ctx.Done():
				timer.Stop()
				return operator.Element{}, false, ctx.Err()
			case <-timer.C:
			}
		}

		next := time.Duration(float64(p.currentBackoff) * p.demand.BackoffRate)
		if next > cap {
			next = cap
		}
		p.currentBackoff = next

		if p.idleAfter > 0 && sleepFor >= p.idleAfter && !p.inputIndependent {
			if !p.warnedOnce {
				p.warnedOnce = true
				p.diag.Emit(diagnostic.New(diagnostic.Warning,
					"operator "+p.name+" idle for "+humanize.RelTime(time.Now().Add(-p.idleAfter), time.Now(), "", "")+
						" with no progress; kicking").Build())
				continue
			}
			p.diag.Emit(diagnostic.New(diagnostic.Error,
				"operator "+p.name+" made no progress after a second idle_after kick; cancelling pipeline").Build())
			return operator.Element{}, false, errIdleTimeout(p.name)
		}
	}
}

type errIdleTimeout string

func (e errIdleTimeout) Error() string {
	return "scheduler: operator " + string(e) + " exceeded idle_after with no progress"
}
