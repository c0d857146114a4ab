// Package optimize implements the assembly-time rewrite pass (spec
// §4.7): predicate push-down, order-invariance propagation, and
// wrap-through all fall out of one mechanical left-to-right application
// of each operator's own Optimize method, since the core deliberately
// does not interpret predicate or operator structure itself (spec
// §4.7's filter is opaque to everything except the operator that built
// it). Grounded on the teacher's own preference for a single
// straight-line configuration pass over ops (pkg/air/config.NewDefaultConfig
// feeding every RecordRepository the same way) rather than a multi-pass
// rule engine.
package optimize

import (
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
)

// Optimize applies spec §4.8 assembly step 2 — "apply
// optimize(trivially_true, ordered) left-to-right, collapsing
// replacements" — and returns the rewritten operator list. The input
// slice is never mutated.
func Optimize(ops []operator.Operator) []operator.Operator {
	out := make([]operator.Operator, len(ops))
	filter := operator.Filter(operator.TrivialFilter{})
	order := operator.Order(operator.Ordered)

	for i, op := range ops {
		result := op.Optimize(filter, order)
		next := op
		if result.Replacement != nil {
			next = result.Replacement
		}
		out[i] = next
		if result.Residual != nil {
			filter = result.Residual
		} else {
			filter = operator.TrivialFilter{}
		}
		order = result.Order
	}
	return out
}
