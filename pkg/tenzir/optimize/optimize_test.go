package optimize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
	"github.com/tenzir/pipeline-core/pkg/tenzir/optimize"
)

// countingFilter lets a test assert exactly what filter each operator
// received.
type countingFilter struct{ n int }

func (countingFilter) TriviallyTrue() bool { return false }

type recordingOperator struct {
	name         string
	receivedType operator.Filter
	receivedOrder operator.Order
	replacement  operator.Operator
	residual     operator.Filter
	order        operator.Order
}

func (r *recordingOperator) Name() string                  { return r.name }
func (r *recordingOperator) InputType() operator.ElementType  { return operator.Events }
func (r *recordingOperator) OutputType() operator.ElementType { return operator.Events }
func (r *recordingOperator) Location() operator.Location    { return operator.Anywhere }
func (r *recordingOperator) Detached() bool                 { return false }
func (r *recordingOperator) Internal() bool                 { return false }
func (r *recordingOperator) InputIndependent() bool         { return false }
func (r *recordingOperator) IdleAfter() time.Duration       { return 0 }
func (r *recordingOperator) Demand() operator.DemandSettings { return operator.DefaultDemandSettings() }
func (r *recordingOperator) Instantiate(input operator.Generator, ctl operator.Control) (operator.Generator, error) {
	return nil, nil
}
func (r *recordingOperator) Optimize(filter operator.Filter, order operator.Order) operator.OptimizeResult {
	r.receivedType = filter
	r.receivedOrder = order
	res := operator.OptimizeResult{Residual: r.residual, Order: r.order}
	if r.replacement != nil {
		res.Replacement = r.replacement
	}
	return res
}

func TestOptimizeThreadsFilterAndOrderLeftToRight(t *testing.T) {
	seeded := countingFilter{n: 1}
	first := &recordingOperator{name: "a", residual: seeded, order: operator.Unordered}
	second := &recordingOperator{name: "b", residual: operator.TrivialFilter{}, order: operator.Ordered}

	out := optimize.Optimize([]operator.Operator{first, second})
	require.Len(t, out, 2)

	assert.True(t, first.receivedType.(operator.TrivialFilter) == operator.TrivialFilter{})
	assert.Equal(t, seeded, second.receivedType)
	assert.Equal(t, operator.Ordered, first.receivedOrder)
	assert.Equal(t, operator.Unordered, second.receivedOrder)
}

func TestOptimizeCollapsesReplacement(t *testing.T) {
	replacement := &recordingOperator{name: "replaced"}
	op := &recordingOperator{name: "original", replacement: replacement, residual: operator.TrivialFilter{}}

	out := optimize.Optimize([]operator.Operator{op})
	require.Len(t, out, 1)
	assert.Same(t, replacement, out[0])
}

func TestOptimizeIsIdempotent(t *testing.T) {
	op := &recordingOperator{name: "stable", residual: operator.TrivialFilter{}, order: operator.Ordered}
	once := optimize.Optimize([]operator.Operator{op})
	twice := optimize.Optimize(once)
	assert.Equal(t, once[0].(*recordingOperator).name, twice[0].(*recordingOperator).name)
}
