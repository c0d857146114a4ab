package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/control"
	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
	"github.com/tenzir/pipeline-core/pkg/tenzir/scheduler"
	"github.com/tenzir/pipeline-core/pkg/tenzir/scheduler/schedulertest"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

func rowBatch(rows int) operator.Element {
	schema := types.NewRecord([]types.Field{{Name: "n", Type: types.New(types.Int64)}})
	b := batch.NewBuilder(schema, nil)
	for i := 0; i < rows; i++ {
		b.Field(0).(*array.Int64Builder).Append(int64(i))
	}
	return operator.Element{Type: operator.Events, Batch: b.NewBatch()}
}

func TestRunDrivesSourceToCompletion(t *testing.T) {
	src := schedulertest.NewSource("gen", rowBatch(1), rowBatch(1))
	bus := diagnostic.NewBus(nil, nil)
	s, err := scheduler.New(context.Background(), []operator.Operator{src}, bus, control.NewMetricsPublisher(nil), nil, nil)
	require.NoError(t, err)

	err = s.Run()
	require.NoError(t, err)
}

func TestRunPropagatesOperatorError(t *testing.T) {
	boom := errors.New("boom")
	src := &schedulertest.ScriptedOperator{
		NameStr:  "broken",
		Script:   []operator.Element{rowBatch(1)},
		FailAfter: 1,
		FailWith:  boom,
	}
	bus := diagnostic.NewBus(nil, nil)
	s, err := scheduler.New(context.Background(), []operator.Operator{src}, bus, control.NewMetricsPublisher(nil), nil, nil)
	require.NoError(t, err)

	err = s.Run()
	require.Error(t, err)
}

func TestCancelStopsARunningPipeline(t *testing.T) {
	infinite := &schedulertest.ScriptedOperator{
		NameStr:      "idle-forever",
		Script:       []operator.Element{schedulertest.EmptyEvents()},
		FailAfter:    -1,
		DemandPolicy: operator.DemandSettings{MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffRate: 1},
	}
	// A ScriptedOperator whose script is exhausted returns ok=false, so
	// feed it enough empty elements (1000) to outlast the test.
	infinite.Script = repeatEmpty(1000)

	bus := diagnostic.NewBus(nil, nil)
	s, err := scheduler.New(context.Background(), []operator.Operator{infinite}, bus, control.NewMetricsPublisher(nil), nil, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	time.Sleep(5 * time.Millisecond)
	s.Cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not honor Cancel within timeout")
	}
}

func repeatEmpty(n int) []operator.Element {
	out := make([]operator.Element, n)
	for i := range out {
		out[i] = schedulertest.EmptyEvents()
	}
	return out
}

func TestIdleAfterEscalatesToCancellationWhenNotInputIndependent(t *testing.T) {
	stuck := &schedulertest.ScriptedOperator{
		NameStr:      "stuck",
		Script:       repeatEmpty(1000),
		FailAfter:    -1,
		Idle:         time.Millisecond,
		DemandPolicy: operator.DemandSettings{MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffRate: 1},
	}
	bus := diagnostic.NewBus(nil, nil)
	s, err := scheduler.New(context.Background(), []operator.Operator{stuck}, bus, control.NewMetricsPublisher(nil), nil, nil)
	require.NoError(t, err)

	err = s.Run()
	require.Error(t, err, "a non-input-independent operator stuck past idle_after must cancel the run")
}

func TestInstantiationFailureAbortsWithNoPartialRun(t *testing.T) {
	failing := &failingOperator{name: "cannot-start"}
	bus := diagnostic.NewBus(nil, nil)
	_, err := scheduler.New(context.Background(), []operator.Operator{failing}, bus, control.NewMetricsPublisher(nil), nil, nil)
	require.Error(t, err)
}

type failingOperator struct{ name string }

func (f *failingOperator) Name() string                  { return f.name }
func (f *failingOperator) InputType() operator.ElementType  { return operator.Void }
func (f *failingOperator) OutputType() operator.ElementType { return operator.Events }
func (f *failingOperator) Location() operator.Location    { return operator.Anywhere }
func (f *failingOperator) Detached() bool                 { return false }
func (f *failingOperator) Internal() bool                 { return false }
func (f *failingOperator) InputIndependent() bool         { return true }
func (f *failingOperator) IdleAfter() time.Duration       { return 0 }
func (f *failingOperator) Demand() operator.DemandSettings { return operator.DefaultDemandSettings() }
func (f *failingOperator) Optimize(filter operator.Filter, order operator.Order) operator.OptimizeResult {
	return operator.OptimizeResult{Residual: filter, Order: order}
}
func (f *failingOperator) Instantiate(input operator.Generator, ctl operator.Control) (operator.Generator, error) {
	return nil, errors.New("cannot start")
}
