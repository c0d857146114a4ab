package aggregate_test

import (
	"testing"

	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/aggregate"
	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

func int64Batch(values ...int64) (batch.Batch, types.Offset) {
	schema := types.NewRecord([]types.Field{{Name: "n", Type: types.New(types.Int64)}})
	b := batch.NewBuilder(schema, nil)
	col := b.Field(0).(*array.Int64Builder)
	for _, v := range values {
		col.Append(v)
	}
	offset, err := types.Resolve(schema, "n")
	if err != nil {
		panic(err)
	}
	return b.NewBatch(), offset
}

func doubleBatch(values ...float64) (batch.Batch, types.Offset) {
	schema := types.NewRecord([]types.Field{{Name: "x", Type: types.New(types.Double)}})
	b := batch.NewBuilder(schema, nil)
	col := b.Field(0).(*array.Float64Builder)
	for _, v := range values {
		col.Append(v)
	}
	offset, err := types.Resolve(schema, "x")
	if err != nil {
		panic(err)
	}
	return b.NewBatch(), offset
}

func TestSumOverInts(t *testing.T) {
	r := aggregate.NewNumeric(aggregate.Sum)
	b, off := int64Batch(1, 2, 3)
	r.Update(b, off, nil)
	got := r.Get()
	require.False(t, got.IsNull())
	assert.Equal(t, int64(6), got.Int64())
}

func TestSumPromotesToDoubleOnMixedInput(t *testing.T) {
	r := aggregate.NewNumeric(aggregate.Sum)
	ib, ioff := int64Batch(1, 2)
	r.Update(ib, ioff, nil)
	db, doff := doubleBatch(0.5)
	r.Update(db, doff, nil)
	got := r.Get()
	assert.Equal(t, types.Double, got.Kind())
	assert.InDelta(t, 3.5, got.Double(), 1e-9)
}

func TestMeanAndVariance(t *testing.T) {
	b, off := int64Batch(2, 4, 4, 4, 5, 5, 7, 9)
	mean := aggregate.NewNumeric(aggregate.Mean)
	mean.Update(b, off, nil)
	assert.InDelta(t, 5.0, mean.Get().Double(), 1e-9)

	variance := aggregate.NewNumeric(aggregate.Variance)
	variance.Update(b, off, nil)
	assert.InDelta(t, 4.0, variance.Get().Double(), 1e-6)
}

func TestEmptyColumnYieldsNull(t *testing.T) {
	r := aggregate.NewNumeric(aggregate.Sum)
	b, off := int64Batch()
	r.Update(b, off, nil)
	assert.True(t, r.Get().IsNull())
}

func TestSaveRestoreRoundTrips(t *testing.T) {
	r := aggregate.NewNumeric(aggregate.Sum)
	b, off := int64Batch(10, 20, 30)
	r.Update(b, off, nil)
	saved := r.Save()

	restored := aggregate.NewNumeric(aggregate.Sum)
	restored.Restore(saved, nil)
	assert.Equal(t, r.Get().Int64(), restored.Get().Int64())
}

func TestDistinctEstimatesCardinality(t *testing.T) {
	r := aggregate.NewDistinct()
	b, off := int64Batch(1, 2, 2, 3, 3, 3)
	r.Update(b, off, nil)
	got := r.Get()
	assert.InDelta(t, 3, float64(got.Uint64()), 1)
}

func TestQuantileApproximatesMedian(t *testing.T) {
	r := aggregate.NewQuantile(0.5, 0, 100_000_000, 3)
	b, off := int64Batch(1, 2, 3, 4, 5, 6, 7, 8, 9)
	r.Update(b, off, nil)
	got := r.Get()
	require.False(t, got.IsNull())
	assert.InDelta(t, 5.0, got.Double(), 0.5)
}
