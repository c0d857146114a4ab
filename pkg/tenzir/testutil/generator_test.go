package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/testutil"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

func schema() types.Type {
	return types.NewRecord([]types.Field{
		{Name: "id", Type: types.New(types.Int64)},
		{Name: "name", Type: types.New(types.String)},
		{Name: "score", Type: types.New(types.Double)},
		{Name: "active", Type: types.New(types.Bool)},
		{Name: "tags", Type: types.NewList(types.New(types.String))},
	})
}

func TestBatchHasRequestedRowCount(t *testing.T) {
	gen := testutil.New(42, nil)
	b := gen.Batch(schema(), 10)
	assert.Equal(t, int64(10), b.Rows())
}

func TestBatchIsDeterministicForSameSeed(t *testing.T) {
	sch := schema()
	offset, err := types.Resolve(sch, "id")
	require.NoError(t, err)

	gen1 := testutil.New(7, nil)
	gen2 := testutil.New(7, nil)

	b1 := gen1.Batch(sch, 5)
	b2 := gen2.Batch(sch, 5)

	require.Equal(t, b1.Rows(), b2.Rows())
	for row := int64(0); row < b1.Rows(); row++ {
		v1 := b1.At(row, offset)
		v2 := b2.At(row, offset)
		assert.Equal(t, v1.IsNull(), v2.IsNull())
		if !v1.IsNull() {
			assert.Equal(t, v1.Int64(), v2.Int64())
		}
	}
}
