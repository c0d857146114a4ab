package batch_test

import (
	"testing"

	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

func sampleSchema() types.Type {
	return types.NewRecord([]types.Field{
		{Name: "x", Type: types.New(types.Int64)},
		{Name: "name", Type: types.New(types.String)},
	})
}

func TestEmptyBatchIsLegal(t *testing.T) {
	b := batch.Empty(sampleSchema())
	defer b.Release()

	assert.True(t, b.IsEmpty())
	assert.Equal(t, int64(0), b.Rows())
	assert.Equal(t, 2, b.Columns())
}

func TestBuilderRoundTripsScalarValues(t *testing.T) {
	schema := sampleSchema()
	bld := batch.NewBuilder(schema, nil)
	defer bld.Release()

	bld.Field(0).(*array.Int64Builder).Append(42)
	bld.Field(1).(*array.StringBuilder).Append("alice")

	bld.Field(0).(*array.Int64Builder).AppendNull()
	bld.Field(1).(*array.StringBuilder).Append("bob")

	b := bld.NewBatch()
	defer b.Release()

	require.Equal(t, int64(2), b.Rows())

	xOffset, err := types.Resolve(schema, "x")
	require.NoError(t, err)
	nameOffset, err := types.Resolve(schema, "name")
	require.NoError(t, err)

	v0 := b.At(0, xOffset)
	require.False(t, v0.IsNull())
	assert.Equal(t, int64(42), v0.Int64())

	v1 := b.At(1, xOffset)
	assert.True(t, v1.IsNull())

	name1 := b.At(1, nameOffset)
	require.False(t, name1.IsNull())
	assert.Equal(t, "bob", name1.String())
}

func TestSubsliceSharesBuffersAndPreservesSchema(t *testing.T) {
	schema := sampleSchema()
	bld := batch.NewBuilder(schema, nil)
	defer bld.Release()

	for i := int64(0); i < 5; i++ {
		bld.Field(0).(*array.Int64Builder).Append(i)
		bld.Field(1).(*array.StringBuilder).Append("row")
	}
	b := bld.NewBatch()
	defer b.Release()

	sub := b.Subslice(1, 3)
	defer sub.Release()

	assert.Equal(t, int64(2), sub.Rows())
	assert.True(t, types.Equal(schema, sub.Schema()))

	xOffset, _ := types.Resolve(schema, "x")
	assert.Equal(t, int64(1), sub.At(0, xOffset).Int64())
	assert.Equal(t, int64(2), sub.At(1, xOffset).Int64())
}

func TestNestedRecordValue(t *testing.T) {
	inner := types.NewRecord([]types.Field{
		{Name: "city", Type: types.New(types.String)},
	})
	schema := types.NewRecord([]types.Field{
		{Name: "addr", Type: inner},
	})

	bld := batch.NewBuilder(schema, nil)
	defer bld.Release()

	structBld := bld.Field(0).(*array.StructBuilder)
	structBld.Append(true)
	structBld.FieldBuilder(0).(*array.StringBuilder).Append("berlin")

	b := bld.NewBatch()
	defer b.Release()

	offset, err := types.Resolve(schema, "addr.city")
	require.NoError(t, err)
	v := b.At(0, offset)
	require.False(t, v.IsNull())
	assert.Equal(t, "berlin", v.String())
}

func TestArrowSchemaRoundTripsThroughTenzirType(t *testing.T) {
	schema := sampleSchema()
	arrowSchema := batch.ArrowSchema(schema)
	back := batch.TenzirType(arrowSchema)
	assert.True(t, types.Equal(schema, back))
}
