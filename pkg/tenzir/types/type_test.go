package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

func addressBook() types.Type {
	contact := types.NewRecord([]types.Field{
		{Name: "email", Type: types.New(types.String)},
		{Name: "phone", Type: types.New(types.String)},
	}, types.WithName("contact"))

	return types.NewRecord([]types.Field{
		{Name: "name", Type: types.New(types.String)},
		{Name: "age", Type: types.New(types.Uint64)},
		{Name: "contact", Type: contact},
	})
}

func TestEqualStructuralNameAttributes(t *testing.T) {
	a := types.New(types.Int64, types.WithName("port"), types.WithAttribute("unit", "tcp"))
	b := types.New(types.Int64, types.WithName("port"), types.WithAttribute("unit", "tcp"))
	c := types.New(types.Int64, types.WithName("port"))

	assert.True(t, types.Equal(a, b))
	assert.False(t, types.Equal(a, c))
}

func TestRecordFieldOrderIsPartOfSchema(t *testing.T) {
	a := types.NewRecord([]types.Field{
		{Name: "x", Type: types.New(types.Int64)},
		{Name: "y", Type: types.New(types.Int64)},
	})
	b := types.NewRecord([]types.Field{
		{Name: "y", Type: types.New(types.Int64)},
		{Name: "x", Type: types.New(types.Int64)},
	})
	assert.False(t, types.Equal(a, b))
}

func TestNewRecordRejectsDuplicateFieldNames(t *testing.T) {
	assert.Panics(t, func() {
		types.NewRecord([]types.Field{
			{Name: "x", Type: types.New(types.Int64)},
			{Name: "x", Type: types.New(types.String)},
		})
	})
}

func TestResolveDottedPath(t *testing.T) {
	book := addressBook()

	offset, err := types.Resolve(book, "contact.email")
	require.NoError(t, err)
	assert.Equal(t, types.Offset{2, 0}, offset)
	assert.Equal(t, types.String, types.TypeAt(book, offset).Kind())
}

func TestResolveLiteralTopLevelName(t *testing.T) {
	book := addressBook()

	offset, err := types.Resolve(book, "name")
	require.NoError(t, err)
	assert.Equal(t, types.Offset{0}, offset)
}

func TestResolveMissingStepReturnsNotFound(t *testing.T) {
	book := addressBook()

	_, err := types.Resolve(book, "contact.fax")
	require.Error(t, err)
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "fax", nf.Step)
}

func TestResolveThroughNonRecordFails(t *testing.T) {
	book := addressBook()

	_, err := types.Resolve(book, "name.first")
	require.Error(t, err)
}

func TestEnumBijection(t *testing.T) {
	severity := types.NewEnum([]types.EnumValue{
		{Ordinal: 0, Name: "info"},
		{Ordinal: 1, Name: "warning"},
		{Ordinal: 2, Name: "error"},
	}, types.WithName("severity"))

	name, ok := severity.EnumName(1)
	require.True(t, ok)
	assert.Equal(t, "warning", name)

	ordinal, ok := severity.EnumOrdinal("error")
	require.True(t, ok)
	assert.Equal(t, uint32(2), ordinal)

	_, ok = severity.EnumName(99)
	assert.False(t, ok)
}

func TestSignatureIgnoresNameAndAttributes(t *testing.T) {
	a := types.New(types.Int64, types.WithName("port"))
	b := types.New(types.Int64)
	assert.Equal(t, types.Signature(a), types.Signature(b))

	list := types.NewList(types.New(types.String))
	assert.Equal(t, "[string]", types.Signature(list))
}
