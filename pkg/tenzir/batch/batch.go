package batch

import (
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"

	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
	"github.com/tenzir/pipeline-core/pkg/tenzir/werror"
)

// Batch is a contiguous set of rows sharing one schema (spec §3.2). It
// wraps an arrow.Record; all views it hands out borrow that record's
// buffers and are invalidated when the Batch is released.
type Batch struct {
	schema     types.Type
	rec        arrow.Record
	importedAt *time.Time
}

// New wraps an arrow.Record together with the record Type that describes
// it. The caller retains ownership semantics: rec.Retain/Release are the
// caller's responsibility, matching arrow.Record's own contract.
//
// Asserts (spec §4.1: "a schema mismatch between a batch and a claimed
// column type is a programming error") that rec's physical columns agree
// in count and kind with schema's fields.
func New(schema types.Type, rec arrow.Record) Batch {
	werror.Assert(schema.Kind() == types.Record, "batch.New: schema must be a record type")
	werror.Assert(int(rec.NumCols()) == len(schema.Fields()),
		"batch.New: record has %d columns, schema has %d fields", rec.NumCols(), len(schema.Fields()))
	arrowSchema := ArrowSchema(schema)
	for i := 0; i < int(rec.NumCols()); i++ {
		want := arrowSchema.Field(i).Type
		werror.Assert(arrow.TypeEqual(rec.Column(i).DataType(), want),
			"batch.New: column %d has type %s, schema field %q expects %s",
			i, rec.Column(i).DataType(), arrowSchema.Field(i).Name, want)
	}
	return Batch{schema: schema, rec: rec}
}

// NewWithImportTime is New plus an import timestamp (spec §3.2: "an
// optional monotonic import timestamp").
func NewWithImportTime(schema types.Type, rec arrow.Record, importedAt time.Time) Batch {
	b := New(schema, rec)
	b.importedAt = &importedAt
	return b
}

// Empty constructs the canonical empty batch of the given schema — the
// sentinel for "no data available right now" on any edge (spec §3.3).
func Empty(schema types.Type) Batch {
	arrowSchema := ArrowSchema(schema)
	cols := make([]arrow.Array, arrowSchema.NumFields())
	pool := arrowDefaultPool()
	for i, f := range arrowSchema.Fields() {
		b := array.NewBuilder(pool, f.Type)
		cols[i] = b.NewArray()
		b.Release()
	}
	rec := array.NewRecord(arrowSchema, cols, 0)
	for _, c := range cols {
		c.Release()
	}
	return New(schema, rec)
}

func (b Batch) Schema() types.Type { return b.schema }
func (b Batch) Rows() int64        { return b.rec.NumRows() }
func (b Batch) Columns() int       { return int(b.rec.NumCols()) }

// IsEmpty reports whether this batch carries zero rows.
func (b Batch) IsEmpty() bool { return b.Rows() == 0 }

// ImportedAt returns the batch's import timestamp, if any was recorded.
func (b Batch) ImportedAt() (time.Time, bool) {
	if b.importedAt == nil {
		return time.Time{}, false
	}
	return *b.importedAt, true
}

// Column returns the i-th column as a raw arrow.Array. Callers that need
// typed access can wrap the array, once asserted to its concrete Arrow
// type, in one of package column's adapters.
func (b Batch) Column(i int) arrow.Array {
	return b.rec.Column(i)
}

// Release relinquishes this batch's reference to the underlying
// arrow.Record's buffers.
func (b Batch) Release() {
	b.rec.Release()
}

// Retain adds a reference to the underlying arrow.Record's buffers.
func (b Batch) Retain() {
	b.rec.Retain()
}

// Subslice returns a batch view over rows [begin, end) sharing buffers
// with b in O(1) (spec §3.2, §3.3: "sub-slicing preserves schema
// identity; two slices of the same batch share buffers").
func (b Batch) Subslice(begin, end int64) Batch {
	werror.Assert(begin >= 0 && end <= b.Rows() && begin <= end,
		"batch.Subslice: invalid range [%d,%d) over %d rows", begin, end, b.Rows())
	sliced := b.rec.NewSlice(begin, end)
	out := Batch{schema: b.schema, rec: sliced, importedAt: b.importedAt}
	return out
}

// At resolves offset against the batch's schema and returns the value
// view at (row, offset). Returns a null Value, not an error, if the
// underlying arrow column reports the cell as null — offset resolution
// failures are reported earlier by types.Resolve, not here.
func (b Batch) At(row int64, offset types.Offset) Value {
	werror.Assert(row >= 0 && row < b.Rows(), "batch.At: row %d out of range [0,%d)", row, b.Rows())
	werror.Assert(len(offset) > 0, "batch.At: empty offset")

	col := b.rec.Column(offset[0])
	fieldType := b.schema.Fields()[offset[0]].Type
	return valueAt(col, fieldType, int(row), offset[1:])
}

func valueAt(col arrow.Array, fieldType types.Type, row int, rest types.Offset) Value {
	if col.IsNull(row) {
		t := fieldType
		for range rest {
			// A null struct column makes every nested field null too.
		}
		return nullValue(leafKind(t, rest))
	}

	switch fieldType.Kind() {
	case types.Record:
		structArr := col.(*array.Struct)
		if len(rest) == 0 {
			return recordValueFromStruct(structArr, fieldType, row)
		}
		childIdx := rest[0]
		childType := fieldType.Fields()[childIdx].Type
		return valueAt(structArr.Field(childIdx), childType, row, rest[1:])
	default:
		return scalarValue(col, fieldType, row)
	}
}

func leafKind(t types.Type, rest types.Offset) types.Kind {
	cur := t
	for _, idx := range rest {
		cur = cur.Fields()[idx].Type
	}
	return cur.Kind()
}

func recordValueFromStruct(structArr *array.Struct, recordType types.Type, row int) Value {
	fields := recordType.Fields()
	out := make([]RecordField, len(fields))
	for i, f := range fields {
		out[i] = RecordField{Name: f.Name, Value: valueAt(structArr.Field(i), f.Type, row, nil)}
	}
	return recordValue(out)
}

func scalarValue(col arrow.Array, fieldType types.Type, row int) Value {
	switch fieldType.Kind() {
	case types.Null:
		return nullValue(types.Null)
	case types.Bool:
		return boolValue(col.(*array.Boolean).Value(row))
	case types.Int64:
		return int64Value(col.(*array.Int64).Value(row))
	case types.Uint64:
		return uint64Value(col.(*array.Uint64).Value(row))
	case types.Double:
		return doubleValue(col.(*array.Float64).Value(row))
	case types.Duration:
		return durationValue(int64(col.(*array.Duration).Value(row)))
	case types.Time:
		return timeValue(int64(col.(*array.Timestamp).Value(row)))
	case types.String:
		return stringValue(col.(*array.String).Value(row))
	case types.Blob:
		return blobValue(col.(*array.Binary).Value(row))
	case types.IP:
		return ipValue(col.(*array.String).Value(row))
	case types.Subnet:
		return subnetValue(col.(*array.String).Value(row))
	case types.Secret:
		return secretValue(col.(*array.Binary).Value(row))
	case types.Enum:
		ordinal := col.(*array.Uint32).Value(row)
		name, _ := fieldType.EnumName(ordinal)
		return enumValue(ordinal, name)
	case types.List:
		listArr := col.(*array.List)
		start, end := listArr.ValueOffsets(row)
		elemType := fieldType.ListElem()
		values := listArr.ListValues()
		out := make([]Value, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, valueAt(values, elemType, int(i), nil))
		}
		return listValue(out)
	case types.Map:
		mapArr := col.(*array.Map)
		start, end := mapArr.ValueOffsets(row)
		keyType := fieldType.MapKey()
		valType := fieldType.MapVal()
		keys := mapArr.Keys()
		vals := mapArr.Items()
		out := make([]MapPair, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, MapPair{
				Key:   valueAt(keys, keyType, int(i), nil),
				Value: valueAt(vals, valType, int(i), nil),
			})
		}
		return mapValue(out)
	default:
		panic("batch: unhandled scalar kind " + fieldType.Kind().String())
	}
}
