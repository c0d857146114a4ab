package batch

import (
	"net"

	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

// Value is a borrowed, read-only view into one cell of a batch column.
// It is invalidated the instant the owning Batch is dropped (spec §3.2):
// callers must not retain a Value past the Batch's lifetime.
type Value struct {
	kind types.Kind
	null bool

	b    bool
	i64  int64
	u64  uint64
	f64  float64
	str  string
	blob []byte

	// List and Record values are materialized as slices of sub-views on
	// first access; Map values as key/value pairs. These still borrow
	// their leaf scalars from the batch's buffers.
	list   []Value
	fields []RecordField
	pairs  []MapPair
}

// RecordField is one named sub-value of a nested Record value.
type RecordField struct {
	Name  string
	Value Value
}

// MapPair is one key/value entry of a Map value.
type MapPair struct {
	Key   Value
	Value Value
}

func nullValue(kind types.Kind) Value { return Value{kind: kind, null: true} }

func boolValue(v bool) Value     { return Value{kind: types.Bool, b: v} }
func int64Value(v int64) Value   { return Value{kind: types.Int64, i64: v} }
func uint64Value(v uint64) Value { return Value{kind: types.Uint64, u64: v} }
func doubleValue(v float64) Value { return Value{kind: types.Double, f64: v} }
func durationValue(v int64) Value { return Value{kind: types.Duration, i64: v} }
func timeValue(v int64) Value     { return Value{kind: types.Time, i64: v} }
func stringValue(v string) Value  { return Value{kind: types.String, str: v} }
func blobValue(v []byte) Value    { return Value{kind: types.Blob, blob: v} }
func ipValue(v string) Value      { return Value{kind: types.IP, str: v} }
func subnetValue(v string) Value  { return Value{kind: types.Subnet, str: v} }
func secretValue(v []byte) Value  { return Value{kind: types.Secret, blob: v} }
func enumValue(ordinal uint32, name string) Value {
	return Value{kind: types.Enum, u64: uint64(ordinal), str: name}
}
func listValue(elems []Value) Value            { return Value{kind: types.List, list: elems} }
func recordValue(fields []RecordField) Value   { return Value{kind: types.Record, fields: fields} }
func mapValue(pairs []MapPair) Value            { return Value{kind: types.Map, pairs: pairs} }

// NewNullValue constructs the null value of the given kind, for callers
// that synthesize values outside of reading a batch column (e.g. a
// reducer's Get() on an empty-input aggregation, spec §4.6).
func NewNullValue(kind types.Kind) Value { return nullValue(kind) }

func NewBoolValue(v bool) Value       { return boolValue(v) }
func NewInt64Value(v int64) Value     { return int64Value(v) }
func NewUint64Value(v uint64) Value   { return uint64Value(v) }
func NewDoubleValue(v float64) Value  { return doubleValue(v) }
func NewDurationValue(v int64) Value  { return durationValue(v) }
func NewTimeValue(v int64) Value      { return timeValue(v) }
func NewStringValue(v string) Value   { return stringValue(v) }
func NewBlobValue(v []byte) Value     { return blobValue(v) }

func (v Value) Kind() types.Kind { return v.kind }

// IsNull reports whether this cell is null. A null value at position i
// in column c is representable for every type (spec §3.3); callers must
// check IsNull before any typed accessor.
func (v Value) IsNull() bool { return v.null }

func (v Value) Bool() bool       { return v.b }
func (v Value) Int64() int64     { return v.i64 }
func (v Value) Uint64() uint64   { return v.u64 }
func (v Value) Double() float64  { return v.f64 }
func (v Value) Duration() int64  { return v.i64 }
func (v Value) Time() int64      { return v.i64 }
func (v Value) String() string   { return v.str }
func (v Value) Blob() []byte     { return v.blob }
func (v Value) IP() net.IP       { return net.ParseIP(v.str) }
func (v Value) Subnet() string   { return v.str }
func (v Value) Secret() []byte   { return v.blob }
func (v Value) EnumOrdinal() uint32 { return uint32(v.u64) }
func (v Value) EnumName() string    { return v.str }
func (v Value) List() []Value          { return v.list }
func (v Value) RecordFields() []RecordField { return v.fields }
func (v Value) MapPairs() []MapPair    { return v.pairs }
