// Package column provides small typed adapters over Arrow arrays,
// generalizing the teacher's hand-written per-type columns
// (pkg/air/column/int.go, float.go, string.go, ...) into one generic
// trait, per spec §9: "Template metaprogramming over Arrow arrays...
// replace with a small set of typed column adapters; keep kernels
// generic over a column<T> trait."
package column

import (
	"github.com/apache/arrow/go/v12/arrow/array"
	"golang.org/x/exp/constraints"
)

// Column is the minimal read trait every typed adapter below
// implements, so a kernel can be written once against it rather than
// switching on Arrow's concrete array types at every call site. The
// reducers in pkg/tenzir/aggregate do not use it; they read cells through
// batch.Batch.At.
type Column[T any] interface {
	Len() int
	IsNull(i int) bool
	Value(i int) T
}

// Int64 adapts *array.Int64.
type Int64 struct{ arr *array.Int64 }

func NewInt64(arr *array.Int64) Int64           { return Int64{arr: arr} }
func (c Int64) Len() int                        { return c.arr.Len() }
func (c Int64) IsNull(i int) bool               { return c.arr.IsNull(i) }
func (c Int64) Value(i int) int64               { return c.arr.Value(i) }

// Uint64 adapts *array.Uint64.
type Uint64 struct{ arr *array.Uint64 }

func NewUint64(arr *array.Uint64) Uint64 { return Uint64{arr: arr} }
func (c Uint64) Len() int                { return c.arr.Len() }
func (c Uint64) IsNull(i int) bool       { return c.arr.IsNull(i) }
func (c Uint64) Value(i int) uint64      { return c.arr.Value(i) }

// Float64 adapts *array.Float64.
type Float64 struct{ arr *array.Float64 }

func NewFloat64(arr *array.Float64) Float64 { return Float64{arr: arr} }
func (c Float64) Len() int                  { return c.arr.Len() }
func (c Float64) IsNull(i int) bool         { return c.arr.IsNull(i) }
func (c Float64) Value(i int) float64       { return c.arr.Value(i) }

// Bool adapts *array.Boolean.
type Bool struct{ arr *array.Boolean }

func NewBool(arr *array.Boolean) Bool { return Bool{arr: arr} }
func (c Bool) Len() int               { return c.arr.Len() }
func (c Bool) IsNull(i int) bool      { return c.arr.IsNull(i) }
func (c Bool) Value(i int) bool       { return c.arr.Value(i) }

// String adapts *array.String.
type String struct{ arr *array.String }

func NewString(arr *array.String) String { return String{arr: arr} }
func (c String) Len() int                { return c.arr.Len() }
func (c String) IsNull(i int) bool       { return c.arr.IsNull(i) }
func (c String) Value(i int) string      { return c.arr.Value(i) }

// Numeric is the constraint satisfied by every scalar numeric kind the
// aggregation contract's numeric-aggregator rules apply to (spec §4.6).
type Numeric interface {
	constraints.Integer | constraints.Float
}

// ForEach visits every non-null value of c in order, skipping nulls. It
// is the hot-path jump-table entry point spec §9 calls for: a kernel
// written once against Column[T] instead of once per concrete Arrow
// array type.
func ForEach[T any](c Column[T], fn func(row int, v T)) {
	n := c.Len()
	for i := 0; i < n; i++ {
		if c.IsNull(i) {
			continue
		}
		fn(i, c.Value(i))
	}
}

// CountNulls returns the number of null cells in c.
func CountNulls[T any](c Column[T]) int {
	n := c.Len()
	nulls := 0
	for i := 0; i < n; i++ {
		if c.IsNull(i) {
			nulls++
		}
	}
	return nulls
}
