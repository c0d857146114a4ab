package batch

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"

	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

// Builder accumulates rows of a fixed schema and produces a Batch,
// wrapping Arrow's own array.RecordBuilder the way operators in this
// engine that synthesize events (sources, the aggregation contract's
// Get(), test fixtures) are expected to.
type Builder struct {
	schema types.Type
	pool   memory.Allocator
	rb     *array.RecordBuilder
}

// NewBuilder creates a Builder for schema using pool for allocation. If
// pool is nil, a Go-heap allocator is used.
func NewBuilder(schema types.Type, pool memory.Allocator) *Builder {
	if pool == nil {
		pool = arrowDefaultPool()
	}
	arrowSchema := ArrowSchema(schema)
	return &Builder{schema: schema, pool: pool, rb: array.NewRecordBuilder(pool, arrowSchema)}
}

// Field returns the underlying arrow array.Builder for column i, for
// callers that need kind-specific Append calls beyond AppendNull.
func (b *Builder) Field(i int) array.Builder { return b.rb.Field(i) }

// AppendNull appends a null to every column, producing an all-null row.
func (b *Builder) AppendNull() {
	for i := 0; i < b.rb.Schema().NumFields(); i++ {
		b.rb.Field(i).AppendNull()
	}
}

// NewBatch finalizes the accumulated rows into a Batch and resets the
// builder for reuse, matching array.RecordBuilder.NewRecord's semantics.
func (b *Builder) NewBatch() Batch {
	rec := b.rb.NewRecord()
	return New(b.schema, rec)
}

// Release releases the builder's underlying arrow buffers.
func (b *Builder) Release() { b.rb.Release() }

// ArrowFieldType exposes the physical Arrow type chosen for one of
// schema's fields, a convenience for callers building values directly
// against arrow's typed builders (e.g. array.Int64Builder).
func ArrowFieldType(schema types.Type, i int) arrow.DataType {
	return ArrowSchema(schema).Field(i).Type
}
