// Package testutil generates synthetic batches from a schema, for tests
// that need realistic-looking data without hand-rolling every column.
// Generalizes the teacher's pkg/datagen (which used gofakeit to
// synthesize fake OTel resource/span/log attributes, e.g.
// pkg/datagen/logs.go's gofakeit.LoremIpsumSentence/DigitN calls) from
// OTel's three fixed signal shapes to this engine's arbitrary
// types.Type schemas.
package testutil

import (
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/brianvoe/gofakeit/v6"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

// Generator produces synthetic batches for a fixed schema. Unlike the
// teacher's package-level gofakeit calls, Generator holds its own seeded
// *gofakeit.Faker so two Generators built from the same seed produce the
// same rows, matching this package's purpose as a deterministic test
// fixture rather than a fuzzing tool.
type Generator struct {
	faker       *gofakeit.Faker
	pool        memory.Allocator
	NullProb    float64 // probability any non-record field is null, default 0.1
	MaxListLen  int     // inclusive upper bound on a generated list's length, default 3
	MaxMapLen   int     // inclusive upper bound on a generated map's length, default 3
}

// New builds a Generator seeded deterministically from seed. pool may be
// nil, in which case batches are built against a Go-heap allocator.
func New(seed uint64, pool memory.Allocator) *Generator {
	return &Generator{
		faker:      gofakeit.New(int64(seed)),
		pool:       pool,
		NullProb:   0.1,
		MaxListLen: 3,
		MaxMapLen:  3,
	}
}

// Batch generates a single Batch of rows rows conforming to schema, which
// must be a Record type (spec §3.2: every batch carries a record schema).
func (g *Generator) Batch(schema types.Type, rows int) batch.Batch {
	b := batch.NewBuilder(schema, g.pool)
	fields := schema.Fields()
	for row := 0; row < rows; row++ {
		for i, f := range fields {
			g.appendValue(b.Field(i), f.Type, true)
		}
	}
	return b.NewBatch()
}

// appendValue appends one synthetic value to builder for type t.
// allowNull gates the configured NullProb null-injection; nested list/map
// elements pass false so a list never silently shrinks by nulling one of
// its own declared-length elements.
func (g *Generator) appendValue(builder array.Builder, t types.Type, allowNull bool) {
	if allowNull && t.Kind() != types.Record && g.faker.Float64Range(0, 1) < g.NullProb {
		builder.AppendNull()
		return
	}

	switch t.Kind() {
	case types.Null:
		builder.(*array.NullBuilder).AppendEmptyValue()
	case types.Bool:
		builder.(*array.BooleanBuilder).Append(g.faker.Bool())
	case types.Int64:
		builder.(*array.Int64Builder).Append(g.faker.Int64Range(-1_000_000, 1_000_000))
	case types.Uint64:
		builder.(*array.Uint64Builder).Append(uint64(g.faker.Int64Range(0, 1_000_000)))
	case types.Double:
		builder.(*array.Float64Builder).Append(g.faker.Float64Range(-1_000, 1_000))
	case types.Duration:
		ns := g.faker.Int64Range(0, int64(time.Hour))
		builder.(*array.DurationBuilder).Append(arrow.Duration(ns))
	case types.Time:
		builder.(*array.TimestampBuilder).Append(arrow.Timestamp(g.faker.Date().UnixNano()))
	case types.String:
		builder.(*array.StringBuilder).Append(g.faker.LoremIpsumSentence(4))
	case types.Blob:
		builder.(*array.BinaryBuilder).Append([]byte(g.faker.DigitN(16)))
	case types.IP:
		builder.(*array.StringBuilder).Append(g.faker.IPv4Address())
	case types.Subnet:
		builder.(*array.StringBuilder).Append(g.faker.IPv4Address() + "/24")
	case types.Enum:
		values := t.EnumValues()
		if len(values) == 0 {
			builder.AppendNull()
			return
		}
		builder.(*array.Uint32Builder).Append(values[g.faker.Number(0, len(values)-1)].Ordinal)
	case types.Secret:
		builder.(*array.BinaryBuilder).Append([]byte("secret-ref-" + g.faker.DigitN(8)))
	case types.List:
		lb := builder.(*array.ListBuilder)
		lb.Append(true)
		n := g.faker.Number(0, g.MaxListLen)
		valueBuilder := lb.ValueBuilder()
		for i := 0; i < n; i++ {
			g.appendValue(valueBuilder, t.ListElem(), false)
		}
	case types.Record:
		sb := builder.(*array.StructBuilder)
		sb.Append(true)
		for i, f := range t.Fields() {
			g.appendValue(sb.FieldBuilder(i), f.Type, true)
		}
	case types.Map:
		mb := builder.(*array.MapBuilder)
		mb.Append(true)
		n := g.faker.Number(0, g.MaxMapLen)
		keyBuilder := mb.KeyBuilder()
		itemBuilder := mb.ItemBuilder()
		for i := 0; i < n; i++ {
			g.appendValue(keyBuilder, t.MapKey(), false)
			g.appendValue(itemBuilder, t.MapVal(), false)
		}
	default:
		builder.AppendNull()
	}
}
