package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
	"github.com/tenzir/pipeline-core/pkg/tenzir/pipeline"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

type passthroughOperator struct {
	name string
	in   operator.ElementType
	out  operator.ElementType
}

func (p *passthroughOperator) Name() string                  { return p.name }
func (p *passthroughOperator) InputType() operator.ElementType  { return p.in }
func (p *passthroughOperator) OutputType() operator.ElementType { return p.out }
func (p *passthroughOperator) Location() operator.Location    { return operator.Anywhere }
func (p *passthroughOperator) Detached() bool                 { return false }
func (p *passthroughOperator) Internal() bool                 { return false }
func (p *passthroughOperator) InputIndependent() bool         { return p.in == operator.Void }
func (p *passthroughOperator) IdleAfter() time.Duration       { return 0 }
func (p *passthroughOperator) Demand() operator.DemandSettings { return operator.DefaultDemandSettings() }
func (p *passthroughOperator) Optimize(filter operator.Filter, order operator.Order) operator.OptimizeResult {
	return operator.OptimizeResult{Residual: filter, Order: order}
}
func (p *passthroughOperator) Instantiate(input operator.Generator, ctl operator.Control) (operator.Generator, error) {
	return &passthroughGenerator{input: input, emitted: p.in == operator.Void}, nil
}

type passthroughGenerator struct {
	input   operator.Generator
	emitted bool
}

func (g *passthroughGenerator) Next(ctx context.Context) (operator.Element, bool, error) {
	if g.input != nil {
		return g.input.Next(ctx)
	}
	if g.emitted {
		return operator.Element{}, false, nil
	}
	g.emitted = true
	schema := types.NewRecord([]types.Field{{Name: "n", Type: types.New(types.Int64)}})
	return operator.Element{Type: operator.Events, Batch: batch.Empty(schema)}, true, nil
}

func registry() *operator.Registry {
	r := operator.NewRegistry()
	r.Register("gen_source", func(args operator.Arguments) (operator.Operator, error) {
		return &passthroughOperator{name: "gen_source", in: operator.Void, out: operator.Events}, nil
	})
	r.Register("noop_sink", func(args operator.Arguments) (operator.Operator, error) {
		return &passthroughOperator{name: "noop_sink", in: operator.Events, out: operator.Void}, nil
	})
	return r
}

func TestAssembleAndRunCompletesPipeline(t *testing.T) {
	bus := diagnostic.NewBus(nil, nil)
	p, err := pipeline.Assemble(context.Background(), []pipeline.Definition{
		{PluginName: "gen_source"},
		{PluginName: "noop_sink"},
	}, registry(), pipeline.Options{Bus: bus})
	require.NoError(t, err)
	assert.False(t, p.IsFragment())

	require.NoError(t, p.Run())
}

func TestAssembleRejectsTypeMismatch(t *testing.T) {
	bus := diagnostic.NewBus(nil, nil)
	r := registry()
	r.Register("bytes_sink", func(args operator.Arguments) (operator.Operator, error) {
		return &passthroughOperator{name: "bytes_sink", in: operator.Bytes, out: operator.Void}, nil
	})

	_, err := pipeline.Assemble(context.Background(), []pipeline.Definition{
		{PluginName: "gen_source"},
		{PluginName: "bytes_sink"},
	}, r, pipeline.Options{Bus: bus})
	require.Error(t, err)
}

func TestAssembleDetectsFragment(t *testing.T) {
	bus := diagnostic.NewBus(nil, nil)
	p, err := pipeline.Assemble(context.Background(), []pipeline.Definition{
		{PluginName: "noop_sink"},
	}, registry(), pipeline.Options{Bus: bus})
	require.NoError(t, err)
	assert.True(t, p.IsFragment())
}
