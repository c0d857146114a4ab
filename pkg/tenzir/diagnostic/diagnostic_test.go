package diagnostic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
)

type recordingSignal struct {
	calls []string
}

func (r *recordingSignal) SignalError(operator string, d diagnostic.Diagnostic) {
	r.calls = append(r.calls, operator)
}

func TestWarningsNeverSignal(t *testing.T) {
	sig := &recordingSignal{}
	bus := diagnostic.NewBus(nil, sig)
	h := bus.ForOperator("parse_csv")

	h.Emit(diagnostic.New(diagnostic.Warning, "malformed row").Build())
	h.Emit(diagnostic.New(diagnostic.Note, "fyi").Build())

	assert.Empty(t, sig.calls)

	drained := bus.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "parse_csv", drained[0].Operator)
}

func TestErrorSignalsAndAccumulates(t *testing.T) {
	sig := &recordingSignal{}
	bus := diagnostic.NewBus(nil, sig)
	h := bus.ForOperator("read_file")

	h.Emit(diagnostic.New(diagnostic.Error, "file not found").
		WithRef(diagnostic.SourceRef{Begin: 10, End: 20}).
		Build())

	require.Len(t, sig.calls, 1)
	assert.Equal(t, "read_file", sig.calls[0])

	err := bus.CombinedError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestDrainClearsBuffer(t *testing.T) {
	bus := diagnostic.NewBus(nil, nil)
	h := bus.ForOperator("op")
	h.Emit(diagnostic.New(diagnostic.Note, "one").Build())

	first := bus.Drain()
	require.Len(t, first, 1)

	second := bus.Drain()
	assert.Empty(t, second)
}
