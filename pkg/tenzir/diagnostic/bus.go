package diagnostic

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Handle is what an operator instance receives to emit diagnostics
// (spec §4.2, §4.5). It is intentionally narrow: operators can only
// emit, never read back or clear, so the scheduler remains the sole
// authority over when an Error transitions the pipeline to cancelled.
type Handle interface {
	Emit(d Diagnostic)
}

// ErrorSignal is implemented by anything that reacts to an Error-severity
// diagnostic being emitted — the scheduler's per-operator state, in
// practice (spec §4.4: "Emitting error marks the current operator
// instance as failed and signals the scheduler to cancel the pipeline at
// the next suspension point").
type ErrorSignal interface {
	SignalError(operator string, d Diagnostic)
}

// Bus is the concrete diagnostic sink for one pipeline run. It is
// multi-writer, single-reader (spec §5: "Metrics and diagnostic sinks
// are multi-writer, single-reader per pipeline"): any operator goroutine
// may call Emit concurrently, while exactly one reader (the scheduler,
// or a test harness) calls Drain().
type Bus struct {
	logger *zap.Logger

	mu      sync.Mutex
	signal  ErrorSignal
	buf     []Diagnostic
	errored multierrHolder
}

type multierrHolder struct {
	mu  sync.Mutex
	err error
}

func (h *multierrHolder) append(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = multierr.Append(h.err, err)
}

func (h *multierrHolder) combined() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// NewBus constructs a Bus that logs through logger and notifies signal of
// every Error-severity diagnostic.
func NewBus(logger *zap.Logger, signal ErrorSignal) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger, signal: signal}
}

// SetSignal installs (or replaces) the ErrorSignal notified by future
// Error-severity diagnostics. Exists so a scheduler can be constructed
// against a Bus built earlier by its caller (the embedding API owns the
// Bus; the scheduler only consumes it) without a construction-order
// cycle between the two.
func (b *Bus) SetSignal(signal ErrorSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signal = signal
}

// ForOperator returns a Handle scoped to one operator instance's name,
// so every Diagnostic it emits is automatically stamped (spec §4.3:
// "name() -> string — stable identifier used for metrics and
// diagnostics").
func (b *Bus) ForOperator(operatorName string) Handle {
	return &scopedHandle{bus: b, operator: operatorName}
}

type scopedHandle struct {
	bus      *Bus
	operator string
}

func (h *scopedHandle) Emit(d Diagnostic) {
	d.Operator = h.operator
	h.bus.emit(d)
}

func (b *Bus) emit(d Diagnostic) {
	b.mu.Lock()
	b.buf = append(b.buf, d)
	b.mu.Unlock()

	switch d.Severity {
	case Error:
		b.logger.Error(d.Message, zap.String("operator", d.Operator))
		b.errored.append(d)
		if b.signal != nil {
			b.signal.SignalError(d.Operator, d)
		}
	case Warning:
		b.logger.Warn(d.Message, zap.String("operator", d.Operator))
	default:
		b.logger.Debug(d.Message, zap.String("operator", d.Operator))
	}
}

// Drain returns and clears all diagnostics buffered since the last
// Drain, for the single reader described above.
func (b *Bus) Drain() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.buf
	b.buf = nil
	return out
}

// CombinedError returns every Error-severity diagnostic emitted so far,
// joined with multierr, or nil if none were emitted. Used at pipeline
// teardown to report why a run failed (spec §4.4: "Detached-worker crash
// is treated as an error diagnostic... the scheduler cancels the rest").
func (b *Bus) CombinedError() error {
	return b.errored.combined()
}
