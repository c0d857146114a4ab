// Package logctx bundles a *zap.Logger with the named scope it is
// logging on behalf of (an operator, the scheduler, the pipeline
// assembler), generalizing the teacher's
// component.TelemetrySettings.Logger field (threaded through e.g.
// collector/gen/exporter/otlpexporter/internal/arrow/stream.go as
// s.telemetry.Logger) into a standalone type that does not pull in the
// OTel collector's component package, which has no place in a
// standalone embeddable engine.
package logctx

import "go.uber.org/zap"

// Context is the logging handle passed to an operator, the scheduler,
// or the pipeline assembler: a logger already annotated with the scope
// it belongs to, so call sites never repeat that annotation themselves.
type Context struct {
	logger *zap.Logger
	scope  string
}

// New wraps logger (nil becomes zap.NewNop, matching how a caller that
// does not care about logs should not have to construct a real one)
// with the given scope name.
func New(logger *zap.Logger, scope string) Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Context{logger: logger.Named(scope), scope: scope}
}

// Logger returns the scoped *zap.Logger.
func (c Context) Logger() *zap.Logger { return c.logger }

// Scope returns the name this Context was constructed with.
func (c Context) Scope() string { return c.scope }

// With derives a child Context nested one level under the current
// scope (e.g. a per-operator Context nested under the scheduler's),
// mirroring zap.Logger.Named's own dotted-scope convention.
func (c Context) With(childScope string) Context {
	return Context{logger: c.logger.Named(childScope), scope: c.scope + "." + childScope}
}

// Fields returns a child Context with the given structured fields
// attached to every subsequent log line, for call sites that want to
// tag a logger with e.g. an operator's identity once rather than
// repeating it at every log call.
func (c Context) Fields(fields ...zap.Field) Context {
	return Context{logger: c.logger.With(fields...), scope: c.scope}
}
