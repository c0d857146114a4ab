// Package control implements the per-operator control-plane handle
// (spec §4.5): diagnostics, metrics, cancellation, and secret
// resolution. It is the one object an operator instance receives besides
// its input generator.
package control

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
)

// Identity is the opaque self() handle the scheduler uses for
// bookkeeping (spec §4.5). It is a UUID rather than a bare pointer so it
// survives being logged, hashed, or sent across a detached worker
// boundary.
type Identity uuid.UUID

func (id Identity) String() string { return uuid.UUID(id).String() }

// Handle is the control-plane object passed to Operator.Instantiate.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc

	operatorName  string
	operatorIndex int
	self          Identity

	diagBus    *diagnostic.Bus
	diagHandle diagnostic.Handle
	metrics    *MetricsPublisher
	resolver   SecretResolver

	logger *zap.Logger

	waiting  atomic.Bool
	shutdown atomic.Bool
}

// NewHandle constructs a Handle for one operator instance. parent is the
// pipeline-scoped context whose cancellation this Handle observes.
func NewHandle(
	parent context.Context,
	operatorName string,
	operatorIndex int,
	diagBus *diagnostic.Bus,
	metrics *MetricsPublisher,
	resolver SecretResolver,
	logger *zap.Logger,
) *Handle {
	ctx, cancel := context.WithCancel(parent)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handle{
		ctx:           ctx,
		cancel:        cancel,
		operatorName:  operatorName,
		operatorIndex: operatorIndex,
		self:          Identity(uuid.New()),
		diagBus:       diagBus,
		diagHandle:    diagBus.ForOperator(operatorName),
		metrics:       metrics,
		resolver:      resolver,
		logger:        logger.With(zap.String("operator", operatorName), zap.Int("operator_index", operatorIndex)),
	}
}

// Context returns the operator-scoped context; it is cancelled when the
// scheduler cancels this operator specifically, or the whole pipeline.
func (h *Handle) Context() context.Context { return h.ctx }

// Diagnostics returns the diagnostic bus sink scoped to this operator.
func (h *Handle) Diagnostics() diagnostic.Handle { return h.diagHandle }

// Metrics returns the typed publisher keyed by (operator_name,
// operator_index, metric_schema) (spec §4.5).
func (h *Handle) Metrics() *MetricsPublisher { return h.metrics }

// ShutdownRequested is the non-blocking cancellation check (spec §4.5).
func (h *Handle) ShutdownRequested() bool {
	return h.shutdown.Load() || h.ctx.Err() != nil
}

// SetWaiting records whether the operator is parked on an external
// event; ResolveSecretsMustYield uses it to mark its suspension point.
// The flag is only recorded: the scheduler does not read it and keeps
// pulling from the operator's generator as usual.
func (h *Handle) SetWaiting(waiting bool) {
	h.waiting.Store(waiting)
}

// Waiting reports the current value set by SetWaiting. Nothing in the
// scheduler consults it.
func (h *Handle) Waiting() bool { return h.waiting.Load() }

// Self returns this operator instance's opaque identity.
func (h *Handle) Self() Identity { return h.self }

// RequestShutdown is called by the scheduler (never by the operator
// itself) to flip ShutdownRequested and cancel Context.
func (h *Handle) RequestShutdown() {
	h.shutdown.Store(true)
	h.cancel()
}

// Logger exposes the operator-scoped zap logger, used by operator
// implementations that want structured logs beyond the diagnostic bus
// (e.g. a connector logging a retry backoff before it rises to the level
// of a diagnostic).
func (h *Handle) Logger() *zap.Logger { return h.logger }
