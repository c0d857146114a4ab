package control

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsPublisher is the typed publisher keyed by (operator_name,
// operator_index, metric_schema) described in spec §4.5. It is built on
// the OpenTelemetry metrics SDK the teacher already depends on
// throughout the collector (e.g. component.TelemetrySettings threading a
// metric.MeterProvider into every receiver/exporter), generalized here
// from OTel's fixed instrument set to arbitrary named counters the
// engine's own operators and scheduler report.
type MetricsPublisher struct {
	meter metric.Meter

	mu         sync.Mutex
	float64Ctr map[string]metric.Float64Counter
}

// NewMetricsPublisher constructs a publisher against the given
// meter.Meter. Passing nil uses a no-op SDK meter provider, so tests and
// the embedding example need not stand up a real exporter.
func NewMetricsPublisher(meter metric.Meter) *MetricsPublisher {
	if meter == nil {
		meter = sdkmetric.NewMeterProvider().Meter("github.com/tenzir/pipeline-core")
	}
	return &MetricsPublisher{meter: meter, float64Ctr: make(map[string]metric.Float64Counter)}
}

// Record adds value to the named counter for (operatorName,
// operatorIndex), creating the instrument on first use. The metric
// family this counter belongs to corresponds to one column of the
// reserved tenzir.metrics.v1 schema (SPEC_FULL.md §5): metric_name maps
// to name, value to value, operator_name/operator_index to the
// attributes recorded here.
func (p *MetricsPublisher) Record(ctx context.Context, operatorName string, operatorIndex int, name string, value float64) {
	ctr := p.counter(name)
	ctr.Add(ctx, value, metric.WithAttributes(
		attribute.String("operator_name", operatorName),
		attribute.Int("operator_index", operatorIndex),
		attribute.String("metric_name", name),
	))
}

func (p *MetricsPublisher) counter(name string) metric.Float64Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.float64Ctr[name]; ok {
		return c
	}
	c, err := p.meter.Float64Counter(name)
	if err != nil {
		// A malformed instrument name is a configuration error raised
		// once at registration time in the real SDK; since Record is
		// called from hot operator paths we fall back to a no-op
		// counter rather than propagating, matching how the teacher's
		// telemetry settings degrade to a no-op meter when instrument
		// creation fails.
		c, _ = sdkmetric.NewMeterProvider().Meter("fallback").Float64Counter(name)
	}
	p.float64Ctr[name] = c
	return c
}
