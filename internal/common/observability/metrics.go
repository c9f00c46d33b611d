package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"scholarship-portal/internal/common/logger"
)

type Observability struct {
	meterProvider      *metric.MeterProvider
	meter              otelmetric.Meter
	tracer             trace.Tracer
	submissionCounter  otelmetric.Int64Counter
	submissionDuration otelmetric.Float64Histogram
	uploadCounter      otelmetric.Int64Counter
}

// New wires an OpenTelemetry meter exported through the Prometheus registry.
// A failed exporter leaves a usable instance whose recorders are no-ops.
func New(serviceName string, log logger.Logger) *Observability {
	o := &Observability{tracer: otel.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	submissionCounter, _ := meter.Int64Counter(
		"form.submission.attempts",
		otelmetric.WithDescription("Number of application submissions"),
	)

	submissionDuration, _ := meter.Float64Histogram(
		"form.submission.latency",
		otelmetric.WithDescription("Submission duration"),
		otelmetric.WithUnit("ms"),
	)

	uploadCounter, _ := meter.Int64Counter(
		"form.document.uploads",
		otelmetric.WithDescription("Number of document uploads"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.submissionCounter = submissionCounter
	o.submissionDuration = submissionDuration
	o.uploadCounter = uploadCounter
	return o
}

// NewNoop returns an instance that records nothing, for tests and disabled metrics.
func NewNoop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// StartSpan opens a span on the configured tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("noop").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordSubmission(ctx context.Context, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.submissionCounter != nil {
		o.submissionCounter.Add(ctx, 1, attrs)
	}
	if o.submissionDuration != nil {
		o.submissionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordUpload(ctx context.Context, slot, outcome string) {
	if o == nil || o.uploadCounter == nil {
		return
	}
	o.uploadCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("slot", slot),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
