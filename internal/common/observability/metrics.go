package observability

import (
	"context"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	tracerProvider   *sdktrace.TracerProvider
	meter            otelmetric.Meter
	tracer           trace.Tracer
	messageCounter   otelmetric.Int64Counter
	responseDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	messageCounter, _ := meter.Int64Counter(
		"chat.messages.processed",
		otelmetric.WithDescription("Number of chat messages processed"),
	)

	responseDuration, _ := meter.Float64Histogram(
		"chat.response.duration",
		otelmetric.WithDescription("Chat response handling duration"),
		otelmetric.WithUnit("ms"),
	)

	tracerProvider := newTracerProvider(serviceName)
	otel.SetTracerProvider(tracerProvider)

	return &Observability{
		meterProvider:    provider,
		tracerProvider:   tracerProvider,
		meter:            meter,
		tracer:           tracerProvider.Tracer(serviceName),
		messageCounter:   messageCounter,
		responseDuration: responseDuration,
	}
}

// newTracerProvider builds a tracer provider that exports to Jaeger when a
// collector endpoint is reachable; spans stay local otherwise.
func newTracerProvider(serviceName string) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)

	endpoint := os.Getenv("JAEGER_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:14268/api/traces"
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		log.Printf("Failed to create Jaeger exporter: %v", err)
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
}

// StartSpan opens a span for one processing stage. Callers must End it.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name)
}

func (o *Observability) RecordMessageProcessed(ctx context.Context, outcome string) {
	if o.messageCounter != nil {
		o.messageCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordResponseDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o.responseDuration != nil {
		o.responseDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
}
