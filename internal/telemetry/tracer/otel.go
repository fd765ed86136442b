package tracer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// Name is the instrumentation scope of engine spans.
const Name = "github.com/yndnr/worldsave-go"

// Config configures the tracer provider.
type Config struct {
	ServiceName string
	// SampleRatio is the fraction of root spans sampled; 0 means always.
	SampleRatio float64
	// Exporter receives finished spans. Nil logs them.
	Exporter sdktrace.SpanExporter
	Logger   logger.Logger
}

// Provider manages the OpenTelemetry tracer provider.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// New creates a tracer provider.
func New(cfg Config) *Provider {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "worldsave"
	}
	exporter := cfg.Exporter
	if exporter == nil {
		exporter = &logExporter{logger: cfg.Logger}
	}
	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	return &Provider{tp: tp, tracer: tp.Tracer(Name)}
}

// Tracer returns the engine tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return Noop()
	}
	return p.tracer
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Noop returns a tracer that records nothing.
func Noop() trace.Tracer {
	return noop.NewTracerProvider().Tracer(Name)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// logExporter writes finished spans to the logger.
type logExporter struct {
	logger logger.Logger
}

func (e *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	l := e.logger
	if l == nil {
		l = logger.Default()
	}
	for _, s := range spans {
		args := []any{
			"span", s.Name(),
			"trace_id", s.SpanContext().TraceID().String(),
			"span_id", s.SpanContext().SpanID().String(),
			"duration", s.EndTime().Sub(s.StartTime()).Round(time.Microsecond).String(),
			"status", s.Status().Code.String(),
		}
		for _, kv := range s.Attributes() {
			args = append(args, string(kv.Key), kv.Value.Emit())
		}
		l.Debug("span finished", args...)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error { return nil }
