package tracer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

func TestProvider_Exporter(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p := New(Config{Exporter: exp})
	defer p.Shutdown(context.Background())

	_, span := p.Tracer().Start(context.Background(), "worldsave.save")
	span.SetAttributes(attribute.Int("layers", 2))
	End(span, errors.New("disk full"))

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	if spans[0].Name != "worldsave.save" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
}

func TestProvider_LogExporter(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	defer logger.SetLevel("info")

	p := New(Config{Logger: l})
	_, span := p.Tracer().Start(context.Background(), "worldsave.load")
	End(span, nil)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if !strings.Contains(buf.String(), `"span":"worldsave.load"`) {
		t.Errorf("log output missing span: %s", buf.String())
	}
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	_, span := p.Tracer().Start(context.Background(), "x")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}
