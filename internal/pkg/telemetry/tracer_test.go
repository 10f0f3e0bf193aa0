package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestInitTracerInstallsProvider(t *testing.T) {
	before := otel.GetTracerProvider()

	// the gRPC exporter dials lazily, so no collector is needed
	shutdown, err := InitTracer(context.Background(), "pinpoint-test", "127.0.0.1:4317")
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	defer shutdown()

	if otel.GetTracerProvider() == before {
		t.Error("global tracer provider was not replaced")
	}
	_, span := otel.Tracer(TracerName).Start(context.Background(), "smoke")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span with a valid context")
	}
	span.End()
}

func TestNewResourceCarriesServiceName(t *testing.T) {
	res, err := newResource(context.Background(), "pinpoint-test")
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	if res.SchemaURL() != "" {
		t.Errorf("schema URL = %q, want none so merges cannot conflict", res.SchemaURL())
	}
	v, ok := res.Set().Value(semconv.ServiceNameKey)
	if !ok || v.AsString() != "pinpoint-test" {
		t.Errorf("service.name = %q (present=%v)", v.AsString(), ok)
	}
	if _, err := resource.Merge(resource.Default(), res); err != nil {
		t.Errorf("merge with sdk default resource: %v", err)
	}
}
