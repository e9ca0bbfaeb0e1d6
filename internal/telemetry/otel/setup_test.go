package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, endpoint, "test-service", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Errorf("NewProviders(%q) left a provider nil", endpoint)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be no-op for empty endpoint, got error: %v", err)
		}
	}
}

func TestNewProviders_InvalidURL(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name     string
		endpoint string
	}{
		{"invalid characters", "://invalid"},
		{"malformed URL", "http://[invalid"},
		{"missing host", "http://"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewProviders(ctx, tc.endpoint, "test-service", false); err == nil {
				t.Errorf("NewProviders(%q) should return error", tc.endpoint)
			}
		})
	}
}

func TestNewProviders_ValidEndpoints(t *testing.T) {
	ctx := context.Background()
	// gRPC exporters dial lazily, so construction succeeds without a collector.
	testCases := []struct {
		name     string
		endpoint string
		insecure bool
	}{
		{"without protocol", "localhost:4317", false},
		{"http", "http://localhost:4317", false},
		{"https", "https://localhost:4317", false},
		{"https insecure override", "https://localhost:4317", true},
		{"with path", "http://localhost:4317/v1/traces", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			providers, err := NewProviders(ctx, tc.endpoint, "test-service", tc.insecure)
			if err != nil {
				t.Skipf("exporter creation failed in this environment: %v", err)
			}
			shutdownCtx, cancel := context.WithCancel(ctx)
			cancel()
			_ = providers.Shutdown(shutdownCtx)
		})
	}
}

func TestSetGlobal(t *testing.T) {
	oldTracerProvider := otel.GetTracerProvider()
	oldMeterProvider := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracerProvider)
		otel.SetMeterProvider(oldMeterProvider)
	}()

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	providers := &Providers{TracerProvider: tp}
	providers.SetGlobal()

	if otel.GetTracerProvider() != tp {
		t.Error("TracerProvider should be updated")
	}
	if otel.GetMeterProvider() != oldMeterProvider {
		t.Error("MeterProvider should not be updated when nil")
	}

	var nilProviders *Providers
	nilProviders.SetGlobal()
}

func TestProviders_Tracer(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	_, span := providers.Tracer().Start(context.Background(), "test")
	if !span.SpanContext().IsValid() {
		t.Error("sdk tracer should produce valid span contexts")
	}
	span.End()

	var nilProviders *Providers
	if nilProviders.Tracer() == nil {
		t.Error("nil providers should fall back to the global tracer")
	}
}

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		name         string
		endpoint     string
		override     bool
		wantTarget   string
		wantInsecure bool
	}{
		{"bare host", "collector:4317", false, "collector:4317", true},
		{"http", "http://collector:4317", false, "collector:4317", true},
		{"https", "https://collector:4317", false, "collector:4317", false},
		{"https forced insecure", "https://collector:4317", true, "collector:4317", true},
		{"path dropped", "https://collector:4317/v1/traces", false, "collector:4317", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := parseEndpoint(tc.endpoint, tc.override)
			if err != nil {
				t.Fatalf("parseEndpoint: %v", err)
			}
			if c.target != tc.wantTarget || c.insecure != tc.wantInsecure {
				t.Errorf("parseEndpoint(%q) = %+v, want target %q insecure %v", tc.endpoint, c, tc.wantTarget, tc.wantInsecure)
			}
		})
	}
}
