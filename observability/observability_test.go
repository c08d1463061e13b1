package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("test-service")

	if cfg.Enabled {
		t.Error("expected telemetry disabled by default")
	}
	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.ServiceName != "linepipe" {
		t.Errorf("expected ServiceName 'linepipe', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint == "" || cfg.Interval == 0 {
		t.Errorf("expected endpoint and interval defaults, got %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"enabled", Config{Enabled: true, Endpoint: "collector:4318", SampleRate: 0.5}, false},
		{"enabled without endpoint", Config{Enabled: true}, true},
		{"sample rate above one", Config{SampleRate: 1.5}, true},
		{"negative sample rate", Config{SampleRate: -0.1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}

func TestInit_Enabled(t *testing.T) {
	defer otel.SetTracerProvider(tracenoop.NewTracerProvider())
	defer otel.SetMeterProvider(noop.NewMeterProvider())

	cfg := DefaultConfig("test")
	cfg.Enabled = true

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// no collector is listening; only the code path matters here
	_ = shutdown(ctx)
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.rate), func(t *testing.T) {
			if got := samplerFor(tc.rate).Description(); got != tc.want {
				t.Errorf("samplerFor(%v) = %q, want %q", tc.rate, got, tc.want)
			}
		})
	}
}

func TestNewResource(t *testing.T) {
	res := newResource(Config{ServiceName: "svc", ServiceVersion: "1.2.3", Environment: "test"})
	v, ok := res.Set().Value(AttrServiceName)
	if !ok || v.AsString() != "svc" {
		t.Errorf("expected service.name 'svc', got %v", v)
	}
}

func TestNewRunMetrics_Noop(t *testing.T) {
	m, err := NewRunMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	m.RecordRecords(ctx, "text", 3)
	m.RecordFault(ctx, "text", "PARSE_ERROR")
	m.RecordRun(ctx, "text", "ok", time.Millisecond)
}

func TestRunMetrics_NilSafe(t *testing.T) {
	var m *RunMetrics
	ctx := context.Background()
	m.RecordRecords(ctx, "text", 1)
	m.RecordFault(ctx, "text", "IO_ERROR")
	m.RecordRun(ctx, "text", "error", time.Second)
}

func TestRunMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewRunMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	m.RecordRecords(ctx, "integer", 3)
	m.RecordRecords(ctx, "integer", 2)
	m.RecordFault(ctx, "integer", "TRANSFORM_FAULT")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if got := sumValue(t, rm, "records.processed"); got != 5 {
		t.Errorf("expected records.processed 5, got %d", got)
	}
	if got := sumValue(t, rm, "records.faults"); got != 1 {
		t.Errorf("expected records.faults 1, got %d", got)
	}
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is %T, not an int64 sum", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestRunContextFromContext(t *testing.T) {
	rc := NewRunContext("run-1", "text", []string{"reverse"}, 2, nil)
	ctx := WithRunContext(context.Background(), rc)

	if got := RunContextFromContext(ctx); got != rc {
		t.Error("expected run context from context")
	}
	if RunContextFromContext(context.Background()) != nil {
		t.Error("expected nil when run context not set")
	}
}

func TestRunContext_Span(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(tracenoop.NewTracerProvider())

	rc := NewRunContext("run-42", "integer", []string{"reverse", "neg"}, 4, nil)
	ctx := rc.Start(context.Background())
	rc.End(ctx, 3, 3, "", nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != SpanRun {
		t.Errorf("expected span %q, got %q", SpanRun, span.Name())
	}
	attrs := attribute.NewSet(span.Attributes()...)
	if v, _ := attrs.Value(AttrRunID); v.AsString() != "run-42" {
		t.Errorf("expected run id attribute, got %v", v)
	}
	if v, _ := attrs.Value(AttrRecords); v.AsInt64() != 3 {
		t.Errorf("expected records attribute 3, got %v", v)
	}
	if v, _ := attrs.Value(AttrStatus); v.AsString() != "ok" {
		t.Errorf("expected status ok, got %v", v)
	}
}

func TestRunContext_SpanError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(tracenoop.NewTracerProvider())

	rc := NewRunContext("run-1", "text", nil, 1, nil)
	ctx := rc.Start(context.Background())
	rc.End(ctx, 0, 0, "IO_ERROR", fmt.Errorf("disk gone"))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
	if st := spans[0].Status(); st.Code != codes.Error || st.Description != "disk gone" {
		t.Errorf("expected error status, got %+v", st)
	}
	attrs := attribute.NewSet(spans[0].Attributes()...)
	if v, _ := attrs.Value(AttrErrorCode); v.AsString() != "IO_ERROR" {
		t.Errorf("expected error code attribute, got %v", v)
	}
}

func TestRunContext_Duration(t *testing.T) {
	rc := NewRunContext("run-1", "text", nil, 1, nil)
	rc.StartTime = time.Now().Add(-50 * time.Millisecond)

	d := rc.Duration()
	if d < 45*time.Millisecond || d > 500*time.Millisecond {
		t.Errorf("expected duration around 50ms, got %v", d)
	}
}

func TestSetSpanErrorNoSpan(t *testing.T) {
	// background context has no recording span; must not panic
	SetSpanError(context.Background(), fmt.Errorf("x"))
}
