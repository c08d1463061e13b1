package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/linepipe/logger"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(newResource(cfg)),
	)

	otel.SetMeterProvider(mp)

	logger.Debug("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// RunMetrics holds the instruments recorded by a pipeline run.
type RunMetrics struct {
	recordsProcessed metric.Int64Counter
	recordsFaults    metric.Int64Counter
	runDuration      metric.Float64Histogram
}

// NewRunMetrics creates the run instruments on the given meter.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	processed, err := meter.Int64Counter("records.processed",
		metric.WithDescription("Records emitted by the pipeline"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating records.processed counter: %w", err)
	}

	faults, err := meter.Int64Counter("records.faults",
		metric.WithDescription("Runs aborted by an error, by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating records.faults counter: %w", err)
	}

	duration, err := meter.Float64Histogram("run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run.duration histogram: %w", err)
	}

	return &RunMetrics{
		recordsProcessed: processed,
		recordsFaults:    faults,
		runDuration:      duration,
	}, nil
}

// RecordRecords adds n emitted records for the given element type.
func (m *RunMetrics) RecordRecords(ctx context.Context, elementType string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.recordsProcessed.Add(ctx, n, metric.WithAttributes(
		attribute.String(AttrElementType, elementType),
	))
}

// RecordFault counts an aborted run by error code.
func (m *RunMetrics) RecordFault(ctx context.Context, elementType, code string) {
	if m == nil {
		return
	}
	m.recordsFaults.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrElementType, elementType),
		attribute.String(AttrErrorCode, code),
	))
}

// RecordRun records the duration of a finished run.
func (m *RunMetrics) RecordRun(ctx context.Context, elementType, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrElementType, elementType),
		attribute.String(AttrStatus, status),
	))
}
