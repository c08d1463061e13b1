package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunContext holds observability state for one pipeline run.
type RunContext struct {
	RunID       string
	ElementType string
	Operations  []string
	Workers     int
	StartTime   time.Time
	Metrics     *RunMetrics

	span trace.Span
}

// NewRunContext creates a run context. If metrics is nil, metric recording is
// skipped.
func NewRunContext(runID, elementType string, operations []string, workers int, metrics *RunMetrics) *RunContext {
	return &RunContext{
		RunID:       runID,
		ElementType: elementType,
		Operations:  operations,
		Workers:     workers,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Start opens the run span and returns a context carrying both the span and
// the run context.
func (rc *RunContext) Start(ctx context.Context) context.Context {
	ctx, span := StartSpan(ctx, SpanRun, trace.WithAttributes(
		attribute.String(AttrRunID, rc.RunID),
		attribute.String(AttrElementType, rc.ElementType),
		attribute.StringSlice(AttrOperations, rc.Operations),
		attribute.Int(AttrWorkers, rc.Workers),
	))
	rc.span = span
	return WithRunContext(ctx, rc)
}

// End closes the run span and records run metrics. errCode is empty for a
// successful run.
func (rc *RunContext) End(ctx context.Context, records int64, distinct int, errCode string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	if rc.span != nil {
		rc.span.SetAttributes(
			attribute.Int64(AttrRecords, records),
			attribute.Int(AttrDistinct, distinct),
			attribute.String(AttrStatus, status),
		)
		if err != nil {
			SetSpanError(trace.ContextWithSpan(ctx, rc.span), err)
			rc.span.SetAttributes(attribute.String(AttrErrorCode, errCode))
		}
		rc.span.End()
	}

	rc.Metrics.RecordRecords(ctx, rc.ElementType, records)
	if err != nil {
		rc.Metrics.RecordFault(ctx, rc.ElementType, errCode)
	}
	rc.Metrics.RecordRun(ctx, rc.ElementType, status, rc.Duration())
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
