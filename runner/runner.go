package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kbukum/linepipe/catalog"
	"github.com/kbukum/linepipe/errors"
	"github.com/kbukum/linepipe/logger"
	"github.com/kbukum/linepipe/observability"
	"github.com/kbukum/linepipe/pipeline"
	"github.com/kbukum/linepipe/stats"
)

// Options describes one run.
type Options struct {
	// RunID identifies the run in logs and traces. Generated when empty.
	RunID      string
	Type       string
	Operations []string
	Workers    int
	// RateLimit caps records per second handed to workers; 0 is unlimited.
	RateLimit float64
	Measure   stats.Measure
	Distinct  stats.Mode
	// ProgressInterval is the minimum time between progress log lines;
	// 0 disables progress logging.
	ProgressInterval time.Duration
}

// Runner wires a record source, the configured transformation and a sink
// into one ordered, parallel run.
type Runner struct {
	log     *logger.Logger
	metrics *observability.RunMetrics
}

// New creates a Runner. A nil log falls back to the global logger; nil
// metrics disables metric recording.
func New(log *logger.Logger, metrics *observability.RunMetrics) *Runner {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Runner{log: log.WithComponent("runner"), metrics: metrics}
}

// Run transforms every record of src and hands the results to sink in
// source order. It takes ownership of src. On success it returns the run's
// statistics; on any failure the run stops and the summary is empty.
func (r *Runner) Run(ctx context.Context, src pipeline.Iterator[string], sink func(context.Context, string) error, opts Options) (stats.Summary, error) {
	kind, transform, err := r.prepare(opts)
	if err != nil {
		_ = src.Close()
		return stats.Summary{}, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := r.log.WithFields(logger.Fields(logger.FieldRunID, runID))

	rc := observability.NewRunContext(runID, string(kind), opts.Operations, opts.Workers, r.metrics)
	ctx = rc.Start(ctx)

	log.Debug("run started", logger.Fields(
		"type", string(kind),
		"operations", strings.Join(opts.Operations, ","),
		logger.FieldWorkers, opts.Workers,
	))

	st := stats.New(opts.Distinct)
	observe := func(_ context.Context, v string) error {
		st.Observe(v)
		return nil
	}

	var emitted int64
	progress := rate.Sometimes{Interval: opts.ProgressInterval}

	p := pipeline.From(src)
	if opts.Measure == stats.Input {
		// runs on the producer goroutine, which has exited once Drain returns
		p = pipeline.Tap(p, observe)
	}
	out := pipeline.Ordered(p, opts.Workers, transform.Func(), pipeline.WithRateLimit(opts.RateLimit))
	if opts.Measure != stats.Input {
		out = pipeline.Tap(out, observe)
	}
	out = pipeline.Tap(out, func(_ context.Context, _ string) error {
		emitted++
		if opts.ProgressInterval > 0 {
			progress.Do(func() {
				log.Info("progress", logger.Fields(
					logger.FieldRecords, emitted,
					"elapsed", rc.Duration().Round(time.Millisecond).String(),
				))
			})
		}
		return nil
	})

	err = pipeline.Drain(out, sink).Run(ctx)

	summary := st.Summary()
	code := errorCode(err)
	rc.End(ctx, emitted, summary.Distinct, code, err)

	if err != nil {
		log.WithError(err).Debug("run failed", logger.Fields(
			"code", code,
			logger.FieldRecords, emitted,
		))
		return stats.Summary{}, err
	}

	fields := logger.DurationFields("run", rc.Duration())
	fields[logger.FieldRecords] = summary.Total
	fields["distinct"] = summary.Distinct
	log.Info("run finished", fields)
	return summary, nil
}

// prepare resolves the element type and builds the transformation, rejecting
// a bad configuration before any record is read.
func (r *Runner) prepare(opts Options) (catalog.ElementType, pipeline.Transform[string], error) {
	kind, err := catalog.ParseElementType(opts.Type)
	if err != nil {
		return "", pipeline.Transform[string]{}, err
	}
	if opts.Workers <= 0 {
		return "", pipeline.Transform[string]{}, errors.InvalidConfig("pipeline.workers",
			fmt.Sprintf("worker count must be positive (got: %d)", opts.Workers))
	}
	transform, err := catalog.ForType(string(kind), opts.Operations)
	if err != nil {
		return "", pipeline.Transform[string]{}, err
	}
	if unknown := catalog.UnknownFor(kind, opts.Operations); len(unknown) > 0 {
		r.log.Warn("ignoring unknown operations", logger.Fields(
			"type", string(kind),
			"unknown", strings.Join(unknown, ","),
			"available", strings.Join(catalog.NamesFor(kind), ","),
		))
	}
	return kind, transform, nil
}

// errorCode names err for metrics and traces. It is empty for nil.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return "CANCELED"
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
