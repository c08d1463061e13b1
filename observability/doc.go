// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs.
//
// Setup:
//
//	shutdown, err := observability.Init(ctx, cfg.Telemetry)
//	defer shutdown(ctx)
//
// Per run:
//
//	metrics, _ := observability.NewRunMetrics(observability.Meter("linepipe"))
//	rc := observability.NewRunContext(runID, "integer", ops, workers, metrics)
//	ctx = rc.Start(ctx)
//	defer rc.End(ctx, total, distinct, "", nil)
//
// With telemetry disabled the global providers are no-ops, so instrumented
// code needs no conditionals.
package observability
