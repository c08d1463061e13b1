// Package bootstrap runs a finite command-line task with a uniform
// lifecycle: defaults and validation of a typed config, logger setup, start
// hooks, signal-driven cancellation and stop hooks bounded by a graceful
// timeout.
//
//	app, err := bootstrap.NewApp(cfg, bootstrap.WithVersion(version.Get().Short()))
//	if err != nil {
//	    return err
//	}
//	app.OnStart(func(ctx context.Context) error { ... })
//	return app.RunTask(ctx, run)
package bootstrap
