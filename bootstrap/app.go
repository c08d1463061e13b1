package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/linepipe/logger"
)

// App carries the configuration, logger and lifecycle hooks of a finite
// command-line task.
//
// Example:
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnStart(initTelemetry)
//	app.OnStop(flushTelemetry)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return process(ctx)
//	})
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	gracefulTimeout time.Duration
	handleSignals   bool

	onStart []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config and initializes the logger.
// A validation error is returned unchanged so callers can map its code.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            cfg.GetName(),
		Version:         o.version,
		Cfg:             cfg,
		gracefulTimeout: 5 * time.Second,
		handleSignals:   o.handleSignals,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		lc := cfg.GetLogging()
		logger.Init(lc)
		app.Logger = logger.New(&lc, app.Name)
		logger.SetGlobalLogger(app.Logger)
	}
	return app, nil
}

// RunTask runs the start hooks, then task, then the stop hooks. SIGINT or
// SIGTERM cancels the task's context. Stop hooks run whenever the start
// hooks succeeded; the task's error takes precedence over a stop error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	a.Logger.Debug("starting", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.handleSignals {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case sig := <-sigCh:
				a.Logger.Warn("received signal, canceling run", map[string]interface{}{
					"signal": sig.String(),
				})
				cancel()
			case <-taskCtx.Done():
			}
		}()
	}

	start := time.Now()
	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}

	a.Logger.Debug("finished", logger.DurationFields("task", time.Since(start)))
	return taskErr
}

// stop runs the stop hooks in reverse order within the graceful timeout.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var stopErr error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil {
			a.Logger.Error("stop hook failed", map[string]interface{}{
				"error": err.Error(),
			})
			if stopErr == nil {
				stopErr = fmt.Errorf("stop: %w", err)
			}
		}
	}
	return stopErr
}
