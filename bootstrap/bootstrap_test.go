package bootstrap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/linepipe/config"
	"github.com/kbukum/linepipe/errors"
	"github.com/kbukum/linepipe/logger"
)

func newTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Name = "test-app"
	cfg.Pipeline.Workers = 2
	return &cfg
}

func newTestApp(t *testing.T) *App[*config.Config] {
	t.Helper()
	app, err := NewApp(newTestConfig(), WithLogger(logger.Nop()), WithoutSignals(), WithVersion("1.0.0"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-app" {
		t.Errorf("expected name 'test-app', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	// Config is typed
	if app.Cfg.Pipeline.Workers != 2 {
		t.Errorf("expected workers 2, got %d", app.Cfg.Pipeline.Workers)
	}
}

func TestNewApp_InitializesLogger(t *testing.T) {
	app, err := NewApp(newTestConfig(), WithoutSignals())
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetGlobalLogger() != app.Logger {
		t.Error("expected the app logger to become the global logger")
	}
	logger.SetGlobalLogger(logger.Nop())
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := newTestConfig()
	cfg.Pipeline.Workers = 0
	_, err := NewApp(cfg, WithLogger(logger.Nop()))
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestRunTask_HookOrder(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	record := func(name string) Hook {
		return func(context.Context) error {
			calls = append(calls, name)
			return nil
		}
	}
	app.OnStart(record("start1"), record("start2"))
	app.OnStop(record("stop1"), record("stop2"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		calls = append(calls, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"start1", "start2", "task", "stop2", "stop1"}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, calls)
	}
}

func TestRunTask_StartHookFails(t *testing.T) {
	app := newTestApp(t)
	app.OnStart(func(context.Context) error { return fmt.Errorf("no exporter") })
	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil {
		t.Fatal("expected start error")
	}
	if ran {
		t.Error("task must not run when a start hook fails")
	}
}

func TestRunTask_TaskErrorWins(t *testing.T) {
	app := newTestApp(t)
	app.OnStop(func(context.Context) error { return fmt.Errorf("flush failed") })
	taskErr := errors.IOFailed("read input", fmt.Errorf("eof"))

	err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
	if err != taskErr {
		t.Errorf("expected the task error, got %v", err)
	}
}

func TestRunTask_StopErrorReported(t *testing.T) {
	app := newTestApp(t)
	stopped := 0
	app.OnStop(
		func(context.Context) error { stopped++; return nil },
		func(context.Context) error { stopped++; return fmt.Errorf("flush failed") },
	)
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected stop error")
	}
	if stopped != 2 {
		t.Errorf("expected every stop hook to run, got %d", stopped)
	}
}

func TestRunTask_ContextCanceled(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.RunTask(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunTask_GracefulTimeout(t *testing.T) {
	app, err := NewApp(newTestConfig(), WithLogger(logger.Nop()), WithoutSignals(),
		WithGracefulTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	app.OnStop(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Error("expected the stop hook to hit the graceful timeout")
	}
}
