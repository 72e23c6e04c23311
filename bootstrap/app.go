package bootstrap

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/boundq/component"
	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/logger"
)

// DefaultGracefulTimeout bounds component shutdown after the task.
const DefaultGracefulTimeout = 15 * time.Second

// App runs one finite task with uniform lifecycle management: components
// start before it, hooks run around it, and everything stops after it.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(observability.NewComponent(cfg.Telemetry))
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return run(ctx, app.Summary)
//	})
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	summaryOut      io.Writer

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults, validates cfg and initialises the logger.
// Validation failures are returned unchanged.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.GetServiceConfig()

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: DefaultGracefulTimeout,
		summaryOut:      os.Stdout,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.summarySet {
		app.summaryOut = o.summaryOut
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	app.Components = component.NewRegistry(app.Logger)
	app.Summary = NewSummary(base.Name, base.Version)
	return app, nil
}

// RegisterComponent adds a component to the application's registry.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// RunTask starts components, runs OnStart hooks, then task. SIGINT and
// SIGTERM cancel the context task receives. Afterwards the summary is
// written, OnStop hooks run and components stop. The task error wins over
// shutdown errors.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return a.abort(errors.Internal(err).WithDetail(logger.FieldOperation, "start components"))
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return a.abort(err)
	}

	taskCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	taskErr := task(taskCtx)
	if taskCtx.Err() != nil && ctx.Err() == nil {
		a.Logger.Info("task interrupted by signal")
	}
	stop()

	a.Summary.SetDuration(time.Since(start))
	a.Summary.SetStatus(statusOf(taskErr))
	a.DisplaySummary(ctx)

	if stopErr := a.shutdown(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// DisplaySummary writes the summary with live component health.
func (a *App[C]) DisplaySummary(ctx context.Context) {
	if a.summaryOut == nil {
		return
	}
	a.Summary.Render(a.summaryOut, a.Components.HealthAll(ctx))
}

// Shutdown stops components when the caller manages the lifecycle itself.
func (a *App[C]) Shutdown() error {
	return a.shutdown()
}

func (a *App[C]) abort(err error) error {
	a.Logger.WithError(err).Error("startup failed")
	_ = a.shutdown()
	return err
}

// shutdown runs OnStop hooks and stops components within the graceful timeout.
func (a *App[C]) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.WithError(err).Error("stop hook failed")
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.WithError(err).Error("shutdown completed with errors")
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	a.Logger.Debug("shutdown complete")
	return shutdownErr
}

func statusOf(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "failed"
}
