package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/dgbp-backend/config"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/logging"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/observability"
)

const usage = "usage: worker reconcile|sweep"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "reconcile":
		err = withApp(reconcile)
	case "sweep":
		err = withApp(sweep)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("worker failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func withApp(fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Setup(ctx, observability.Options{
		Endpoint:       cfg.OTel.Endpoint,
		Headers:        cfg.OTel.Headers,
		ServiceName:    cfg.App.Name + "-worker",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
	})
	if err != nil {
		return err
	}
	defer telemetry.Shutdown(context.Background())
	logging.Setup(logging.Options{
		Environment: cfg.App.Environment,
		Level:       cfg.App.LogLevel,
		Export:      telemetry != nil,
		ServiceName: cfg.App.Name + "-worker",
	})

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx = logging.WithFields(ctx, logging.Fields{Component: "reconciler"})
	return fn(ctx, app)
}

// reconcile runs the sweep on the configured schedule until interrupted.
func reconcile(ctx context.Context, app *bootstrap.App) error {
	c, err := app.Reconciler.Start(ctx, app.Config.Deploy.ReconcileSchedule)
	if err != nil {
		return err
	}
	<-ctx.Done()
	slog.Info("stopping reconciler")
	<-c.Stop().Done()
	return nil
}

// sweep runs a single pass, for use from an external scheduler.
func sweep(ctx context.Context, app *bootstrap.App) error {
	stats, err := app.Reconciler.Sweep(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "sweep finished",
		"checked", stats.Checked,
		"terminal", stats.Terminal,
		"stale", stats.Stale,
		"failed", stats.Failed)
	return nil
}
