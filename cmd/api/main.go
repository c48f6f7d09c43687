package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/dgbp-backend/config"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/logging"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Setup(ctx, observability.Options{
		Endpoint:       cfg.OTel.Endpoint,
		Headers:        cfg.OTel.Headers,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
	})
	if err != nil {
		return err
	}
	logging.Setup(logging.Options{
		Environment: cfg.App.Environment,
		Level:       cfg.App.LogLevel,
		Export:      telemetry != nil,
		ServiceName: cfg.App.Name,
	})
	bootstrap.SetGinMode(cfg.App.Environment)

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "store", cfg.Store.Backend, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return telemetry.Shutdown(shutdownCtx)
}
