package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	domrepo "GridPulse/internal/domain/repository"
	"GridPulse/internal/handler/api"
	"GridPulse/internal/repository"
	"GridPulse/internal/usecase"
	pkgch "GridPulse/pkg/clickhouse"
	"GridPulse/pkg/config"
	xhttp "GridPulse/pkg/http"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/metrics"
)

// StageServe runs the read-only feature API instead of a batch stage.
const StageServe = "serve"

// App encapsulates the application lifecycle.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	recorder *metrics.Recorder
	pipeline *usecase.Pipeline
	chClient *pkgch.Client
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	recorder *metrics.Recorder,
	pipeline *usecase.Pipeline,
	chClient *pkgch.Client,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:      cfg,
		log:      log,
		recorder: recorder,
		pipeline: pipeline,
		chClient: chClient,
	}
}

// Run dispatches to Serve or to a pipeline stage.
func (a *App) Run(ctx context.Context, stage string) error {
	if stage == StageServe {
		return a.Serve(ctx)
	}
	return a.RunStage(ctx, stage)
}

// RunStage runs one pipeline stage (or "all") to completion.
func (a *App) RunStage(ctx context.Context, stage string) error {
	a.log.Info("pipeline run started",
		applogger.String("stage", stage),
		applogger.String("run_id", a.pipeline.RunID()),
	)
	runErr := a.pipeline.Run(ctx, stage)

	if path := a.cfg.Metrics.Textfile; path != "" && a.recorder != nil {
		if err := a.recorder.WriteTextfile(path); err != nil {
			a.log.Warn("metrics textfile write failed", applogger.String("path", path), applogger.Error(err))
		}
	}
	if runErr != nil {
		return fmt.Errorf("stage %s: %w", stage, runErr)
	}
	a.log.Info("pipeline run finished", applogger.String("stage", stage))
	return nil
}

// Serve exposes the feature table over HTTP and blocks until ctx is
// cancelled or an interrupt is received.
func (a *App) Serve(ctx context.Context) error {
	store, err := a.featureStore()
	if err != nil {
		return err
	}

	handler := api.NewFeaturesEchoHandler(a.log, usecase.NewFeaturesUseCase(store))
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled && a.recorder != nil {
		opts = append(opts, xhttp.WithMetrics(a.cfg.Metrics.Path, a.recorder.Handler(), a.recorder.Registry()))
	}
	srv := xhttp.NewServer(handler, a.log, opts...)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	a.log.Info("shutdown signal received")
	if err := srv.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	return nil
}

// featureStore reads from ClickHouse when it is enabled, otherwise from the
// feature CSV produced by the last run.
func (a *App) featureStore() (domrepo.FeatureStore, error) {
	if a.chClient != nil {
		return repository.NewCHFeatureStore(a.chClient.DB(), a.chClient.Database(), a.log), nil
	}
	path := a.pipeline.Paths().Features()
	store, err := repository.LoadMemoryFeatureStore(path)
	if err != nil {
		return nil, fmt.Errorf("load features from %s: %w", path, err)
	}
	a.log.Info("serving features from file", applogger.String("path", path))
	return store, nil
}

// Close releases the pipeline sinks and infrastructure clients.
func (a *App) Close() error {
	var errs []error
	if a.pipeline != nil {
		errs = append(errs, a.pipeline.Close())
	}
	if a.chClient != nil {
		errs = append(errs, a.chClient.Close())
	}
	return errors.Join(errs...)
}
