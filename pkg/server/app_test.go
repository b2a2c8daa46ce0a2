package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/repository"
	"GridPulse/internal/services/features"
	"GridPulse/internal/usecase"
	"GridPulse/pkg/config"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyFetcher struct{}

func (emptyFetcher) Fetch(context.Context) (*models.Frame, error) {
	return &models.Frame{}, nil
}

func newTestApp(t *testing.T) (*App, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.RawDir = filepath.Join(dir, "raw")
	cfg.Paths.ProcessedDir = filepath.Join(dir, "processed")
	cfg.Metrics.Textfile = filepath.Join(dir, "gridpulse.prom")

	engine, err := features.NewEngine(features.DefaultConfig(), applogger.Nop())
	require.NoError(t, err)

	rec := metrics.New()
	p := usecase.NewPipeline(
		usecase.Paths{RawDir: cfg.Paths.RawDir, ProcessedDir: cfg.Paths.ProcessedDir},
		emptyFetcher{}, emptyFetcher{},
		usecase.CleanOptions{},
		engine, applogger.Nop(),
		usecase.WithMetrics(rec),
	)
	return New(cfg, applogger.Nop(), rec, p, nil), cfg
}

func TestRunStageUnknownWritesTextfile(t *testing.T) {
	app, cfg := newTestApp(t)

	err := app.Run(context.Background(), "bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrUnknownStage)

	_, statErr := os.Stat(cfg.Metrics.Textfile)
	assert.NoError(t, statErr)
	assert.NoError(t, app.Close())
}

func TestRunStageMissingInputFails(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.RunStage(context.Background(), usecase.StageFeatures)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage features")
}

func TestFeatureStoreFallsBackToFeatureFile(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := app.featureStore()
	require.Error(t, err)

	path := app.pipeline.Paths().Features()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	mean := 51.5
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []models.DailyFeatureRecord{{Date: day, Region: "NSW1", MeanPrice: &mean}}
	require.NoError(t, repository.WriteFrame(path, repository.EncodeFeatures(recs)))

	store, err := app.featureStore()
	require.NoError(t, err)
	assert.Equal(t, []models.Region{"NSW1"}, store.Regions(context.Background()))

	got, err := store.Features(context.Background(), "NSW1", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].MeanPrice)
	assert.InDelta(t, 51.5, *got[0].MeanPrice, 1e-9)
}
