package repository

import (
	"context"
	"time"

	"GridPulse/internal/domain/models"
)

// Sink receives a fully materialized table. Each Write replaces what the
// sink previously held for that table name.
type Sink interface {
	Name() string
	Write(ctx context.Context, t *models.Table) error
	Close() error
}

// EventPublisher emits anomaly events to downstream consumers.
type EventPublisher interface {
	PublishAnomalies(ctx context.Context, events []models.AnomalyEvent) error
	Close() error
}

// ObjectStore archives produced files.
type ObjectStore interface {
	Upload(ctx context.Context, key, path string) error
}

// FeatureStore provides read-only access to the daily feature table.
type FeatureStore interface {
	Features(ctx context.Context, region models.Region, from, to time.Time, limit int) ([]models.DailyFeatureRecord, error)
	Anomalies(ctx context.Context, region models.Region, limit int) ([]models.DailyFeatureRecord, error)
	Regions(ctx context.Context) []models.Region
}

// Metrics records pipeline stage outcomes.
type Metrics interface {
	RecordStage(stage string, seconds float64, err error)
	RecordRows(stage, direction string, n int)
	RecordAnomalies(region string, n int)
}
