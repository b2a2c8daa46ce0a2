package service

import (
	"context"

	"GridPulse/internal/domain/models"
)

// Fetcher downloads one raw public dataset.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.Frame, error)
}

// Summarizer turns recent joined rows for a region into prose.
type Summarizer interface {
	Summarize(ctx context.Context, region models.Region, rows []models.JoinedRecord) (string, error)
}
