package usecase

import (
	"context"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
	xhttp "GridPulse/pkg/http"
)

const (
	defaultFeatureLimit = 500
	maxFeatureLimit     = 5000
)

// FeaturesUseCase answers read queries over the daily feature table.
type FeaturesUseCase struct {
	store domrepo.FeatureStore
}

func NewFeaturesUseCase(store domrepo.FeatureStore) *FeaturesUseCase {
	return &FeaturesUseCase{store: store}
}

type GetFeaturesParams struct {
	Region models.Region
	From   time.Time
	To     time.Time
	Limit  int
}

type GetFeaturesResult struct {
	Region   models.Region
	From     time.Time
	To       time.Time
	Count    int
	Features []models.DailyFeatureRecord
}

// GetFeatures returns feature rows of one region, oldest first. Zero From or
// To leave that end of the range open.
func (uc *FeaturesUseCase) GetFeatures(ctx context.Context, p GetFeaturesParams) (*GetFeaturesResult, error) {
	if p.Region == "" {
		return nil, xhttp.BadRequestError("region", "region required")
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, xhttp.BadRequestError("from", "from must not be after to")
	}
	if !uc.known(ctx, p.Region) {
		return nil, xhttp.NotFoundErrorf("no features for region %s", p.Region).WithParam("region", string(p.Region))
	}
	p.Limit = clampLimit(p.Limit, defaultFeatureLimit)

	recs, err := uc.store.Features(ctx, p.Region, p.From, p.To, p.Limit)
	if err != nil {
		return nil, xhttp.InternalError("get features").WithError(err)
	}
	if len(recs) > p.Limit {
		recs = recs[:p.Limit]
	}

	return &GetFeaturesResult{
		Region:   p.Region,
		From:     p.From,
		To:       p.To,
		Count:    len(recs),
		Features: recs,
	}, nil
}

// GetAnomalies returns flagged days, newest first. An empty region means all regions.
func (uc *FeaturesUseCase) GetAnomalies(ctx context.Context, region models.Region, limit int) ([]models.DailyFeatureRecord, error) {
	limit = clampLimit(limit, 100)
	recs, err := uc.store.Anomalies(ctx, region, limit)
	if err != nil {
		return nil, xhttp.InternalError("get anomalies").WithError(err)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Regions lists the regions present in the store.
func (uc *FeaturesUseCase) Regions(ctx context.Context) []models.Region {
	return uc.store.Regions(ctx)
}

func (uc *FeaturesUseCase) known(ctx context.Context, region models.Region) bool {
	for _, r := range uc.store.Regions(ctx) {
		if r == region {
			return true
		}
	}
	return false
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxFeatureLimit {
		return maxFeatureLimit
	}
	return limit
}
