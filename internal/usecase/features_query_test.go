package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/repository"
	xhttp "GridPulse/pkg/http"
	"GridPulse/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featureStore() *repository.MemoryFeatureStore {
	var recs []models.DailyFeatureRecord
	for d := 1; d <= 20; d++ {
		recs = append(recs, models.DailyFeatureRecord{
			Date:        time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC),
			Region:      models.RegionQLD,
			MeanPrice:   util.Float64(float64(d)),
			AnomalyFlag: d%5 == 0,
		})
	}
	return repository.NewMemoryFeatureStore(recs)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *xhttp.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Status
}

func TestGetFeaturesRange(t *testing.T) {
	uc := NewFeaturesUseCase(featureStore())
	res, err := uc.GetFeatures(context.Background(), GetFeaturesParams{
		Region: models.RegionQLD,
		From:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, 5.0, *res.Features[0].MeanPrice)
	assert.Equal(t, 9.0, *res.Features[4].MeanPrice)
}

func TestGetFeaturesErrors(t *testing.T) {
	uc := NewFeaturesUseCase(featureStore())
	ctx := context.Background()

	_, err := uc.GetFeatures(ctx, GetFeaturesParams{})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = uc.GetFeatures(ctx, GetFeaturesParams{
		Region: models.RegionQLD,
		From:   time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = uc.GetFeatures(ctx, GetFeaturesParams{Region: models.RegionTAS})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 500, clampLimit(0, 500))
	assert.Equal(t, 7, clampLimit(7, 500))
	assert.Equal(t, maxFeatureLimit, clampLimit(maxFeatureLimit+1, 500))

	uc := NewFeaturesUseCase(featureStore())
	recs, err := uc.GetAnomalies(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 20, recs[0].Date.Day())
	assert.Equal(t, 15, recs[1].Date.Day())
}
