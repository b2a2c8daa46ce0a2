package usecase

import (
	"strings"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeRegions(t *testing.T) {
	d := func(n int) time.Time { return time.Date(2025, 1, n, 0, 0, 0, 0, time.UTC) }
	recs := []models.DailyFeatureRecord{
		{Date: d(2), Region: models.RegionVIC, MeanPrice: util.Float64(40)},
		{Date: d(1), Region: models.RegionNSW, MeanPrice: util.Float64(50), MeanEmissionsIntensity: util.Float64(0.8)},
		{Date: d(2), Region: models.RegionNSW, MeanPrice: util.Float64(70), AnomalyFlag: true, AnomalyScore: util.Float64(4.2)},
	}
	got := SummarizeRegions(recs)
	require.Len(t, got, 2)

	assert.Equal(t, models.RegionNSW, got[0].Region)
	assert.Equal(t, 2, got[0].Days)
	assert.Equal(t, "2025-01-01", got[0].First)
	assert.Equal(t, "2025-01-02", got[0].Last)
	assert.Equal(t, 60.0, *got[0].MeanPrice)
	assert.Equal(t, 0.8, *got[0].MeanEmissions)
	assert.Equal(t, 1, got[0].Anomalies)

	assert.Nil(t, got[1].MeanEmissions)

	var sb strings.Builder
	require.NoError(t, WriteReport(&sb, recs, nil))
	out := sb.String()
	assert.Contains(t, out, "NSW1")
	assert.Contains(t, out, "60.00")
	assert.Contains(t, out, "4.20")
	assert.Contains(t, out, "## Anomalous days")
	assert.NotContains(t, out, "## Market statistics")
}

func TestWriteReportWithStats(t *testing.T) {
	d := func(n int) time.Time { return time.Date(2025, 1, n, 0, 0, 0, 0, time.UTC) }
	recs := []models.DailyFeatureRecord{{Date: d(1), Region: models.RegionSA, MeanPrice: util.Float64(90)}}
	stats := []models.DailyStatsRecord{
		{Date: d(1), Region: models.RegionSA, PriceMean: util.Float64(900), PriceMADZ: util.Float64(12.5), IsPriceOutlier: true},
		{
			Date: d(2), Region: models.RegionSA, PriceMedian: util.Float64(88), PriceMin: util.Float64(-20), PriceMax: util.Float64(410),
			SupplyMarginPercent: util.Float64(0.125), ForecastError: util.Float64(-35.25), DemandPriceCorr: util.Float64(0.61),
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteReport(&sb, recs, stats))
	out := sb.String()
	assert.Contains(t, out, "## Market statistics (latest day)")
	assert.Contains(t, out, "2025-01-02")
	assert.Contains(t, out, "88.00")
	assert.Contains(t, out, "410.00")
	assert.Contains(t, out, "12.5%")
	assert.Contains(t, out, "0.61")
	assert.Contains(t, out, "## Price outliers")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "## Anomalous days\n\n_None_")
}

func TestWriteReportEmpty(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteReport(&sb, nil, nil))
	assert.Contains(t, sb.String(), "_No feature rows_")
}
