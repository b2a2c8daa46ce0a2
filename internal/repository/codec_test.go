package repository

import (
	"errors"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJoinedRequiresContractColumns(t *testing.T) {
	f := models.NewFrame([]string{"timestamp", "region", "price"}, nil)
	_, err := DecodeJoined(f, "joined.csv")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMissingColumns))
	var se *models.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"demand", "emissions_intensity"}, se.Missing)
}

func TestDecodeJoinedKeepsAbsentMetrics(t *testing.T) {
	f := models.NewFrame(
		[]string{"timestamp", "region", "price", "demand", "emissions_intensity"},
		[][]string{
			{"2025-01-02 00:05:00", "SA1", "", "1200", "0.31"},
			{"2025-01-02 00:10:00", "SA1", "88.5", "", ""},
		},
	)
	recs, err := DecodeJoined(f, "joined.csv")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Nil(t, recs[0].Price)
	assert.Equal(t, 0.31, *recs[0].EmissionsIntensity)
	assert.Equal(t, 88.5, *recs[1].Price)
	assert.Nil(t, recs[1].Demand)
	assert.Nil(t, recs[1].EmissionsIntensity)
}

func TestDecodeJoinedRejectsBadTimestamp(t *testing.T) {
	f := models.NewFrame(
		[]string{"timestamp", "region", "price", "demand", "emissions_intensity"},
		[][]string{{"yesterday", "SA1", "1", "", ""}},
	)
	_, err := DecodeJoined(f, "joined.csv")
	assert.ErrorContains(t, err, "row 2")
}

func TestJoinedRoundTripThroughFrame(t *testing.T) {
	ts := time.Date(2025, 3, 4, 12, 30, 0, 0, time.UTC)
	in := []models.JoinedRecord{{
		Timestamp:          ts,
		Region:             models.RegionVIC,
		Price:              util.Float64(-12.25),
		Demand:             util.Float64(5100),
		MarketSuspended:    1,
		EmissionsIntensity: util.Float64(0.9),
	}}

	f := EncodeJoined(in)
	assert.Equal(t, JoinedColumns, f.Header)
	assert.Equal(t, "2025-03-04", f.Cell(f.Rows[0], ColDate))

	out, err := DecodeJoined(f, "mem")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFeaturesEncodeDecode(t *testing.T) {
	in := []models.DailyFeatureRecord{{
		Date:         time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Region:       models.RegionNSW,
		MeanPrice:    util.Float64(300),
		AnomalyFlag:  true,
		AnomalyScore: util.Float64(176.5),
	}}
	f := EncodeFeatures(in)
	assert.Equal(t, []string{"2025-01-08", "NSW1", "300", "", "", "", "true", "176.5"}, f.Rows[0])

	out, err := DecodeFeatures(f, "mem")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPricesAndEmissionsRoundTrip(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC)
	prices := []models.PriceRecord{{Timestamp: ts, Region: models.RegionQLD, Price: 45.1, Demand: util.Float64(6000)}}
	gotPrices, err := DecodePrices(EncodePrices(prices), "mem")
	require.NoError(t, err)
	assert.Equal(t, prices, gotPrices)

	emissions := []models.EmissionsRecord{{Timestamp: ts, Region: models.RegionNEM, EmissionsIntensity: 0.62}}
	gotEmissions, err := DecodeEmissions(EncodeEmissions(emissions), "mem")
	require.NoError(t, err)
	assert.Equal(t, emissions, gotEmissions)
}

func TestStatsEncodeDecode(t *testing.T) {
	in := []models.DailyStatsRecord{{
		Date:            time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Region:          models.RegionQLD,
		Observations:    288,
		PriceMean:       util.Float64(81.25),
		PriceMedian:     util.Float64(79),
		SupplyDemandGap: util.Float64(-150),
		PriceMADZ:       util.Float64(4.2),
		IsPriceOutlier:  true,
		CarbonPriceCorr: util.Float64(-0.4),
	}}
	f := EncodeStats(in)
	require.Len(t, f.Rows[0], len(StatsColumns))
	assert.Equal(t, "288", f.Cell(f.Rows[0], ColObservations))
	assert.Equal(t, "4.2", f.Cell(f.Rows[0], ColPriceMADZ))
	assert.Equal(t, "true", f.Cell(f.Rows[0], ColIsPriceOutlier))
	assert.Equal(t, "", f.Cell(f.Rows[0], ColPriceZ))

	out, err := DecodeStats(f, "mem")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
