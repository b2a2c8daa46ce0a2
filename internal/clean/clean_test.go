package clean

import (
	"errors"
	"testing"
	"time"

	"GridPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawPriceHeader = []string{
	"SETTLEMENTDATE", "REGIONID", "RRP", "TOTALDEMAND", "DEMANDFORECAST",
	"DISPATCHABLEGENERATION", "NETINTERCHANGE", "INITIALSUPPLY", "MARKETSUSPENDEDFLAG",
}

func priceOpts() PriceOptions {
	return PriceOptions{Floor: DefaultPriceFloor}
}

func TestPricesFiltersAndSorts(t *testing.T) {
	raw := models.NewFrame(rawPriceHeader, [][]string{
		{`"2025/01/01 00:10:00"`, "VIC1", "80", "5000", "1", "4900", "100", "4950", ""},
		{`"2025/01/01 00:05:00"`, "NSW1", "55.5", "7000", "x", "6900", "-50", "6950", "0"},
		{`"2025/01/01 00:05:00"`, "NSW1", "55.5", "7000", "x", "6900", "-50", "6950", "0"}, // duplicate
		{"2025/01/01 00:05:00", "QLD1", "-1000", "1", "", "", "", "", "0"},                 // at floor
		{"2025/01/01 00:05:00", "SA1", "-999.9", "1", "", "", "", "", "1"},
		{"not a time", "NSW1", "50", "", "", "", "", "", ""},
		{"2025/01/01 00:05:00", "", "50", "", "", "", "", "", ""},
		{"2025/01/01 00:05:00", "TAS1", "n/a", "", "", "", "", "", ""},
		{"2025/01/01 00:05:00", "NEM", "50", "", "", "", "", "", ""},
	})

	recs, stats, err := Prices(raw, "prices.csv", priceOpts())
	require.NoError(t, err)
	assert.Equal(t, Stats{RowsIn: 9, RowsOut: 3}, stats)
	assert.Equal(t, 6, stats.Dropped())

	require.Len(t, recs, 3)
	assert.Equal(t, models.RegionNSW, recs[0].Region)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC), recs[0].Timestamp)
	assert.Equal(t, 55.5, recs[0].Price)
	assert.Nil(t, recs[0].DemandForecast)
	require.NotNil(t, recs[0].NetInterchange)
	assert.Equal(t, -50.0, *recs[0].NetInterchange)

	assert.Equal(t, models.RegionSA, recs[1].Region)
	assert.Equal(t, 1, recs[1].MarketSuspended)

	assert.Equal(t, models.RegionVIC, recs[2].Region)
	assert.Equal(t, 0, recs[2].MarketSuspended, "missing flag defaults to 0")
}

func TestPricesRegionOverride(t *testing.T) {
	raw := models.NewFrame(rawPriceHeader, [][]string{
		{"2025/01/01 00:05:00", "NSW1", "50", "", "", "", "", "", ""},
		{"2025/01/01 00:05:00", "VIC1", "60", "", "", "", "", "", ""},
	})
	recs, _, err := Prices(raw, "prices.csv", PriceOptions{Regions: []string{"VIC1"}, Floor: DefaultPriceFloor})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RegionVIC, recs[0].Region)
}

func TestPricesMissingColumns(t *testing.T) {
	raw := models.NewFrame([]string{"SETTLEMENTDATE", "REGIONID"}, nil)
	_, _, err := Prices(raw, "prices.csv", priceOpts())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMissingColumns))

	var se *models.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"RRP"}, se.Missing)
}

func TestPricesEmpty(t *testing.T) {
	recs, stats, err := Prices(models.NewFrame(rawPriceHeader, nil), "prices.csv", priceOpts())
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 0, stats.Dropped())
}

func TestEmissionsKeepsNEMAndDedupes(t *testing.T) {
	raw := models.NewFrame([]string{"SETTLEMENTDATE", "REGIONID", "EMISSIONS_INTENSITY"}, [][]string{
		{"2025/01/02 00:00:00", "NSW1", "0.81"},
		{"2025/01/01 00:00:00", "NEM", "0.70"},
		{"2025/01/01 00:00:00", "NEM", "0.7"}, // same value, different formatting
		{"2025/01/01 00:00:00", "XYZ1", "0.5"},
		{"2025/01/01 00:00:00", "VIC1", ""},
		{"garbage", "VIC1", "0.9"},
	})

	recs, stats, err := Emissions(raw, "ibei.csv", EmissionsOptions{})
	require.NoError(t, err)
	assert.Equal(t, Stats{RowsIn: 6, RowsOut: 2}, stats)
	assert.Equal(t, []models.EmissionsRecord{
		{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Region: models.RegionNEM, EmissionsIntensity: 0.7},
		{Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Region: models.RegionNSW, EmissionsIntensity: 0.81},
	}, recs)
}

func TestEmissionsMissingColumns(t *testing.T) {
	_, _, err := Emissions(models.NewFrame([]string{"SETTLEMENTDATE"}, nil), "ibei.csv", EmissionsOptions{})
	assert.True(t, errors.Is(err, models.ErrMissingColumns))
}
