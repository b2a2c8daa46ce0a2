package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/repository"
	"GridPulse/internal/usecase"
	"GridPulse/pkg/util"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listEnvelope struct {
	Status int `json:"status"`
	Data   struct {
		Rows  []FeatureView `json:"rows"`
		Total int64         `json:"total"`
	} `json:"data"`
}

func newTestServer() *echo.Echo {
	var recs []models.DailyFeatureRecord
	for d := 1; d <= 10; d++ {
		rec := models.DailyFeatureRecord{
			Date:      time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC),
			Region:    models.RegionNSW,
			MeanPrice: util.Float64(float64(50 + d)),
		}
		if d == 8 {
			rec.AnomalyFlag = true
			rec.AnomalyScore = util.Float64(176.07)
		}
		recs = append(recs, rec)
	}
	recs = append(recs, models.DailyFeatureRecord{
		Date: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), Region: models.RegionSA, AnomalyFlag: true, AnomalyScore: util.Float64(-4),
	})

	e := echo.New()
	uc := usecase.NewFeaturesUseCase(repository.NewMemoryFeatureStore(recs))
	NewFeaturesEchoHandler(nil, uc).RegisterRoutes(e)
	return e
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestFeaturesEndpoint(t *testing.T) {
	e := newTestServer()

	rec := get(t, e, "/api/v1/features?region=NSW1&from=2025-01-03&to=2025-01-08&limit=4")
	require.Equal(t, http.StatusOK, rec.Code)

	var body listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Rows, 4)
	assert.EqualValues(t, 4, body.Data.Total)
	assert.Equal(t, "2025-01-03", body.Data.Rows[0].Date)
	assert.Equal(t, 53.0, *body.Data.Rows[0].MeanPrice)
	assert.Nil(t, body.Data.Rows[0].AnomalyScore)
}

func TestFeaturesEndpointDefaultsLimit(t *testing.T) {
	rec := get(t, newTestServer(), "/api/v1/features?region=NSW1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Rows, 10)
}

func TestFeaturesEndpointValidation(t *testing.T) {
	e := newTestServer()
	for _, target := range []string{
		"/api/v1/features",
		"/api/v1/features?region=XYZ",
		"/api/v1/features?region=NSW1&limit=9000",
		"/api/v1/features?region=NSW1&from=01/02/2025",
		"/api/v1/features?region=NSW1&from=2025-02-01&to=2025-01-01",
	} {
		rec := get(t, e, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseDate("2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"2025-02-30", "31/01/2025", "2025-1-5"} {
		_, err := parseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestFeaturesEndpointUnknownRegion(t *testing.T) {
	rec := get(t, newTestServer(), "/api/v1/features?region=VIC1")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_NOT_FOUND"`)
	assert.Contains(t, rec.Body.String(), `"region":"VIC1"`)
}

func TestAnomaliesEndpoint(t *testing.T) {
	e := newTestServer()

	rec := get(t, e, "/api/v1/anomalies")
	require.Equal(t, http.StatusOK, rec.Code)
	var body listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Rows, 2)
	assert.Equal(t, "SA1", body.Data.Rows[0].Region, "newest first")

	rec = get(t, e, "/api/v1/anomalies?region=NSW1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Rows, 1)
	assert.True(t, body.Data.Rows[0].AnomalyFlag)
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"regions":["NSW1","SA1"]`)
}
