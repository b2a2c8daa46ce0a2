package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/usecase"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
	"GridPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// FeaturesEchoHandler serves the daily feature table over HTTP.
type FeaturesEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.FeaturesUseCase
}

func NewFeaturesEchoHandler(logger *xlogger.Logger, uc *usecase.FeaturesUseCase) *FeaturesEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &FeaturesEchoHandler{logger: logger, uc: uc}
}

func (h *FeaturesEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/v1")
	g.GET("/features", h.Features)
	g.GET("/anomalies", h.Anomalies)
}

// FeatureView is the JSON shape of one feature row.
type FeatureView struct {
	Date                   string   `json:"date"`
	Region                 string   `json:"region"`
	MeanPrice              *float64 `json:"mean_price"`
	PriceVolatility        *float64 `json:"price_volatility"`
	MeanEmissionsIntensity *float64 `json:"mean_emissions_intensity"`
	RollingCorrelation     *float64 `json:"rolling_correlation"`
	AnomalyFlag            bool     `json:"anomaly_flag"`
	AnomalyScore           *float64 `json:"anomaly_score"`
}

func toViews(recs []models.DailyFeatureRecord) []FeatureView {
	out := make([]FeatureView, len(recs))
	for i, r := range recs {
		out[i] = FeatureView{
			Date:                   util.FormatDate(r.Date),
			Region:                 string(r.Region),
			MeanPrice:              r.MeanPrice,
			PriceVolatility:        r.PriceVolatility,
			MeanEmissionsIntensity: r.MeanEmissionsIntensity,
			RollingCorrelation:     r.RollingCorrelation,
			AnomalyFlag:            r.AnomalyFlag,
			AnomalyScore:           r.AnomalyScore,
		}
	}
	return out
}

func (h *FeaturesEchoHandler) Features(c echo.Context) error {
	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, err := parseDate(req.From)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from", err.Error()))
	}
	to, err := parseDate(req.To)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("to", err.Error()))
	}
	res, err := h.uc.GetFeatures(c.Request().Context(), usecase.GetFeaturesParams{
		Region: models.Region(req.Region),
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		var appErr *xhttp.AppError
		if !errors.As(err, &appErr) || appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("features usecase error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.ListResponse(c, toViews(res.Features), int64(res.Count))
}

func (h *FeaturesEchoHandler) Anomalies(c echo.Context) error {
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	recs, err := h.uc.GetAnomalies(c.Request().Context(), models.Region(req.Region), req.Limit)
	if err != nil {
		h.logger.Error("anomalies usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, toViews(recs), int64(len(recs)))
}

func (h *FeaturesEchoHandler) Health(c echo.Context) error {
	regions := h.uc.Regions(c.Request().Context())
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = string(r)
	}
	return xhttp.DataResponse(c, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"regions": names,
	})
}

// parseDate returns the zero time for an empty value.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(util.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

var _ xhttp.Handler = (*FeaturesEchoHandler)(nil)
