package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"
)

// Column names shared by the processed CSV files.
const (
	ColTimestamp              = "timestamp"
	ColDate                   = "date"
	ColRegion                 = "region"
	ColPrice                  = "price"
	ColDemand                 = "demand"
	ColDemandForecast         = "demand_forecast"
	ColDispatchableGeneration = "dispatchable_generation"
	ColNetInterchange         = "net_interchange"
	ColInitialSupply          = "initial_supply"
	ColMarketSuspended        = "market_suspended_flag"
	ColEmissionsIntensity     = "emissions_intensity"

	ColMeanPrice              = "mean_price"
	ColPriceVolatility        = "price_volatility"
	ColMeanEmissionsIntensity = "mean_emissions_intensity"
	ColRollingCorrelation     = "rolling_correlation"
	ColAnomalyFlag            = "anomaly_flag"
	ColAnomalyScore           = "anomaly_score"

	ColObservations           = "observations"
	ColPriceMean              = "price_mean"
	ColPriceMedian            = "price_median"
	ColPriceMin               = "price_min"
	ColPriceMax               = "price_max"
	ColPriceStd               = "price_std"
	ColDemandMean             = "total_demand_mean"
	ColDemandForecastMean     = "demand_forecast_mean"
	ColDispatchableMean       = "dispatchable_generation_mean"
	ColNetInterchangeMean     = "net_interchange_mean"
	ColEmissionsMean          = "emissions_intensity_mean"
	ColSupplyDemandGap        = "supply_demand_gap"
	ColSupplyMarginPercent    = "supply_margin_percent"
	ColForecastError          = "forecast_error"
	ColPriceMeanTrend         = "price_mean_trend"
	ColPriceStdTrend          = "price_std_trend"
	ColDemandMeanTrend        = "demand_mean_trend"
	ColEmissionsMeanTrend     = "emissions_mean_trend"
	ColBaselineMeanPrice      = "baseline_mean_price"
	ColBaselineStdPrice       = "baseline_std_price"
	ColPriceZ                 = "price_z"
	ColPriceMADZ              = "price_mad_z"
	ColIsPriceOutlier         = "is_price_outlier"
	ColDemandPriceCorr        = "demand_price_corr"
	ColCarbonPriceCorr        = "carbon_price_corr"
	ColForecastErrorPriceCorr = "forecast_error_price_corr"
)

var (
	PriceColumns = []string{
		ColTimestamp, ColRegion, ColPrice, ColDemand, ColDemandForecast,
		ColDispatchableGeneration, ColNetInterchange, ColInitialSupply, ColMarketSuspended,
	}
	EmissionsColumns = []string{ColTimestamp, ColRegion, ColEmissionsIntensity}
	JoinedColumns    = append(append([]string{}, PriceColumns...), ColDate, ColEmissionsIntensity)
	FeatureColumns   = []string{
		ColDate, ColRegion, ColMeanPrice, ColPriceVolatility, ColMeanEmissionsIntensity,
		ColRollingCorrelation, ColAnomalyFlag, ColAnomalyScore,
	}

	StatsColumns = []string{
		ColDate, ColRegion, ColObservations,
		ColPriceMean, ColPriceMedian, ColPriceMin, ColPriceMax, ColPriceStd,
		ColDemandMean, ColDemandForecastMean, ColDispatchableMean, ColNetInterchangeMean, ColEmissionsMean,
		ColSupplyDemandGap, ColSupplyMarginPercent, ColForecastError,
		ColPriceMeanTrend, ColPriceStdTrend, ColDemandMeanTrend, ColEmissionsMeanTrend,
		ColBaselineMeanPrice, ColBaselineStdPrice,
		ColPriceZ, ColPriceMADZ, ColIsPriceOutlier,
		ColDemandPriceCorr, ColCarbonPriceCorr, ColForecastErrorPriceCorr,
	}

	// FeatureInputColumns is the minimum schema the feature engine reads.
	FeatureInputColumns = []string{ColTimestamp, ColRegion, ColPrice, ColDemand, ColEmissionsIntensity}
)

// EncodePrices renders cleaned price records.
func EncodePrices(recs []models.PriceRecord) *models.Frame {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = priceCells(r.Timestamp.Format(util.TimestampLayout), r.Region, util.Float64(r.Price),
			r.Demand, r.DemandForecast, r.DispatchableGeneration, r.NetInterchange, r.InitialSupply, r.MarketSuspended)
	}
	return models.NewFrame(append([]string{}, PriceColumns...), rows)
}

func priceCells(ts string, region models.Region, price, demand, forecast, dispatchable, interchange, supply *float64, suspended int) []string {
	return []string{
		ts,
		string(region),
		util.FormatOptionalFloat(price),
		util.FormatOptionalFloat(demand),
		util.FormatOptionalFloat(forecast),
		util.FormatOptionalFloat(dispatchable),
		util.FormatOptionalFloat(interchange),
		util.FormatOptionalFloat(supply),
		strconv.Itoa(suspended),
	}
}

// DecodePrices reads a cleaned price file. Every row must carry a timestamp,
// region and price.
func DecodePrices(f *models.Frame, source string) ([]models.PriceRecord, error) {
	if err := f.Require(source, ColTimestamp, ColRegion, ColPrice); err != nil {
		return nil, err
	}
	out := make([]models.PriceRecord, 0, f.Len())
	for i, row := range f.Rows {
		ts, region, err := rowKey(f, row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", source, i+2, err)
		}
		price := util.ParseOptionalFloat(f.Cell(row, ColPrice))
		if price == nil {
			return nil, fmt.Errorf("%s row %d: missing price", source, i+2)
		}
		out = append(out, models.PriceRecord{
			Timestamp:              ts,
			Region:                 region,
			Price:                  *price,
			Demand:                 util.ParseOptionalFloat(f.Cell(row, ColDemand)),
			DemandForecast:         util.ParseOptionalFloat(f.Cell(row, ColDemandForecast)),
			DispatchableGeneration: util.ParseOptionalFloat(f.Cell(row, ColDispatchableGeneration)),
			NetInterchange:         util.ParseOptionalFloat(f.Cell(row, ColNetInterchange)),
			InitialSupply:          util.ParseOptionalFloat(f.Cell(row, ColInitialSupply)),
			MarketSuspended:        util.ParseIntDefault(f.Cell(row, ColMarketSuspended), 0),
		})
	}
	return out, nil
}

// EncodeEmissions renders cleaned emissions records.
func EncodeEmissions(recs []models.EmissionsRecord) *models.Frame {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			r.Timestamp.Format(util.TimestampLayout),
			string(r.Region),
			util.FormatFloat(r.EmissionsIntensity),
		}
	}
	return models.NewFrame(append([]string{}, EmissionsColumns...), rows)
}

// DecodeEmissions reads a cleaned emissions file.
func DecodeEmissions(f *models.Frame, source string) ([]models.EmissionsRecord, error) {
	if err := f.Require(source, EmissionsColumns...); err != nil {
		return nil, err
	}
	out := make([]models.EmissionsRecord, 0, f.Len())
	for i, row := range f.Rows {
		ts, region, err := rowKey(f, row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", source, i+2, err)
		}
		v := util.ParseOptionalFloat(f.Cell(row, ColEmissionsIntensity))
		if v == nil {
			return nil, fmt.Errorf("%s row %d: missing emissions intensity", source, i+2)
		}
		out = append(out, models.EmissionsRecord{Timestamp: ts, Region: region, EmissionsIntensity: *v})
	}
	return out, nil
}

// EncodeJoined renders joined records with their calendar date.
func EncodeJoined(recs []models.JoinedRecord) *models.Frame {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		row := priceCells(r.Timestamp.Format(util.TimestampLayout), r.Region, r.Price,
			r.Demand, r.DemandForecast, r.DispatchableGeneration, r.NetInterchange, r.InitialSupply, r.MarketSuspended)
		rows[i] = append(row, util.FormatDate(r.Timestamp), util.FormatOptionalFloat(r.EmissionsIntensity))
	}
	return models.NewFrame(append([]string{}, JoinedColumns...), rows)
}

// DecodeJoined reads the joined table consumed by the feature engine and the
// explainer. Missing metric cells are kept as absent values; a row without a
// parseable timestamp or a region fails the whole read.
func DecodeJoined(f *models.Frame, source string) ([]models.JoinedRecord, error) {
	if err := f.Require(source, FeatureInputColumns...); err != nil {
		return nil, err
	}
	out := make([]models.JoinedRecord, 0, f.Len())
	for i, row := range f.Rows {
		ts, region, err := rowKey(f, row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", source, i+2, err)
		}
		out = append(out, models.JoinedRecord{
			Timestamp:              ts,
			Region:                 region,
			Price:                  util.ParseOptionalFloat(f.Cell(row, ColPrice)),
			Demand:                 util.ParseOptionalFloat(f.Cell(row, ColDemand)),
			DemandForecast:         util.ParseOptionalFloat(f.Cell(row, ColDemandForecast)),
			DispatchableGeneration: util.ParseOptionalFloat(f.Cell(row, ColDispatchableGeneration)),
			NetInterchange:         util.ParseOptionalFloat(f.Cell(row, ColNetInterchange)),
			InitialSupply:          util.ParseOptionalFloat(f.Cell(row, ColInitialSupply)),
			MarketSuspended:        util.ParseIntDefault(f.Cell(row, ColMarketSuspended), 0),
			EmissionsIntensity:     util.ParseOptionalFloat(f.Cell(row, ColEmissionsIntensity)),
		})
	}
	return out, nil
}

// EncodeFeatures renders the feature table in its published column order.
func EncodeFeatures(recs []models.DailyFeatureRecord) *models.Frame {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			util.FormatDate(r.Date),
			string(r.Region),
			util.FormatOptionalFloat(r.MeanPrice),
			util.FormatOptionalFloat(r.PriceVolatility),
			util.FormatOptionalFloat(r.MeanEmissionsIntensity),
			util.FormatOptionalFloat(r.RollingCorrelation),
			strconv.FormatBool(r.AnomalyFlag),
			util.FormatOptionalFloat(r.AnomalyScore),
		}
	}
	return models.NewFrame(append([]string{}, FeatureColumns...), rows)
}

// DecodeFeatures reads a feature table written by EncodeFeatures.
func DecodeFeatures(f *models.Frame, source string) ([]models.DailyFeatureRecord, error) {
	if err := f.Require(source, FeatureColumns...); err != nil {
		return nil, err
	}
	out := make([]models.DailyFeatureRecord, 0, f.Len())
	for i, row := range f.Rows {
		date, ok := util.ParseTime(f.Cell(row, ColDate))
		if !ok {
			return nil, fmt.Errorf("%s row %d: invalid date %q", source, i+2, f.Cell(row, ColDate))
		}
		region := strings.TrimSpace(f.Cell(row, ColRegion))
		if region == "" {
			return nil, fmt.Errorf("%s row %d: missing region", source, i+2)
		}
		flag, _ := strconv.ParseBool(strings.TrimSpace(f.Cell(row, ColAnomalyFlag)))
		out = append(out, models.DailyFeatureRecord{
			Date:                   util.DateOf(date),
			Region:                 models.Region(region),
			MeanPrice:              util.ParseOptionalFloat(f.Cell(row, ColMeanPrice)),
			PriceVolatility:        util.ParseOptionalFloat(f.Cell(row, ColPriceVolatility)),
			MeanEmissionsIntensity: util.ParseOptionalFloat(f.Cell(row, ColMeanEmissionsIntensity)),
			RollingCorrelation:     util.ParseOptionalFloat(f.Cell(row, ColRollingCorrelation)),
			AnomalyFlag:            flag,
			AnomalyScore:           util.ParseOptionalFloat(f.Cell(row, ColAnomalyScore)),
		})
	}
	return out, nil
}

// statsFloats lists the optional float columns of the stats table with their
// record fields, in column order after observations.
func statsFloats(r *models.DailyStatsRecord) []**float64 {
	return []**float64{
		&r.PriceMean, &r.PriceMedian, &r.PriceMin, &r.PriceMax, &r.PriceStd,
		&r.DemandMean, &r.DemandForecastMean, &r.DispatchableMean, &r.NetInterchangeMean, &r.EmissionsIntensityMean,
		&r.SupplyDemandGap, &r.SupplyMarginPercent, &r.ForecastError,
		&r.PriceMeanTrend, &r.PriceStdTrend, &r.DemandMeanTrend, &r.EmissionsMeanTrend,
		&r.BaselineMeanPrice, &r.BaselineStdPrice,
		&r.PriceZ, &r.PriceMADZ,
	}
}

func statsCorrs(r *models.DailyStatsRecord) []**float64 {
	return []**float64{&r.DemandPriceCorr, &r.CarbonPriceCorr, &r.ForecastErrorPriceCorr}
}

// EncodeStats renders the daily statistics table.
func EncodeStats(recs []models.DailyStatsRecord) *models.Frame {
	rows := make([][]string, len(recs))
	for i := range recs {
		r := &recs[i]
		row := make([]string, 0, len(StatsColumns))
		row = append(row, util.FormatDate(r.Date), string(r.Region), strconv.Itoa(r.Observations))
		for _, v := range statsFloats(r) {
			row = append(row, util.FormatOptionalFloat(*v))
		}
		row = append(row, strconv.FormatBool(r.IsPriceOutlier))
		for _, v := range statsCorrs(r) {
			row = append(row, util.FormatOptionalFloat(*v))
		}
		rows[i] = row
	}
	return models.NewFrame(append([]string{}, StatsColumns...), rows)
}

// DecodeStats reads a statistics table written by EncodeStats.
func DecodeStats(f *models.Frame, source string) ([]models.DailyStatsRecord, error) {
	if err := f.Require(source, StatsColumns...); err != nil {
		return nil, err
	}
	floatCols := StatsColumns[3:24]
	corrCols := StatsColumns[25:]

	out := make([]models.DailyStatsRecord, 0, f.Len())
	for i, row := range f.Rows {
		date, ok := util.ParseTime(f.Cell(row, ColDate))
		if !ok {
			return nil, fmt.Errorf("%s row %d: invalid date %q", source, i+2, f.Cell(row, ColDate))
		}
		region := strings.TrimSpace(f.Cell(row, ColRegion))
		if region == "" {
			return nil, fmt.Errorf("%s row %d: missing region", source, i+2)
		}
		rec := models.DailyStatsRecord{
			Date:         util.DateOf(date),
			Region:       models.Region(region),
			Observations: util.ParseIntDefault(f.Cell(row, ColObservations), 0),
		}
		for j, v := range statsFloats(&rec) {
			*v = util.ParseOptionalFloat(f.Cell(row, floatCols[j]))
		}
		for j, v := range statsCorrs(&rec) {
			*v = util.ParseOptionalFloat(f.Cell(row, corrCols[j]))
		}
		rec.IsPriceOutlier, _ = strconv.ParseBool(strings.TrimSpace(f.Cell(row, ColIsPriceOutlier)))
		out = append(out, rec)
	}
	return out, nil
}

func rowKey(f *models.Frame, row []string) (ts time.Time, region models.Region, err error) {
	raw := f.Cell(row, ColTimestamp)
	t, ok := util.ParseTime(raw)
	if !ok {
		return ts, region, fmt.Errorf("invalid timestamp %q", raw)
	}
	r := strings.TrimSpace(f.Cell(row, ColRegion))
	if r == "" {
		return ts, region, fmt.Errorf("missing region")
	}
	return t, models.Region(r), nil
}
