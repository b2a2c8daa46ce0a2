package models

import "time"

// PriceRecord is one cleaned 5-minute dispatch price interval.
// Unique per (Timestamp, Region).
type PriceRecord struct {
	Timestamp              time.Time
	Region                 Region
	Price                  float64 // $/MWh
	Demand                 *float64
	DemandForecast         *float64
	DispatchableGeneration *float64
	NetInterchange         *float64
	InitialSupply          *float64
	MarketSuspended        int
}

// EmissionsRecord is one cleaned emissions intensity observation (tCO2-e/MWh).
type EmissionsRecord struct {
	Timestamp          time.Time
	Region             Region
	EmissionsIntensity float64
}

// JoinedRecord is a price interval aligned with the emissions intensity of its day.
// Timestamp and Region are always set; the metrics may be absent.
type JoinedRecord struct {
	Timestamp              time.Time
	Region                 Region
	Price                  *float64
	Demand                 *float64
	DemandForecast         *float64
	DispatchableGeneration *float64
	NetInterchange         *float64
	InitialSupply          *float64
	MarketSuspended        int
	EmissionsIntensity     *float64
}

// DailyFeatureRecord is the per (Region, Date) output of the feature engine.
// Nil pointers mean the statistic could not be computed.
type DailyFeatureRecord struct {
	Date                   time.Time
	Region                 Region
	MeanPrice              *float64
	PriceVolatility        *float64
	MeanEmissionsIntensity *float64
	RollingCorrelation     *float64
	AnomalyFlag            bool
	AnomalyScore           *float64
}

// DailyStatsRecord holds the wider market statistics of one (Region, Date):
// price distribution, supply and forecast balance, trailing trends, series
// level outlier scores and intraday correlations.
type DailyStatsRecord struct {
	Date         time.Time
	Region       Region
	Observations int

	PriceMean   *float64
	PriceMedian *float64
	PriceMin    *float64
	PriceMax    *float64
	PriceStd    *float64

	DemandMean             *float64
	DemandForecastMean     *float64
	DispatchableMean       *float64
	NetInterchangeMean     *float64
	EmissionsIntensityMean *float64

	// SupplyDemandGap is mean dispatchable generation minus mean demand.
	SupplyDemandGap     *float64
	SupplyMarginPercent *float64
	// ForecastError is mean demand minus mean demand forecast.
	ForecastError *float64

	// Trend columns average the window ending on Date, inclusive.
	PriceMeanTrend     *float64
	PriceStdTrend      *float64
	DemandMeanTrend    *float64
	EmissionsMeanTrend *float64

	// Baseline columns are the rolling mean and deviation the anomaly score
	// is measured against: the window strictly before Date.
	BaselineMeanPrice *float64
	BaselineStdPrice  *float64

	PriceZ         *float64
	PriceMADZ      *float64
	IsPriceOutlier bool

	DemandPriceCorr        *float64
	CarbonPriceCorr        *float64
	ForecastErrorPriceCorr *float64
}
