// Package features builds the daily feature table: per-region daily
// aggregates, trailing rolling statistics, price/emissions correlation and
// price anomaly flags, plus a wider daily statistics table.
package features

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/repository"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/util"
)

const (
	DefaultWindow          = 7
	DefaultMinPeriods      = 7
	DefaultThreshold       = 3.0
	DefaultTrendMinPeriods = 3
)

// Config holds the rolling window parameters.
type Config struct {
	// Window is the number of calendar days that form a rolling window.
	Window int
	// MinPeriods is the number of present observations a baseline window needs.
	MinPeriods int
	// Threshold is the deviation, in standard deviations, above which a day is anomalous.
	Threshold float64
	// TrendMinPeriods is the number of present observations a trend window
	// needs. Zero selects DefaultTrendMinPeriods.
	TrendMinPeriods int
}

// DefaultConfig returns a 7-day window requiring full history and a 3 sigma threshold.
func DefaultConfig() Config {
	return Config{
		Window:          DefaultWindow,
		MinPeriods:      DefaultMinPeriods,
		Threshold:       DefaultThreshold,
		TrendMinPeriods: DefaultTrendMinPeriods,
	}
}

func (c Config) validate() error {
	if c.Window < 1 {
		return fmt.Errorf("window must be positive, got %d", c.Window)
	}
	if c.MinPeriods < 1 || c.MinPeriods > c.Window {
		return fmt.Errorf("min periods must be in [1, %d], got %d", c.Window, c.MinPeriods)
	}
	if c.TrendMinPeriods < 1 || c.TrendMinPeriods > c.Window {
		return fmt.Errorf("trend min periods must be in [1, %d], got %d", c.Window, c.TrendMinPeriods)
	}
	if c.Threshold <= 0 || math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) {
		return fmt.Errorf("threshold must be a positive number, got %v", c.Threshold)
	}
	return nil
}

// Engine computes daily features. It holds no state between calls.
type Engine struct {
	cfg Config
	l   *applogger.Logger
}

func NewEngine(cfg Config, l *applogger.Logger) (*Engine, error) {
	if cfg.TrendMinPeriods == 0 {
		cfg.TrendMinPeriods = min(DefaultTrendMinPeriods, max(cfg.Window, 1))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("features config: %w", err)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Engine{cfg: cfg, l: l}, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.cfg }

// Compute returns one record per distinct (region, date) in recs, ordered by
// region then date. Statistics that cannot be computed are nil.
func (e *Engine) Compute(recs []models.JoinedRecord) []models.DailyFeatureRecord {
	feats, _ := e.Analyze(recs)
	return feats
}

// Analyze returns the feature table and the daily statistics table. Both hold
// one row per distinct (region, date), in the same order.
func (e *Engine) Analyze(recs []models.JoinedRecord) ([]models.DailyFeatureRecord, []models.DailyStatsRecord) {
	daily := resample(recs)

	regions := make([]models.Region, 0, len(daily))
	for r := range daily {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	size := len(recs)/288 + len(regions)
	feats := make([]models.DailyFeatureRecord, 0, size)
	stats := make([]models.DailyStatsRecord, 0, size)
	for _, region := range regions {
		f, s := e.region(region, daily[region])
		feats = append(feats, f...)
		stats = append(stats, s...)
	}
	return feats, stats
}

// region computes rolling features over a calendar-continuous index, so
// missing dates occupy window slots without contributing observations.
func (e *Engine) region(region models.Region, days []day) ([]models.DailyFeatureRecord, []models.DailyStatsRecord) {
	first := days[0].date
	span := dayIndex(first, days[len(days)-1].date) + 1
	calendar := make([]*day, span)
	for i := range days {
		calendar[dayIndex(first, days[i].date)] = &days[i]
	}

	feats := make([]models.DailyFeatureRecord, 0, len(days))
	stats := make([]models.DailyStatsRecord, 0, len(days))
	for _, d := range days {
		idx := dayIndex(first, d.date)
		feat := models.DailyFeatureRecord{
			Date:                   d.date,
			Region:                 region,
			MeanPrice:              d.meanPrice,
			PriceVolatility:        d.stdPrice,
			MeanEmissionsIntensity: d.meanEmission,
		}
		st := dailyStats(region, d)

		// The baseline excludes the scored day. Including it bounds the sample
		// z-score by (n-1)/sqrt(n), about 2.27 for seven days, so a 3 sigma
		// threshold could never be crossed.
		var prices, pairedPrices, pairedEmissions []float64
		for j := max(0, idx-e.cfg.Window); j < idx; j++ {
			prev := calendar[j]
			if prev == nil || prev.meanPrice == nil {
				continue
			}
			prices = append(prices, *prev.meanPrice)
			if prev.meanEmission != nil {
				pairedPrices = append(pairedPrices, *prev.meanPrice)
				pairedEmissions = append(pairedEmissions, *prev.meanEmission)
			}
		}

		if len(prices) >= e.cfg.MinPeriods {
			st.BaselineMeanPrice = optional(mean(prices))
			st.BaselineStdPrice = optional(sampleStd(prices))
		}
		if len(pairedPrices) >= e.cfg.MinPeriods {
			feat.RollingCorrelation = optional(pearson(pairedPrices, pairedEmissions))
		}
		feat.AnomalyScore, feat.AnomalyFlag = e.score(d.meanPrice, st.BaselineMeanPrice, st.BaselineStdPrice)
		e.trend(&st, calendar, idx)

		feats = append(feats, feat)
		stats = append(stats, st)
	}
	e.outliers(stats)
	return feats, stats
}

// score returns the signed deviation in baseline deviations and whether it
// crosses the threshold. A missing or zero deviation never flags.
func (e *Engine) score(price, baseMean, baseStd *float64) (*float64, bool) {
	if price == nil || baseMean == nil || baseStd == nil || *baseStd <= 0 {
		return nil, false
	}
	std := *baseStd
	dev := *price - *baseMean
	z := dev / std
	return &z, math.Abs(dev) > e.cfg.Threshold*std
}

func dailyStats(region models.Region, d day) models.DailyStatsRecord {
	st := models.DailyStatsRecord{
		Date:                   d.date,
		Region:                 region,
		Observations:           d.observations,
		PriceMean:              d.meanPrice,
		PriceMedian:            d.medianPrice,
		PriceMin:               d.minPrice,
		PriceMax:               d.maxPrice,
		PriceStd:               d.stdPrice,
		DemandMean:             d.meanDemand,
		DemandForecastMean:     d.meanForecast,
		DispatchableMean:       d.meanDispatch,
		NetInterchangeMean:     d.meanInterchg,
		EmissionsIntensityMean: d.meanEmission,
		DemandPriceCorr:        d.demandPriceCorr,
		CarbonPriceCorr:        d.carbonPriceCorr,
		ForecastErrorPriceCorr: d.forecastErrPriceCorr,
	}
	if d.meanDispatch != nil && d.meanDemand != nil {
		gap := *d.meanDispatch - *d.meanDemand
		st.SupplyDemandGap = &gap
		if *d.meanDemand != 0 {
			st.SupplyMarginPercent = util.Float64(gap / *d.meanDemand)
		}
	}
	if d.meanDemand != nil && d.meanForecast != nil {
		st.ForecastError = util.Float64(*d.meanDemand - *d.meanForecast)
	}
	return st
}

// trend averages the daily metrics over the window ending on idx, inclusive.
func (e *Engine) trend(st *models.DailyStatsRecord, calendar []*day, idx int) {
	var prices, stds, demands, emissions []float64
	for j := max(0, idx-e.cfg.Window+1); j <= idx; j++ {
		d := calendar[j]
		if d == nil {
			continue
		}
		prices = appendPresent(prices, d.meanPrice)
		stds = appendPresent(stds, d.stdPrice)
		demands = appendPresent(demands, d.meanDemand)
		emissions = appendPresent(emissions, d.meanEmission)
	}
	st.PriceMeanTrend = e.trendMean(prices)
	st.PriceStdTrend = e.trendMean(stds)
	st.DemandMeanTrend = e.trendMean(demands)
	st.EmissionsMeanTrend = e.trendMean(emissions)
}

func (e *Engine) trendMean(xs []float64) *float64 {
	if len(xs) < e.cfg.TrendMinPeriods {
		return nil
	}
	return optional(mean(xs))
}

// outliers scores each day's mean price against the whole region series,
// both as a z-score and as a median absolute deviation score.
func (e *Engine) outliers(stats []models.DailyStatsRecord) {
	var idx []int
	var xs []float64
	for i, st := range stats {
		if st.PriceMean != nil {
			idx = append(idx, i)
			xs = append(xs, *st.PriceMean)
		}
	}
	z, mz := zScores(xs), madZ(xs)
	for k, i := range idx {
		st := &stats[i]
		if z != nil {
			st.PriceZ = util.Float64(z[k])
			st.IsPriceOutlier = math.Abs(z[k]) > e.cfg.Threshold
		}
		if mz != nil {
			st.PriceMADZ = util.Float64(mz[k])
			st.IsPriceOutlier = st.IsPriceOutlier || math.Abs(mz[k]) > e.cfg.Threshold
		}
	}
}

func dayIndex(first, d time.Time) int {
	return int(d.Sub(first).Hours() / 24)
}

// Summary describes one feature run.
type Summary struct {
	RowsIn    int
	RowsOut   int
	Regions   int
	Anomalies map[models.Region]int
}

// Summarize counts output rows and flagged days per region.
func Summarize(rowsIn int, recs []models.DailyFeatureRecord) Summary {
	s := Summary{RowsIn: rowsIn, RowsOut: len(recs), Anomalies: make(map[models.Region]int)}
	for _, r := range recs {
		if _, ok := s.Anomalies[r.Region]; !ok {
			s.Anomalies[r.Region] = 0
			s.Regions++
		}
		if r.AnomalyFlag {
			s.Anomalies[r.Region]++
		}
	}
	return s
}

// Run reads a joined CSV from r and writes the feature CSV to w. A header-only
// input produces a header-only output.
func (e *Engine) Run(r io.Reader, w io.Writer, source string) (Summary, []models.DailyFeatureRecord, error) {
	start := time.Now()
	frame, err := repository.DecodeFrame(r)
	if err != nil {
		return Summary{}, nil, fmt.Errorf("%s: %w", source, err)
	}
	joined, err := repository.DecodeJoined(frame, source)
	if err != nil {
		return Summary{}, nil, err
	}

	recs := e.Compute(joined)
	if err := repository.EncodeFrame(w, repository.EncodeFeatures(recs)); err != nil {
		return Summary{}, nil, fmt.Errorf("write features: %w", err)
	}

	sum := Summarize(len(joined), recs)
	flagged := 0
	for _, n := range sum.Anomalies {
		flagged += n
	}
	e.l.Info("daily features computed",
		applogger.String("source", source),
		applogger.Int("rows_in", sum.RowsIn),
		applogger.Int("rows_out", sum.RowsOut),
		applogger.Int("regions", sum.Regions),
		applogger.Int("anomalies", flagged),
		applogger.Int("window", e.cfg.Window),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return sum, recs, nil
}

// RunFile reads the joined CSV at inPath and replaces outPath with the
// feature table and, when statsPath is not empty, statsPath with the daily
// statistics table. A missing input file or missing required columns is fatal.
func (e *Engine) RunFile(inPath, outPath, statsPath string) (Summary, []models.DailyFeatureRecord, error) {
	frame, err := repository.ReadFrame(inPath)
	if err != nil {
		return Summary{}, nil, err
	}
	joined, err := repository.DecodeJoined(frame, inPath)
	if err != nil {
		return Summary{}, nil, err
	}

	recs, stats := e.Analyze(joined)
	if err := repository.WriteFrame(outPath, repository.EncodeFeatures(recs)); err != nil {
		return Summary{}, nil, err
	}
	if statsPath != "" {
		if err := repository.WriteFrame(statsPath, repository.EncodeStats(stats)); err != nil {
			return Summary{}, nil, err
		}
	}
	sum := Summarize(len(joined), recs)
	e.l.Info("daily features written",
		applogger.String("input", inPath),
		applogger.String("output", outPath),
		applogger.String("stats", statsPath),
		applogger.Int("rows_in", sum.RowsIn),
		applogger.Int("rows_out", sum.RowsOut),
		applogger.Int("regions", sum.Regions),
	)
	return sum, recs, nil
}
