package features

import (
	"sort"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"
)

// minIntradayRows is the number of intervals a day needs before its
// intraday correlations are computed.
const minIntradayRows = 4

// day is the daily summary of one region.
type day struct {
	date         time.Time
	observations int

	meanPrice, stdPrice        *float64
	medianPrice                *float64
	minPrice, maxPrice         *float64
	meanDemand, meanForecast   *float64
	meanDispatch, meanInterchg *float64
	meanEmission               *float64

	demandPriceCorr, carbonPriceCorr, forecastErrPriceCorr *float64
}

// resample groups rows by (region, calendar date). A row missing one metric
// still contributes to the others. Each region's days are sorted by date.
func resample(recs []models.JoinedRecord) map[models.Region][]day {
	type key struct {
		region models.Region
		date   time.Time
	}

	buckets := make(map[key][]models.JoinedRecord)
	for _, r := range recs {
		k := key{region: r.Region, date: util.DateOf(r.Timestamp)}
		buckets[k] = append(buckets[k], r)
	}

	out := make(map[models.Region][]day)
	for k, rows := range buckets {
		out[k.region] = append(out[k.region], summarizeDay(k.date, rows))
	}
	for region := range out {
		days := out[region]
		sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })
	}
	return out
}

func summarizeDay(date time.Time, rows []models.JoinedRecord) day {
	var prices, demands, forecasts, dispatch, interchange, intensities []float64
	for _, r := range rows {
		prices = appendPresent(prices, r.Price)
		demands = appendPresent(demands, r.Demand)
		forecasts = appendPresent(forecasts, r.DemandForecast)
		dispatch = appendPresent(dispatch, r.DispatchableGeneration)
		interchange = appendPresent(interchange, r.NetInterchange)
		intensities = appendPresent(intensities, r.EmissionsIntensity)
	}

	d := day{
		date:         date,
		observations: len(rows),
		meanPrice:    optional(mean(prices)),
		stdPrice:     optional(sampleStd(prices)),
		medianPrice:  optional(median(prices)),
		meanDemand:   optional(mean(demands)),
		meanForecast: optional(mean(forecasts)),
		meanDispatch: optional(mean(dispatch)),
		meanInterchg: optional(mean(interchange)),
		meanEmission: optional(mean(intensities)),
	}
	if lo, hi, ok := minMax(prices); ok {
		d.minPrice, d.maxPrice = &lo, &hi
	}
	if len(rows) >= minIntradayRows {
		d.demandPriceCorr = pairedCorr(rows, func(r models.JoinedRecord) *float64 { return r.Demand })
		d.carbonPriceCorr = pairedCorr(rows, func(r models.JoinedRecord) *float64 { return r.EmissionsIntensity })
		d.forecastErrPriceCorr = pairedCorr(rows, forecastError)
	}
	return d
}

// pairedCorr correlates price with other over the rows where both are present.
func pairedCorr(rows []models.JoinedRecord, other func(models.JoinedRecord) *float64) *float64 {
	var xs, ys []float64
	for _, r := range rows {
		y := other(r)
		if r.Price == nil || y == nil {
			continue
		}
		xs = append(xs, *r.Price)
		ys = append(ys, *y)
	}
	return optional(pearson(xs, ys))
}

func forecastError(r models.JoinedRecord) *float64 {
	if r.Demand == nil || r.DemandForecast == nil {
		return nil
	}
	v := *r.Demand - *r.DemandForecast
	return &v
}

func appendPresent(xs []float64, v *float64) []float64 {
	if v == nil {
		return xs
	}
	return append(xs, *v)
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
