// Package join aligns 5-minute prices with daily emissions intensity.
package join

import (
	"sort"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"
)

type dayKey struct {
	date   time.Time
	region models.Region
}

// PriceEmissions left-joins prices with emissions on (calendar date, region).
// Every price row appears exactly once; several emissions rows for the same
// day and region are averaged. Output is sorted by (timestamp, region).
func PriceEmissions(prices []models.PriceRecord, emissions []models.EmissionsRecord) []models.JoinedRecord {
	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[dayKey]*acc, len(emissions))
	for _, e := range emissions {
		k := dayKey{date: util.DateOf(e.Timestamp), region: e.Region}
		a, ok := byDay[k]
		if !ok {
			a = &acc{}
			byDay[k] = a
		}
		a.sum += e.EmissionsIntensity
		a.n++
	}

	out := make([]models.JoinedRecord, len(prices))
	for i, p := range prices {
		price := p.Price
		rec := models.JoinedRecord{
			Timestamp:              p.Timestamp,
			Region:                 p.Region,
			Price:                  &price,
			Demand:                 p.Demand,
			DemandForecast:         p.DemandForecast,
			DispatchableGeneration: p.DispatchableGeneration,
			NetInterchange:         p.NetInterchange,
			InitialSupply:          p.InitialSupply,
			MarketSuspended:        p.MarketSuspended,
		}
		if a, ok := byDay[dayKey{date: util.DateOf(p.Timestamp), region: p.Region}]; ok {
			rec.EmissionsIntensity = util.Float64(a.sum / float64(a.n))
		}
		out[i] = rec
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// Matched counts joined rows that found an emissions value.
func Matched(recs []models.JoinedRecord) int {
	n := 0
	for _, r := range recs {
		if r.EmissionsIntensity != nil {
			n++
		}
	}
	return n
}
