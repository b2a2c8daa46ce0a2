package clean

import (
	"sort"
	"strings"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"
)

// DefaultPriceFloor excludes administered floor-price intervals.
const DefaultPriceFloor = -1000.0

// Raw Public_Prices column names.
const (
	rawSettlementDate = "SETTLEMENTDATE"
	rawRegionID       = "REGIONID"
	rawRRP            = "RRP"
	rawTotalDemand    = "TOTALDEMAND"
	rawDemandForecast = "DEMANDFORECAST"
	rawDispatchable   = "DISPATCHABLEGENERATION"
	rawNetInterchange = "NETINTERCHANGE"
	rawInitialSupply  = "INITIALSUPPLY"
	rawSuspendedFlag  = "MARKETSUSPENDEDFLAG"
	rawIntensity      = "EMISSIONS_INTENSITY"
)

// PriceOptions controls price cleaning.
type PriceOptions struct {
	Regions []string
	Floor   float64
}

// Prices types the raw dispatch price table. Timestamps that fail to parse
// and unparseable numbers become missing; rows without timestamp, region or
// price, prices at or below the floor and regions outside the allowed set are
// dropped along with exact duplicates. Output is sorted by (timestamp, region).
func Prices(raw *models.Frame, source string, opts PriceOptions) ([]models.PriceRecord, Stats, error) {
	if err := raw.Require(source, rawSettlementDate, rawRegionID, rawRRP); err != nil {
		return nil, Stats{}, err
	}
	allowed := regionFilter(opts.Regions, models.PriceRegions())

	stats := Stats{RowsIn: raw.Len()}
	seen := make(map[string]struct{}, raw.Len())
	out := make([]models.PriceRecord, 0, raw.Len())
	for _, row := range raw.Rows {
		ts, tsOK := util.ParseNEMTime(raw.Cell(row, rawSettlementDate))
		region := cell(raw, row, rawRegionID)
		price := util.ParseOptionalFloat(raw.Cell(row, rawRRP))
		rec := models.PriceRecord{
			Timestamp:              ts,
			Region:                 models.Region(region),
			Demand:                 util.ParseOptionalFloat(raw.Cell(row, rawTotalDemand)),
			DemandForecast:         util.ParseOptionalFloat(raw.Cell(row, rawDemandForecast)),
			DispatchableGeneration: util.ParseOptionalFloat(raw.Cell(row, rawDispatchable)),
			NetInterchange:         util.ParseOptionalFloat(raw.Cell(row, rawNetInterchange)),
			InitialSupply:          util.ParseOptionalFloat(raw.Cell(row, rawInitialSupply)),
			MarketSuspended:        util.ParseIntDefault(cell(raw, row, rawSuspendedFlag), 0),
		}

		key := priceKey(tsOK, rec, price)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !tsOK || region == "" || price == nil {
			continue
		}
		if *price <= opts.Floor {
			continue
		}
		if _, ok := allowed[rec.Region]; !ok {
			continue
		}
		rec.Price = *price
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Region < out[j].Region
	})
	stats.RowsOut = len(out)
	return out, stats, nil
}

// priceKey identifies a row by its typed values so duplicates that differ
// only in quoting or number formatting collapse.
func priceKey(tsOK bool, r models.PriceRecord, price *float64) string {
	ts := ""
	if tsOK {
		ts = util.FormatTimestamp(r.Timestamp)
	}
	return strings.Join([]string{
		ts,
		string(r.Region),
		util.FormatOptionalFloat(price),
		util.FormatOptionalFloat(r.Demand),
		util.FormatOptionalFloat(r.DemandForecast),
		util.FormatOptionalFloat(r.DispatchableGeneration),
		util.FormatOptionalFloat(r.NetInterchange),
		util.FormatOptionalFloat(r.InitialSupply),
		util.FormatFloat(float64(r.MarketSuspended)),
	}, "\x1f")
}
