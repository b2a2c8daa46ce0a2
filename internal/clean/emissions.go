package clean

import (
	"sort"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"
)

// EmissionsOptions controls emissions cleaning.
type EmissionsOptions struct {
	Regions []string
}

// Emissions types the raw IBEI table, keeping the NEM aggregate by default.
func Emissions(raw *models.Frame, source string, opts EmissionsOptions) ([]models.EmissionsRecord, Stats, error) {
	if err := raw.Require(source, rawSettlementDate, rawRegionID, rawIntensity); err != nil {
		return nil, Stats{}, err
	}
	allowed := regionFilter(opts.Regions, models.EmissionsRegions())

	type key struct {
		ts        string
		region    string
		intensity string
	}
	stats := Stats{RowsIn: raw.Len()}
	seen := make(map[key]struct{}, raw.Len())
	out := make([]models.EmissionsRecord, 0, raw.Len())
	for _, row := range raw.Rows {
		ts, tsOK := util.ParseNEMTime(raw.Cell(row, rawSettlementDate))
		region := cell(raw, row, rawRegionID)
		intensity := util.ParseOptionalFloat(raw.Cell(row, rawIntensity))

		k := key{region: region, intensity: util.FormatOptionalFloat(intensity)}
		if tsOK {
			k.ts = util.FormatTimestamp(ts)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		if !tsOK || region == "" || intensity == nil {
			continue
		}
		if _, ok := allowed[models.Region(region)]; !ok {
			continue
		}
		out = append(out, models.EmissionsRecord{
			Timestamp:          ts,
			Region:             models.Region(region),
			EmissionsIntensity: *intensity,
		})
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
