package explain

import (
	"sort"
	"strings"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"
)

// LastRows returns the n most recent rows of region, oldest first.
func LastRows(rows []models.JoinedRecord, region models.Region, n int) []models.JoinedRecord {
	var out []models.JoinedRecord
	for _, r := range rows {
		if r.Region == region {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// BuildPrompt renders the analyst prompt for the given rows.
func BuildPrompt(region models.Region, rows []models.JoinedRecord) string {
	lines := []string{
		"You are an electricity market analyst.",
		"You get 5-minute NEM data for one region.",
		"",
		"Summarise what has happened over the last 30 minutes in 12 concise sentences,",
		"talking about price, demand, and emissions intensity.",
		"Mention directions (up/down) and rough magnitudes, and be concrete.",
		"Also mention the date",
		"",
		"Region: " + string(region),
		"",
		"Here is the data (most recent row last):",
		"",
		"timestamp, price, total_demand, dispatchable_generation, net_interchange, emissions_intensity",
	}
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{
			util.FormatTimestamp(r.Timestamp),
			value(r.Price),
			value(r.Demand),
			value(r.DispatchableGeneration),
			value(r.NetInterchange),
			value(r.EmissionsIntensity),
		}, ", "))
	}
	lines = append(lines, "", "Now produce the explanation.")
	return strings.Join(lines, "\n")
}

func value(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return util.FormatFloat(*v)
}
