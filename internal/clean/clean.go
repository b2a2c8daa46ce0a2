// Package clean turns raw NEMWeb tables into typed, de-duplicated records.
package clean

import (
	"strings"

	"GridPulse/internal/domain/models"
)

// Stats reports how many rows a cleaner received and kept.
type Stats struct {
	RowsIn  int
	RowsOut int
}

// Dropped is the number of rows removed by cleaning.
func (s Stats) Dropped() int { return s.RowsIn - s.RowsOut }

// cell trims whitespace and surrounding quotes from a raw field.
func cell(f *models.Frame, row []string, col string) string {
	return strings.Trim(strings.TrimSpace(f.Cell(row, col)), `"`)
}

// regionFilter builds the allowed region set, falling back to def when codes is empty.
func regionFilter(codes []string, def []models.Region) map[models.Region]struct{} {
	if len(codes) == 0 {
		out := make(map[models.Region]struct{}, len(def))
		for _, r := range def {
			out[r] = struct{}{}
		}
		return out
	}
	return models.RegionSet(codes)
}
