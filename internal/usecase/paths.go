package usecase

import (
	"path/filepath"
	"strings"

	"GridPulse/internal/domain/models"
)

// Paths resolves every stage file under the raw and processed directories.
type Paths struct {
	RawDir       string
	ProcessedDir string
}

func (p Paths) RawPrices() string    { return filepath.Join(p.RawDir, "public_prices_current_all.csv") }
func (p Paths) RawEmissions() string { return filepath.Join(p.RawDir, "ibei_latest.csv") }

func (p Paths) CleanPrices() string { return filepath.Join(p.ProcessedDir, "prices_clean.csv") }
func (p Paths) CleanEmissions() string {
	return filepath.Join(p.ProcessedDir, "emissions_clean.csv")
}
func (p Paths) Joined() string   { return filepath.Join(p.ProcessedDir, "price_emissions_joined.csv") }
func (p Paths) Features() string { return filepath.Join(p.ProcessedDir, "daily_price_features.csv") }
func (p Paths) Stats() string    { return filepath.Join(p.ProcessedDir, "daily_price_stats.csv") }
func (p Paths) FeaturesParquet() string {
	return filepath.Join(p.ProcessedDir, "daily_price_features.parquet")
}
func (p Paths) Report() string { return filepath.Join(p.ProcessedDir, "report.md") }

// Explanation is the file holding the latest explanation for region.
func (p Paths) Explanation(region models.Region) string {
	return filepath.Join(p.ProcessedDir, "explanation_"+strings.ToLower(string(region))+".md")
}

// Outputs lists every file a run may produce, in stage order.
func (p Paths) Outputs() []string {
	return []string{
		p.RawPrices(), p.RawEmissions(),
		p.CleanPrices(), p.CleanEmissions(),
		p.Joined(), p.Features(), p.Stats(), p.FeaturesParquet(), p.Report(),
	}
}
