package usecase

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// RegionSummary aggregates the feature table of one region.
type RegionSummary struct {
	Region        models.Region
	Days          int
	First, Last   string
	MeanPrice     *float64
	MeanEmissions *float64
	Anomalies     int
}

// SummarizeRegions folds feature rows into one summary per region, sorted by region.
func SummarizeRegions(recs []models.DailyFeatureRecord) []RegionSummary {
	type acc struct {
		sum             RegionSummary
		priceSum, emSum float64
		priceN, emN     int
	}
	by := map[models.Region]*acc{}
	for _, r := range recs {
		a, ok := by[r.Region]
		if !ok {
			a = &acc{sum: RegionSummary{Region: r.Region}}
			by[r.Region] = a
		}
		d := util.FormatDate(r.Date)
		if a.sum.Days == 0 || d < a.sum.First {
			a.sum.First = d
		}
		if d > a.sum.Last {
			a.sum.Last = d
		}
		a.sum.Days++
		if r.MeanPrice != nil {
			a.priceSum += *r.MeanPrice
			a.priceN++
		}
		if r.MeanEmissionsIntensity != nil {
			a.emSum += *r.MeanEmissionsIntensity
			a.emN++
		}
		if r.AnomalyFlag {
			a.sum.Anomalies++
		}
	}

	out := make([]RegionSummary, 0, len(by))
	for _, a := range by {
		if a.priceN > 0 {
			a.sum.MeanPrice = util.Float64(a.priceSum / float64(a.priceN))
		}
		if a.emN > 0 {
			a.sum.MeanEmissions = util.Float64(a.emSum / float64(a.emN))
		}
		out = append(out, a.sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// WriteReport renders the region summary and the flagged days as markdown
// tables, followed by the market statistics when stats is not empty.
func WriteReport(w io.Writer, recs []models.DailyFeatureRecord, stats []models.DailyStatsRecord) error {
	if _, err := fmt.Fprintf(w, "# Daily price features\n\n"); err != nil {
		return err
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "_No feature rows_")
		return err
	}

	var rows [][]string
	for _, s := range SummarizeRegions(recs) {
		rows = append(rows, []string{
			string(s.Region), strconv.Itoa(s.Days), s.First, s.Last,
			round(s.MeanPrice, 2), round(s.MeanEmissions, 3), strconv.Itoa(s.Anomalies),
		})
	}
	if err := markdownTable(w, []string{"region", "days", "first", "last", "mean price", "mean emissions", "anomalies"}, rows); err != nil {
		return err
	}

	var flagged [][]string
	for _, r := range recs {
		if !r.AnomalyFlag {
			continue
		}
		flagged = append(flagged, []string{
			util.FormatDate(r.Date), string(r.Region), round(r.MeanPrice, 2), round(r.AnomalyScore, 2),
		})
	}
	if err := section(w, "Anomalous days", []string{"date", "region", "mean price", "score"}, flagged); err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}
	return writeStats(w, stats)
}

// writeStats renders the latest day of each region and every day whose mean
// price is an outlier of its region series.
func writeStats(w io.Writer, stats []models.DailyStatsRecord) error {
	latest := map[models.Region]models.DailyStatsRecord{}
	outlierDays := map[models.Region]int{}
	var outliers [][]string
	for _, st := range stats {
		if cur, ok := latest[st.Region]; !ok || st.Date.After(cur.Date) {
			latest[st.Region] = st
		}
		if st.IsPriceOutlier {
			outlierDays[st.Region]++
			outliers = append(outliers, []string{
				util.FormatDate(st.Date), string(st.Region), round(st.PriceMean, 2), round(st.PriceZ, 2), round(st.PriceMADZ, 2),
			})
		}
	}

	regions := make([]models.Region, 0, len(latest))
	for r := range latest {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	var rows [][]string
	for _, r := range regions {
		st := latest[r]
		rows = append(rows, []string{
			string(r), util.FormatDate(st.Date),
			round(st.PriceMedian, 2), round(st.PriceMin, 2), round(st.PriceMax, 2),
			percent(st.SupplyMarginPercent), round(st.ForecastError, 1),
			round(st.DemandPriceCorr, 2), round(st.CarbonPriceCorr, 2),
			strconv.Itoa(outlierDays[r]),
		})
	}
	header := []string{
		"region", "date", "median price", "min price", "max price",
		"supply margin", "forecast error", "demand corr", "carbon corr", "outlier days",
	}
	if err := section(w, "Market statistics (latest day)", header, rows); err != nil {
		return err
	}
	return section(w, "Price outliers", []string{"date", "region", "mean price", "z", "mad z"}, outliers)
}

func section(w io.Writer, title string, header []string, rows [][]string) error {
	if _, err := fmt.Fprintf(w, "\n## %s\n\n", title); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "_None_")
		return err
	}
	return markdownTable(w, header, rows)
}

func markdownTable(w io.Writer, header []string, rows [][]string) error {
	alignment := make([]tw.Align, len(header))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("report row: %w", err)
		}
	}
	return table.Render()
}

func percent(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v*100, 'f', 1, 64) + "%"
}

func round(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', places, 64)
}
