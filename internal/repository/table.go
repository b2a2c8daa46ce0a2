package repository

import (
	"fmt"
	"strconv"
	"strings"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/util"
)

// Relational table names for each processed file.
const (
	TablePrices    = "prices"
	TableEmissions = "emissions"
	TableJoined    = "price_emissions_joined"
	TableFeatures  = "daily_price_features"
	TableStats     = "daily_price_stats"
)

var priceSchema = []models.Column{
	{Name: ColTimestamp, Type: models.ColDateTime},
	{Name: ColRegion, Type: models.ColString},
	{Name: ColPrice, Type: models.ColFloat},
	{Name: ColDemand, Type: models.ColFloat, Nullable: true},
	{Name: ColDemandForecast, Type: models.ColFloat, Nullable: true},
	{Name: ColDispatchableGeneration, Type: models.ColFloat, Nullable: true},
	{Name: ColNetInterchange, Type: models.ColFloat, Nullable: true},
	{Name: ColInitialSupply, Type: models.ColFloat, Nullable: true},
	{Name: ColMarketSuspended, Type: models.ColInt},
}

// Schemas maps each loadable table to its typed columns.
var Schemas = map[string][]models.Column{
	TablePrices: priceSchema,
	TableEmissions: {
		{Name: ColTimestamp, Type: models.ColDateTime},
		{Name: ColRegion, Type: models.ColString},
		{Name: ColEmissionsIntensity, Type: models.ColFloat},
	},
	TableJoined: append(append([]models.Column{}, priceSchema[:2]...),
		models.Column{Name: ColPrice, Type: models.ColFloat, Nullable: true},
		priceSchema[3], priceSchema[4], priceSchema[5], priceSchema[6], priceSchema[7], priceSchema[8],
		models.Column{Name: ColDate, Type: models.ColDate},
		models.Column{Name: ColEmissionsIntensity, Type: models.ColFloat, Nullable: true},
	),
	TableFeatures: {
		{Name: ColDate, Type: models.ColDate},
		{Name: ColRegion, Type: models.ColString},
		{Name: ColMeanPrice, Type: models.ColFloat, Nullable: true},
		{Name: ColPriceVolatility, Type: models.ColFloat, Nullable: true},
		{Name: ColMeanEmissionsIntensity, Type: models.ColFloat, Nullable: true},
		{Name: ColRollingCorrelation, Type: models.ColFloat, Nullable: true},
		{Name: ColAnomalyFlag, Type: models.ColBool},
		{Name: ColAnomalyScore, Type: models.ColFloat, Nullable: true},
	},
	TableStats: statsSchema(),
}

// statsSchema types the stats table: every metric is a nullable float except
// the observation count and the outlier flag.
func statsSchema() []models.Column {
	cols := []models.Column{
		{Name: ColDate, Type: models.ColDate},
		{Name: ColRegion, Type: models.ColString},
		{Name: ColObservations, Type: models.ColInt},
	}
	for _, name := range StatsColumns[3:] {
		c := models.Column{Name: name, Type: models.ColFloat, Nullable: true}
		if name == ColIsPriceOutlier {
			c = models.Column{Name: name, Type: models.ColBool}
		}
		cols = append(cols, c)
	}
	return cols
}

// TableFromFrame types every cell of f according to the schema registered for
// name. Nullable columns turn empty cells into nil values.
func TableFromFrame(name string, f *models.Frame) (*models.Table, error) {
	schema, ok := Schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	cols := make([]string, len(schema))
	for i, c := range schema {
		cols[i] = c.Name
	}
	if err := f.Require(name, cols...); err != nil {
		return nil, err
	}

	t := &models.Table{Name: name, Columns: schema, Rows: make([][]any, 0, f.Len())}
	for i, row := range f.Rows {
		out := make([]any, len(schema))
		for j, col := range schema {
			v, err := typedCell(col, f.Cell(row, col.Name))
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", name, i+2, col.Name, err)
			}
			out[j] = v
		}
		t.Rows = append(t.Rows, out)
	}
	return t, nil
}

func typedCell(col models.Column, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" && col.Nullable {
		if col.Type == models.ColFloat {
			return (*float64)(nil), nil
		}
		return nil, nil
	}

	switch col.Type {
	case models.ColString:
		return raw, nil
	case models.ColFloat:
		v := util.ParseOptionalFloat(raw)
		if v == nil {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		if col.Nullable {
			return v, nil
		}
		return *v, nil
	case models.ColInt:
		return int64(util.ParseIntDefault(raw, 0)), nil
	case models.ColBool:
		if raw == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", raw)
		}
		return b, nil
	case models.ColDate, models.ColDateTime:
		t, ok := util.ParseTime(raw)
		if !ok {
			return nil, fmt.Errorf("invalid time %q", raw)
		}
		if col.Type == models.ColDate {
			return util.DateOf(t), nil
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported column type %s", col.Type)
}
