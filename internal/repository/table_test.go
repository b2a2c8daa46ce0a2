package repository

import (
	"errors"
	"testing"
	"time"

	"GridPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableFromFrameTypesCells(t *testing.T) {
	f := models.NewFrame(FeatureColumns, [][]string{
		{"2025-01-08", "NSW1", "300", "", "0.7", "", "true", "176.5"},
	})
	tbl, err := TableFromFrame(TableFeatures, f)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), row[0])
	assert.Equal(t, "NSW1", row[1])
	assert.Equal(t, 300.0, *row[2].(*float64))
	assert.Nil(t, row[3].(*float64))
	assert.Equal(t, true, row[6])
}

func TestTableFromFrameMissingColumns(t *testing.T) {
	f := models.NewFrame([]string{"timestamp", "region"}, nil)
	_, err := TableFromFrame(TableEmissions, f)
	assert.True(t, errors.Is(err, models.ErrMissingColumns))
}

func TestTableFromFrameRejectsBadRequiredNumber(t *testing.T) {
	f := models.NewFrame(EmissionsColumns, [][]string{{"2025-01-01 00:00:00", "NEM", "n/a"}})
	_, err := TableFromFrame(TableEmissions, f)
	assert.ErrorContains(t, err, "emissions_intensity")
}

func TestJoinedSchemaMatchesColumns(t *testing.T) {
	schema := Schemas[TableJoined]
	require.Len(t, schema, len(JoinedColumns))
	for i, c := range schema {
		assert.Equal(t, JoinedColumns[i], c.Name)
	}
}

func TestStatsSchemaMatchesColumns(t *testing.T) {
	schema := Schemas[TableStats]
	require.Len(t, schema, len(StatsColumns))
	for i, c := range schema {
		assert.Equal(t, StatsColumns[i], c.Name)
	}
	assert.Equal(t, models.ColInt, schema[2].Type)
	assert.Equal(t, models.ColBool, schema[24].Type)
	assert.True(t, schema[23].Nullable)
}
