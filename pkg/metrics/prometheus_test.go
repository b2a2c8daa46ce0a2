package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.RecordStage("features", 0.2, nil)
	r.RecordStage("load", 0.1, errors.New("down"))
	r.RecordRows("features", "in", 10)
	r.RecordRows("features", "in", 5)
	r.RecordAnomalies("SA1", 2)

	assert.Equal(t, 15.0, testutil.ToFloat64(r.rows.WithLabelValues("features", "in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageErrors.WithLabelValues("load")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.anomalies.WithLabelValues("SA1")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordRows("join", "out", 3)
	path := filepath.Join(t.TempDir(), "gridpulse.prom")

	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `gridpulse_stage_rows_total{direction="out",stage="join"} 3`)
}
