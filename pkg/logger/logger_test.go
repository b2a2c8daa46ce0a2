package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With(String("run_id", "r1"))

	l.Info("stage done",
		String("stage", "features"),
		Int("rows_out", 12),
		Float64("ratio", 0.5),
		Duration("duration_ms", 1500*time.Millisecond),
		Bool("ok", true),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stage done", entry["message"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "features", entry["stage"])
	assert.EqualValues(t, 12, entry["rows_out"])
	assert.EqualValues(t, 1500, entry["duration_ms"])
	assert.Equal(t, true, entry["ok"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("boom", Error(errors.New("bad")))
	assert.Contains(t, buf.String(), `"error":"bad"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Warn("ignored", Int("n", 1)) })
}
