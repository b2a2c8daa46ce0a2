package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNEMTime(t *testing.T) {
	got, ok := ParseNEMTime(` "2025/12/05 00:05:00" `)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 5, 0, 5, 0, 0, time.UTC), got)

	_, ok = ParseNEMTime("05/12/2025 00:05")
	assert.False(t, ok)
	_, ok = ParseNEMTime("")
	assert.False(t, ok)
}

func TestParseTimeLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-10-10 10:10:10":  time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC),
		"2024-10-10":           time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC),
		"2024-10-10T10:10:10Z": time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseTime(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestDateOfAndDaysBetween(t *testing.T) {
	a := time.Date(2025, 1, 31, 23, 55, 0, 0, time.UTC)
	b := time.Date(2025, 2, 2, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), DateOf(a))
	assert.Equal(t, 2, DaysBetween(a, b))
}

func TestParseOptionalFloat(t *testing.T) {
	assert.Nil(t, ParseOptionalFloat(""))
	assert.Nil(t, ParseOptionalFloat("NaN"))
	assert.Nil(t, ParseOptionalFloat("abc"))
	v := ParseOptionalFloat(` "-12.5" `)
	require.NotNil(t, v)
	assert.Equal(t, -12.5, *v)
	assert.Equal(t, "0.1", FormatOptionalFloat(Float64(0.1)))
	assert.Equal(t, "", FormatOptionalFloat(nil))
}
