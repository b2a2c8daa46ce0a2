package util

import (
	"strconv"
	"strings"
	"time"
)

const (
	// NEMLayout is the settlement timestamp layout used in AEMO/NEMWeb files.
	NEMLayout = "2006/01/02 15:04:05"
	// TimestampLayout is the canonical timestamp layout of every processed file.
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is the canonical calendar date layout.
	DateLayout = "2006-01-02"
)

// ParseNEMTime strips whitespace and surrounding quotes and parses the NEMWeb layout.
// Market timestamps carry no zone, so they are read as wall-clock UTC.
func ParseNEMTime(s string) (time.Time, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(NEMLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseTime tries the canonical layout, date-only, RFC3339 and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimestampLayout, DateLayout, time.RFC3339, time.RFC3339Nano, NEMLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// DateOf truncates t to its calendar date, keeping wall-clock semantics.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// FormatTimestamp renders t in the canonical timestamp layout.
func FormatTimestamp(t time.Time) string { return t.Format(TimestampLayout) }

// FormatDate renders t in the canonical date layout.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }
