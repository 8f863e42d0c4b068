package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	timestampLayout      = "2006-01-02T15:04:05"
	timestampMicroLayout = "2006-01-02T15:04:05.000000"
	dateLayout           = "2006-01-02"
	monthLayout          = "2006-01"
)

// FormatTimestamp renders a local date-time with no zone. Microseconds are
// written only when non-zero.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(timestampLayout)
	}
	return t.Format(timestampMicroLayout)
}

// ParseTimestamp accepts the stored date-time form, with or without
// fractional seconds, and a bare date. Values are interpreted in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(timestampLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// MonthLabel returns the YYYY-MM bucket of t.
func MonthLabel(t time.Time) string {
	return t.Format(monthLayout)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
