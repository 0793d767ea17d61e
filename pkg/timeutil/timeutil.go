// Package timeutil provides time helpers for pass timestamps and retention.
// All times are UTC: pass stamps are compared across machines, so a local
// zone anywhere in the pipeline would corrupt retention and diff logic.
package timeutil

import "time"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns 00:00:00 UTC of the given day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999999999 UTC of the given day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// IsSameDay reports whether two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	t1, t2 = t1.UTC(), t2.UTC()
	return t1.Year() == t2.Year() && t1.Month() == t2.Month() && t1.Day() == t2.Day()
}

// DaysSince returns the number of whole UTC days elapsed since t.
func DaysSince(t time.Time) int {
	return int(StartOfDay(Now()).Sub(StartOfDay(t)).Hours() / 24)
}

// RetentionCutoff returns the point in time before which records of old
// scoring passes are eligible for deletion.
func RetentionCutoff(keep time.Duration) time.Time {
	return Now().Add(-keep)
}

// FormatStamp formats a pass timestamp for logs and DTOs (RFC 3339, UTC).
func FormatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
