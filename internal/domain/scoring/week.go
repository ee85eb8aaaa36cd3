package scoring

import (
	"fmt"
	"time"
)

// WeekStart returns the Monday 00:00:00 UTC that opens the calendar
// week containing t. Weeks run Monday through Sunday.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns the last instant of the week opened by start.
func WeekEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, 7).Add(-time.Second)
}

// ISOWeekKey renders the ISO week of t as "2026-W35". Snapshots and
// recalculation requests are keyed by this string.
func ISOWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// IsRollupDay reports whether t falls on the designated weekly rollup
// day, the first day of the Monday-based week.
func IsRollupDay(t time.Time) bool {
	return t.UTC().Weekday() == time.Monday
}
