// Package usage computes token usage and active-time statistics from
// Codex session logs.
package usage

import (
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// Granularity selection thresholds, in window duration.
const (
	hourGranularityMax = 2 * 24 * time.Hour
	dayGranularityMax  = 120 * 24 * time.Hour
	weekGranularityMax = 400 * 24 * time.Hour
)

// shiftMonths moves t by the given number of calendar months, clamping the
// day to the target month's length (Jan 31 - 1 month = Dec 31, Mar 31 - 1
// month = Feb 28/29).
func shiftMonths(t time.Time, months int) time.Time {
	year := t.Year() + (int(t.Month())-1+months)/12
	month := (int(t.Month())-1+months)%12 + 1
	if month <= 0 {
		month += 12
		year--
	}
	day := t.Day()
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ResolveWindow turns a window key (or explicit overrides) into concrete
// start/end instants. The earliest known event anchors "all"; explicit
// overrides always win and resolve to the custom label.
func ResolveWindow(q models.UsageQuery, now time.Time, earliest time.Time) (start, end time.Time, label string) {
	if q.IsCustom() {
		start = q.Start
		if start.IsZero() {
			start = earliest
			if start.IsZero() {
				start = now
			}
		}
		end = q.End
		if end.IsZero() {
			end = now
		}
		return start, end, string(models.WindowCustom)
	}

	switch q.Key {
	case models.WindowAll:
		start = earliest
		if start.IsZero() {
			start = now
		}
		return start, now, string(models.WindowAll)
	case models.WindowDay:
		return now.Add(-24 * time.Hour), now, string(models.WindowDay)
	case models.WindowWeek:
		return now.Add(-7 * 24 * time.Hour), now, string(models.WindowWeek)
	case models.WindowMonth:
		return shiftMonths(now, -1), now, string(models.WindowMonth)
	case models.WindowQuarter:
		return shiftMonths(now, -3), now, string(models.WindowQuarter)
	case models.WindowYear:
		return shiftMonths(now, -12), now, string(models.WindowYear)
	}

	return now, now, "unknown"
}

// SelectGranularity picks a bucket size appropriate for the window length.
func SelectGranularity(window time.Duration) models.Granularity {
	switch {
	case window <= hourGranularityMax:
		return models.GranularityHour
	case window <= dayGranularityMax:
		return models.GranularityDay
	case window <= weekGranularityMax:
		return models.GranularityWeek
	default:
		return models.GranularityMonth
	}
}

// floorToGranularity truncates a local time down to the start of its bucket.
func floorToGranularity(t time.Time, g models.Granularity) time.Time {
	switch g {
	case models.GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case models.GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case models.GranularityWeek:
		base := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		// Monday-start weeks
		offset := (int(base.Weekday()) + 6) % 7
		return base.AddDate(0, 0, -offset)
	case models.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return t
}

// addGranularity advances a local time by one bucket period.
func addGranularity(t time.Time, g models.Granularity) time.Time {
	switch g {
	case models.GranularityHour:
		return t.Add(time.Hour)
	case models.GranularityDay:
		return t.AddDate(0, 0, 1)
	case models.GranularityWeek:
		return t.AddDate(0, 0, 7)
	case models.GranularityMonth:
		return shiftMonths(t, 1)
	}
	return t
}
