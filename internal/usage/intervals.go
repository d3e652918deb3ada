package usage

import (
	"sort"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// MergeIntervals collapses overlapping or touching intervals into a minimal
// sorted set.
func MergeIntervals(intervals []models.Interval) []models.Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]models.Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]models.Interval, 0, len(sorted))
	current := sorted[0]
	for _, iv := range sorted[1:] {
		if !iv.Start.After(current.End) {
			if iv.End.After(current.End) {
				current.End = iv.End
			}
		} else {
			merged = append(merged, current)
			current = iv
		}
	}
	merged = append(merged, current)
	return merged
}

// ClampInterval restricts an interval to the window, returning false when
// nothing remains.
func ClampInterval(iv models.Interval, windowStart, windowEnd time.Time) (models.Interval, bool) {
	if !iv.End.After(windowStart) || !iv.Start.Before(windowEnd) {
		return models.Interval{}, false
	}
	if iv.Start.Before(windowStart) {
		iv.Start = windowStart
	}
	if iv.End.After(windowEnd) {
		iv.End = windowEnd
	}
	if !iv.End.After(iv.Start) {
		return models.Interval{}, false
	}
	return iv, true
}

func sumSeconds(intervals []models.Interval) float64 {
	var total float64
	for _, iv := range intervals {
		total += iv.Duration().Seconds()
	}
	return total
}
