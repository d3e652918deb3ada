package usage

import (
	"sort"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// BucketizeTokens aggregates token events into granularity-aligned buckets
// covering the window. Reported bucket edges are the floored local grid
// edges; only the aggregation range is clamped to the window, so the first
// bucket labels its grid edge even when the window starts mid-bucket.
func BucketizeTokens(events []models.TokenEvent, start, end time.Time, g models.Granularity) []models.Bucket {
	if !end.After(start) {
		return nil
	}

	totals := map[time.Time]int64{}
	for _, ev := range events {
		ts := ev.Timestamp.Local()
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		totals[floorToGranularity(ts, g)] += ev.TotalTokens
	}

	var buckets []models.Bucket
	for cur := floorToGranularity(start.Local(), g); cur.Before(end); cur = addGranularity(cur, g) {
		buckets = append(buckets, models.Bucket{
			Start:  cur,
			End:    addGranularity(cur, g),
			Tokens: totals[cur],
		})
	}
	return buckets
}

// BucketizeIntervals aggregates merged activity intervals into the same
// bucket grid, reporting active seconds and percent coverage per bucket.
// As with token buckets, the reported edges are the unclamped grid edges;
// coverage is measured against the window-clamped span.
func BucketizeIntervals(merged []models.Interval, start, end time.Time, g models.Granularity) []models.ActivityBucket {
	if !end.After(start) {
		return nil
	}

	var buckets []models.ActivityBucket
	for cur := floorToGranularity(start.Local(), g); cur.Before(end); cur = addGranularity(cur, g) {
		bucketEnd := addGranularity(cur, g)
		clampedStart := cur
		if clampedStart.Before(start) {
			clampedStart = start
		}
		clampedEnd := bucketEnd
		if clampedEnd.After(end) {
			clampedEnd = end
		}

		var active float64
		for _, iv := range merged {
			if clamped, ok := ClampInterval(iv, clampedStart, clampedEnd); ok {
				active += clamped.Duration().Seconds()
			}
		}

		span := clampedEnd.Sub(clampedStart).Seconds()
		var percent float64
		if span > 0 {
			percent = active / span * 100
		}
		buckets = append(buckets, models.ActivityBucket{
			Start:         cur,
			End:           bucketEnd,
			ActiveSeconds: active,
			Percent:       percent,
		})
	}
	return buckets
}

// TokensByModel sums total tokens per model over events inside the window.
func TokensByModel(events []models.TokenEvent, start, end time.Time) map[string]*ModelUsage {
	byModel := map[string]*ModelUsage{}
	for _, ev := range events {
		ts := ev.Timestamp
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		u := byModel[ev.Model]
		if u == nil {
			u = &ModelUsage{}
			byModel[ev.Model] = u
		}
		u.InputTokens += ev.InputTokens
		u.CachedInputTokens += ev.CachedInputTokens
		u.OutputTokens += ev.OutputTokens
		u.ReasoningTokens += ev.ReasoningTokens
		u.TotalTokens += ev.TotalTokens
	}
	return byModel
}

// ModelUsage accumulates per-model token counters for cost estimation.
type ModelUsage struct {
	InputTokens       int64
	CachedInputTokens int64
	OutputTokens      int64
	ReasoningTokens   int64
	TotalTokens       int64
}

// sortedModels returns the model names in deterministic order.
func sortedModels(byModel map[string]*ModelUsage) []string {
	names := make([]string, 0, len(byModel))
	for name := range byModel {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
