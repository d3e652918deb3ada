package usage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/logger"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// Store caches per-file scan results so unchanged session logs are not
// re-parsed on every computation. Implementations key on path plus the
// file's size and mtime.
type Store interface {
	// Lookup returns the cached result for a file, or nil when the cache
	// has no entry matching the given size and mtime.
	Lookup(path string, size int64, mtime time.Time) (*ScanResult, error)
	// Save replaces the cached result for a file.
	Save(path string, size int64, mtime time.Time, res ScanResult) error
}

// Pruner is implemented by stores that can drop cache entries for session
// files no longer present on disk.
type Pruner interface {
	Prune(keep []string) (int64, error)
}

// Engine computes usage datasets from session logs under one or more roots.
type Engine struct {
	roots func() []string
	store Store
	now   func() time.Time
}

// NewEngine creates an engine over the given sessions roots. store may be
// nil, in which case every computation re-parses all files.
func NewEngine(roots []string, store Store) *Engine {
	return NewDynamicEngine(func() []string { return roots }, store)
}

// NewDynamicEngine creates an engine whose roots are re-evaluated on every
// computation, so session sources can appear at runtime.
func NewDynamicEngine(roots func() []string, store Store) *Engine {
	return &Engine{roots: roots, store: store, now: time.Now}
}

// Compute scans the sessions roots and produces a dataset for the query.
func (e *Engine) Compute(ctx context.Context, q models.UsageQuery) (*models.Dataset, error) {
	files := SessionFiles(e.roots())

	var (
		allIntervals []models.Interval
		allEvents    []models.TokenEvent
		badLines     int
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := e.scan(path)
		allIntervals = append(allIntervals, res.Intervals...)
		allEvents = append(allEvents, res.Events...)
		badLines += res.BadLines
	}

	if p, ok := e.store.(Pruner); ok {
		if removed, err := p.Prune(files); err != nil {
			logger.Warn("scan cache prune failed", "error", err)
		} else if removed > 0 {
			logger.Debug("pruned stale scan cache entries", "removed", removed)
		}
	}

	earliest := earliestInstant(allIntervals, allEvents)
	start, end, label := ResolveWindow(q, e.now(), earliest)
	if end.Before(start) {
		return nil, fmt.Errorf("window end %s precedes start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	granularity := q.Granularity
	if !granularity.Valid() {
		granularity = SelectGranularity(end.Sub(start))
	}

	merged := MergeIntervals(allIntervals)
	var clamped []models.Interval
	for _, iv := range merged {
		if c, ok := ClampInterval(iv, start, end); ok {
			clamped = append(clamped, c)
		}
	}
	var clampedRaw []models.Interval
	for _, iv := range allIntervals {
		if c, ok := ClampInterval(iv, start, end); ok {
			clampedRaw = append(clampedRaw, c)
		}
	}

	activeAny := sumSeconds(clamped)
	activeSummed := sumSeconds(clampedRaw)

	ds := &models.Dataset{
		Window:          label,
		WindowStart:     start,
		WindowEnd:       end,
		Granularity:     granularity,
		Buckets:         BucketizeTokens(allEvents, start, end, granularity),
		ActivityBuckets: BucketizeIntervals(clamped, start, end, granularity),
		ActiveSeconds:   activeAny,
		ActiveSummed:    activeSummed,
		IntervalsRaw:    len(allIntervals),
		IntervalsMerged: len(merged),
		FilesScanned:    len(files),
		BadLines:        badLines,
	}

	if span := end.Sub(start).Seconds(); span > 0 {
		pct := activeAny / span * 100
		ds.UptimePercent = &pct
		ds.PercentSummed = activeSummed / span * 100
	}

	byModel := TokensByModel(allEvents, start, end)
	for _, u := range byModel {
		ds.TokensTotal += u.TotalTokens
	}
	ds.CostTotal, ds.CostPartial, ds.UnknownModels = EstimateCost(byModel)

	return ds, nil
}

// scan reads one session file through the store when available.
func (e *Engine) scan(path string) ScanResult {
	info, err := os.Stat(path)
	if err != nil {
		return ScanResult{BadLines: 1}
	}

	if e.store != nil {
		cached, err := e.store.Lookup(path, info.Size(), info.ModTime())
		if err != nil {
			logger.Warn("scan cache lookup failed", "path", path, "error", err)
		} else if cached != nil {
			return *cached
		}
	}

	res := ScanFile(path)

	if e.store != nil {
		if err := e.store.Save(path, info.Size(), info.ModTime(), res); err != nil {
			logger.Warn("scan cache save failed", "path", path, "error", err)
		}
	}
	return res
}

// earliestInstant finds the oldest timestamp across intervals and events.
func earliestInstant(intervals []models.Interval, events []models.TokenEvent) time.Time {
	var earliest time.Time
	for _, iv := range intervals {
		if earliest.IsZero() || iv.Start.Before(earliest) {
			earliest = iv.Start
		}
	}
	for _, ev := range events {
		if earliest.IsZero() || ev.Timestamp.Before(earliest) {
			earliest = ev.Timestamp
		}
	}
	return earliest
}
