package models

import "time"

// Granularity is the bucket period unit for a dataset.
type Granularity string

const (
	// GranularityHour buckets by hour.
	GranularityHour Granularity = "hour"
	// GranularityDay buckets by calendar day.
	GranularityDay Granularity = "day"
	// GranularityWeek buckets by ISO week (Monday start).
	GranularityWeek Granularity = "week"
	// GranularityMonth buckets by calendar month.
	GranularityMonth Granularity = "month"
)

// Valid reports whether g is one of the known granularities.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Bucket is one aggregation period within a window.
type Bucket struct {
	Start  time.Time `json:"bucket_start"`
	End    time.Time `json:"bucket_end"`
	Tokens int64     `json:"tokens"`
}

// ActivityBucket is one aggregation period of active-time coverage.
type ActivityBucket struct {
	Start         time.Time `json:"bucket_start"`
	End           time.Time `json:"bucket_end"`
	ActiveSeconds float64   `json:"active_seconds_any_instance"`
	Percent       float64   `json:"percent_any_instance"`
}

// Dataset is the result of one usage computation for a window. The JSON
// shape matches the serve-mode API payload.
type Dataset struct {
	Window          string           `json:"window"`
	WindowStart     time.Time        `json:"window_start"`
	WindowEnd       time.Time        `json:"window_end"`
	Granularity     Granularity      `json:"granularity"`
	Buckets         []Bucket         `json:"token_buckets"`
	ActivityBuckets []ActivityBucket `json:"activity_buckets,omitempty"`
	TokensTotal     int64            `json:"tokens_total"`
	CostTotal       *float64         `json:"cost_total_usd"`
	CostPartial     bool             `json:"cost_partial"`
	UnknownModels   []string         `json:"unknown_models,omitempty"`
	UptimePercent   *float64         `json:"percent_any_instance"`
	PercentSummed   float64          `json:"percent_summed"`
	ActiveSeconds   float64          `json:"active_seconds_any_instance"`
	ActiveSummed    float64          `json:"active_seconds_summed"`
	IntervalsRaw    int              `json:"intervals_raw"`
	IntervalsMerged int              `json:"intervals_merged"`
	FilesScanned    int              `json:"files_scanned"`
	BadLines        int              `json:"bad_lines"`
}

// MaxTokens returns the largest bucket token count, or 0 for an empty dataset.
func (d *Dataset) MaxTokens() int64 {
	var maxTokens int64
	for _, b := range d.Buckets {
		if b.Tokens > maxTokens {
			maxTokens = b.Tokens
		}
	}
	return maxTokens
}
