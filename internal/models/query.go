package models

import "time"

// UsageQuery describes one dataset retrieval. Either Key names a predefined
// window, or Start/End carry an explicit custom range. Granularity is
// optional; when empty it is chosen from the window length.
type UsageQuery struct {
	Key         WindowKey
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// IsCustom reports whether the query carries an explicit range.
func (q UsageQuery) IsCustom() bool {
	return !q.Start.IsZero() || !q.End.IsZero()
}
