// Package models defines data structures and domain types.
package models

import "time"

// WindowKey identifies one of the selectable time windows.
type WindowKey string

const (
	// WindowDay covers the trailing 24 hours.
	WindowDay WindowKey = "1d"
	// WindowWeek covers the trailing 7 days.
	WindowWeek WindowKey = "1w"
	// WindowMonth covers one calendar month back from now.
	WindowMonth WindowKey = "1m"
	// WindowQuarter covers three calendar months back from now.
	WindowQuarter WindowKey = "3m"
	// WindowYear covers twelve calendar months back from now.
	WindowYear WindowKey = "1y"
	// WindowAll covers everything from the earliest recorded event.
	WindowAll WindowKey = "all"
	// WindowCustom is an explicit user-supplied start/end range.
	WindowCustom WindowKey = "custom"
)

// WindowKeys lists every selectable window in display order.
func WindowKeys() []WindowKey {
	return []WindowKey{
		WindowDay, WindowWeek, WindowMonth,
		WindowQuarter, WindowYear, WindowAll, WindowCustom,
	}
}

// Valid reports whether k is one of the known window keys.
func (k WindowKey) Valid() bool {
	switch k {
	case WindowDay, WindowWeek, WindowMonth, WindowQuarter,
		WindowYear, WindowAll, WindowCustom:
		return true
	}
	return false
}

// Label returns the display name for a window key.
func (k WindowKey) Label() string {
	switch k {
	case WindowDay:
		return "24 Hours"
	case WindowWeek:
		return "7 Days"
	case WindowMonth:
		return "1 Month"
	case WindowQuarter:
		return "3 Months"
	case WindowYear:
		return "1 Year"
	case WindowAll:
		return "All Time"
	case WindowCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// TimeWindow is a window selection. Start and End are only meaningful for
// WindowCustom, where they carry the explicit user-supplied range.
type TimeWindow struct {
	Key   WindowKey
	Start time.Time
	End   time.Time
}
