package models

import "time"

// Interval is a span of active Codex usage, from a user message to the
// corresponding agent response.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// TokenEvent is a single token_count record extracted from a session log.
type TokenEvent struct {
	Timestamp         time.Time
	Model             string
	InputTokens       int64
	CachedInputTokens int64
	OutputTokens      int64
	ReasoningTokens   int64
	TotalTokens       int64
}
