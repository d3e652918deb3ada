package chart

import (
	"context"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// Fetcher is the retrieval collaborator. The chart core never fetches
// itself; it only decides when a fetch is needed.
type Fetcher interface {
	Fetch(ctx context.Context, q models.UsageQuery) (*models.Dataset, error)
}

// FetchRequest describes one retrieval the controller wants issued. Seq is
// the per-key sequence number used to discard stale responses.
type FetchRequest struct {
	Key   models.WindowKey
	Seq   uint64
	Query models.UsageQuery
}

// RequestError is a retrieval failure carrying a human-readable message,
// shown inline in place of the stat display.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}
