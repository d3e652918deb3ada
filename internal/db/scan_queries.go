package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/usage"
)

// Lookup returns the cached scan result for a session file, or nil when the
// cache has no entry matching the given size and mtime. Implements
// usage.Store.
func (db *DB) Lookup(path string, size int64, mtime time.Time) (*usage.ScanResult, error) {
	ctx := context.Background()

	var (
		fileID   int64
		badLines int
	)
	err := db.QueryRowContext(ctx,
		"SELECT id, bad_lines FROM files WHERE path = ? AND size = ? AND mtime_unix_ns = ?",
		path, size, mtime.UnixNano()).Scan(&fileID, &badLines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file entry: %w", err)
	}

	res := &usage.ScanResult{BadLines: badLines}

	rows, err := db.QueryContext(ctx,
		"SELECT start_unix_ns, end_unix_ns FROM intervals WHERE file_id = ? ORDER BY start_unix_ns",
		fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var startNs, endNs int64
		if err := rows.Scan(&startNs, &endNs); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		res.Intervals = append(res.Intervals, models.Interval{
			Start: time.Unix(0, startNs).UTC(),
			End:   time.Unix(0, endNs).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intervals: %w", err)
	}

	eventRows, err := db.QueryContext(ctx, `
		SELECT timestamp_unix_ns, model, input_tokens, cached_input_tokens,
		       output_tokens, reasoning_tokens, total_tokens
		FROM token_events WHERE file_id = ? ORDER BY timestamp_unix_ns`,
		fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query token events: %w", err)
	}
	defer eventRows.Close()
	for eventRows.Next() {
		var (
			tsNs  int64
			event models.TokenEvent
		)
		if err := eventRows.Scan(&tsNs, &event.Model, &event.InputTokens,
			&event.CachedInputTokens, &event.OutputTokens,
			&event.ReasoningTokens, &event.TotalTokens); err != nil {
			return nil, fmt.Errorf("failed to scan token event: %w", err)
		}
		event.Timestamp = time.Unix(0, tsNs).UTC()
		res.Events = append(res.Events, event)
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate token events: %w", err)
	}

	return res, nil
}

// Save replaces the cached scan result for a session file. Implements
// usage.Store.
func (db *DB) Save(path string, size int64, mtime time.Time, res usage.ScanResult) error {
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to clear stale file entry: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO files (path, size, mtime_unix_ns, bad_lines) VALUES (?, ?, ?, ?)",
		path, size, mtime.UnixNano(), res.BadLines)
	if err != nil {
		return fmt.Errorf("failed to insert file entry: %w", err)
	}
	fileID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get file id: %w", err)
	}

	for _, interval := range res.Intervals {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO intervals (file_id, start_unix_ns, end_unix_ns) VALUES (?, ?, ?)",
			fileID, interval.Start.UnixNano(), interval.End.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert interval: %w", err)
		}
	}

	for _, event := range res.Events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO token_events (
				file_id, timestamp_unix_ns, model, input_tokens,
				cached_input_tokens, output_tokens, reasoning_tokens, total_tokens
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			fileID, event.Timestamp.UnixNano(), event.Model, event.InputTokens,
			event.CachedInputTokens, event.OutputTokens,
			event.ReasoningTokens, event.TotalTokens); err != nil {
			return fmt.Errorf("failed to insert token event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan result: %w", err)
	}
	return nil
}

// Prune removes cache entries for session files that no longer exist on
// disk. keep holds the paths of the files currently present.
func (db *DB) Prune(keep []string) (int64, error) {
	ctx := context.Background()

	known := make(map[string]struct{}, len(keep))
	for _, p := range keep {
		known[p] = struct{}{}
	}

	rows, err := db.QueryContext(ctx, "SELECT id, path FROM files")
	if err != nil {
		return 0, fmt.Errorf("failed to list cached files: %w", err)
	}
	defer rows.Close()

	var stale []int64
	for rows.Next() {
		var (
			id   int64
			path string
		)
		if err := rows.Scan(&id, &path); err != nil {
			return 0, fmt.Errorf("failed to scan cached file: %w", err)
		}
		if _, ok := known[path]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate cached files: %w", err)
	}

	var removed int64
	for _, id := range stale {
		if _, err := db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id); err != nil {
			return removed, fmt.Errorf("failed to prune cached file: %w", err)
		}
		removed++
	}
	return removed, nil
}
