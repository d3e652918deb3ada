package usage

import (
	"bufio"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// ScanResult holds everything extracted from one session log file.
type ScanResult struct {
	Intervals []models.Interval
	Events    []models.TokenEvent
	BadLines  int
}

// sessionLine is the envelope shared by all session log records.
type sessionLine struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type turnContextPayload struct {
	Model string `json:"model"`
}

type eventMsgPayload struct {
	Type string `json:"type"`
	Info struct {
		LastTokenUsage  map[string]any `json:"last_token_usage"`
		TotalTokenUsage map[string]any `json:"total_token_usage"`
	} `json:"info"`
}

type responseItemPayload struct {
	Type string `json:"type"`
	Role string `json:"role"`
}

// SessionFiles lists every .jsonl file under the given roots, skipping
// legacy/ subtrees and roots that do not exist.
func SessionFiles(roots []string) []string {
	var files []string
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if d.Name() == "legacy" {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".jsonl") {
				files = append(files, path)
			}
			return nil
		})
	}
	return files
}

// ScanFile extracts activity intervals and token events from one session
// log. Unparseable lines are counted, not fatal; an unreadable file counts
// as one bad line and yields whatever was read before the failure.
func ScanFile(path string) ScanResult {
	var res ScanResult

	file, err := os.Open(path)
	if err != nil {
		res.BadLines++
		return res
	}
	defer func() { _ = file.Close() }()

	var (
		pendingStart        time.Time
		pendingCandidateEnd time.Time
		prevTotals          = map[string]int64{}
		currentModel        = "unknown"
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item sessionLine
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			res.BadLines++
			continue
		}

		ts, ok := parseTimestamp(item.Timestamp)
		if !ok {
			continue
		}

		switch item.Type {
		case "turn_context":
			var payload turnContextPayload
			if err := json.Unmarshal(item.Payload, &payload); err == nil {
				currentModel = normalizeModelName(payload.Model)
			}

		case "event_msg":
			var payload eventMsgPayload
			if err := json.Unmarshal(item.Payload, &payload); err != nil {
				continue
			}
			switch payload.Type {
			case "user_message":
				if pendingStart.IsZero() {
					pendingStart = ts
					pendingCandidateEnd = time.Time{}
				}
			case "agent_message":
				if !pendingStart.IsZero() {
					if !ts.Before(pendingStart) {
						res.Intervals = append(res.Intervals, models.Interval{Start: pendingStart, End: ts})
					}
					pendingStart = time.Time{}
					pendingCandidateEnd = time.Time{}
				}
			case "token_count":
				event := extractTokenEvent(ts, currentModel,
					payload.Info.LastTokenUsage, payload.Info.TotalTokenUsage, prevTotals)
				res.Events = append(res.Events, event)
			}

		case "response_item":
			var payload responseItemPayload
			if err := json.Unmarshal(item.Payload, &payload); err != nil {
				continue
			}
			if payload.Type == "message" && payload.Role == "assistant" &&
				!pendingStart.IsZero() && pendingCandidateEnd.IsZero() {
				pendingCandidateEnd = ts
			}
		}
	}
	if err := scanner.Err(); err != nil {
		res.BadLines++
	}

	// A turn that never saw an agent_message still counts if an assistant
	// response item arrived.
	if !pendingStart.IsZero() && !pendingCandidateEnd.IsZero() &&
		!pendingCandidateEnd.Before(pendingStart) {
		res.Intervals = append(res.Intervals, models.Interval{Start: pendingStart, End: pendingCandidateEnd})
	}

	return res
}

// extractTokenEvent builds a TokenEvent from a token_count record,
// preferring last_token_usage and falling back to deltas of the running
// totals. Negative counters are clamped to zero.
func extractTokenEvent(ts time.Time, model string, lastUsage, totalUsage map[string]any, prevTotals map[string]int64) models.TokenEvent {
	tokens, haveTokens := parseCount(lastUsage, "total_tokens")
	input, haveInput := parseCount(lastUsage, "input_tokens")
	cached, haveCached := parseCount(lastUsage, "cached_input_tokens")
	output, haveOutput := parseCount(lastUsage, "output_tokens")
	reasoning, haveReasoning := parseCount(lastUsage, "reasoning_output_tokens")

	if !haveTokens {
		if total, ok := parseCount(totalUsage, "total_tokens"); ok {
			if prev, seen := prevTotals["total_tokens"]; seen {
				tokens = total - prev
			} else {
				tokens = total
			}
		}
	}
	if !haveInput {
		input = deltaFromTotals(totalUsage, prevTotals, "input_tokens")
	}
	if !haveCached {
		cached = deltaFromTotals(totalUsage, prevTotals, "cached_input_tokens")
	}
	if !haveOutput {
		output = deltaFromTotals(totalUsage, prevTotals, "output_tokens")
	}
	if !haveReasoning {
		reasoning = deltaFromTotals(totalUsage, prevTotals, "reasoning_output_tokens")
	}

	// Track the running total even when last_token_usage supplied the values.
	if total, ok := parseCount(totalUsage, "total_tokens"); ok {
		prevTotals["total_tokens"] = total
	}

	tokens = max(tokens, 0)
	input = max(input, 0)
	cached = max(cached, 0)
	output = max(output, 0)
	reasoning = max(reasoning, 0)

	totalTokens := tokens
	if totalTokens == 0 {
		totalTokens = input + output + reasoning
	}

	return models.TokenEvent{
		Timestamp:         ts,
		Model:             model,
		InputTokens:       input,
		CachedInputTokens: cached,
		OutputTokens:      output,
		ReasoningTokens:   reasoning,
		TotalTokens:       totalTokens,
	}
}

// deltaFromTotals returns the increase of a running counter since the
// previous record, updating the tracker.
func deltaFromTotals(totalUsage map[string]any, prevTotals map[string]int64, key string) int64 {
	current, ok := parseCount(totalUsage, key)
	if !ok {
		return 0
	}
	prev, seen := prevTotals[key]
	prevTotals[key] = current
	if !seen {
		return current
	}
	return current - prev
}

// parseCount reads a token counter from a usage map, accepting numbers and
// numeric strings.
func parseCount(usage map[string]any, key string) (int64, bool) {
	if usage == nil {
		return 0, false
	}
	v, ok := usage[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// parseTimestamp accepts RFC 3339 timestamps with or without a trailing Z.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func normalizeModelName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "unknown"
	}
	return raw
}
