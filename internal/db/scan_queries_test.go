package db

import (
	"testing"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/usage"
)

func sampleResult() usage.ScanResult {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return usage.ScanResult{
		Intervals: []models.Interval{
			{Start: start, End: start.Add(30 * time.Second)},
		},
		Events: []models.TokenEvent{
			{
				Timestamp:         start.Add(20 * time.Second),
				Model:             "gpt-5",
				InputTokens:       100,
				CachedInputTokens: 40,
				OutputTokens:      50,
				ReasoningTokens:   10,
				TotalTokens:       160,
			},
		},
		BadLines: 2,
	}
}

func TestSaveAndLookup(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	mtime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	want := sampleResult()

	if err := db.Save("/sessions/a.jsonl", 1234, mtime, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := db.Lookup("/sessions/a.jsonl", 1234, mtime)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}

	if got.BadLines != want.BadLines {
		t.Errorf("bad lines = %d, want %d", got.BadLines, want.BadLines)
	}
	if len(got.Intervals) != 1 {
		t.Fatalf("got %d intervals, want 1", len(got.Intervals))
	}
	if !got.Intervals[0].Start.Equal(want.Intervals[0].Start) ||
		!got.Intervals[0].End.Equal(want.Intervals[0].End) {
		t.Errorf("interval = %v..%v, want %v..%v",
			got.Intervals[0].Start, got.Intervals[0].End,
			want.Intervals[0].Start, want.Intervals[0].End)
	}
	if len(got.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(got.Events))
	}
	ev, wantEv := got.Events[0], want.Events[0]
	if !ev.Timestamp.Equal(wantEv.Timestamp) || ev.Model != wantEv.Model ||
		ev.InputTokens != wantEv.InputTokens || ev.CachedInputTokens != wantEv.CachedInputTokens ||
		ev.OutputTokens != wantEv.OutputTokens || ev.ReasoningTokens != wantEv.ReasoningTokens ||
		ev.TotalTokens != wantEv.TotalTokens {
		t.Errorf("event = %+v, want %+v", ev, wantEv)
	}
}

func TestLookup_MissReturnsNil(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	got, err := db.Lookup("/sessions/missing.jsonl", 10, time.Now())
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != nil {
		t.Error("expected a cache miss for an unknown path")
	}
}

func TestLookup_StaleMetadataMisses(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	mtime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := db.Save("/sessions/a.jsonl", 1234, mtime, sampleResult()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if got, err := db.Lookup("/sessions/a.jsonl", 9999, mtime); err != nil || got != nil {
		t.Errorf("size change should miss, got %v err %v", got, err)
	}
	if got, err := db.Lookup("/sessions/a.jsonl", 1234, mtime.Add(time.Second)); err != nil || got != nil {
		t.Errorf("mtime change should miss, got %v err %v", got, err)
	}
}

func TestSave_ReplacesPreviousEntry(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	mtime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := db.Save("/sessions/a.jsonl", 1234, mtime, sampleResult()); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	replacement := usage.ScanResult{BadLines: 0}
	newMtime := mtime.Add(time.Minute)
	if err := db.Save("/sessions/a.jsonl", 2000, newMtime, replacement); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	if got, err := db.Lookup("/sessions/a.jsonl", 1234, mtime); err != nil || got != nil {
		t.Errorf("old entry should be gone, got %v err %v", got, err)
	}

	got, err := db.Lookup("/sessions/a.jsonl", 2000, newMtime)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected the replacement entry")
	}
	if len(got.Intervals) != 0 || len(got.Events) != 0 {
		t.Errorf("replacement should be empty, got %d intervals %d events",
			len(got.Intervals), len(got.Events))
	}
}

func TestPrune(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	mtime := time.Now().UTC()
	if err := db.Save("/sessions/keep.jsonl", 1, mtime, sampleResult()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := db.Save("/sessions/gone.jsonl", 2, mtime, sampleResult()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	removed, err := db.Prune([]string{"/sessions/keep.jsonl"})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if got, err := db.Lookup("/sessions/keep.jsonl", 1, mtime); err != nil || got == nil {
		t.Errorf("kept entry should survive, got %v err %v", got, err)
	}
	if got, err := db.Lookup("/sessions/gone.jsonl", 2, mtime); err != nil || got != nil {
		t.Errorf("pruned entry should be gone, got %v err %v", got, err)
	}
}
