package usage

import (
	"testing"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

func iv(t *testing.T, start, end string) models.Interval {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("bad start %q: %v", start, err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		t.Fatalf("bad end %q: %v", end, err)
	}
	return models.Interval{Start: s, End: e}
}

func TestMergeIntervals(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Interval
		want []models.Interval
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "disjoint stay separate",
			in: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:05:00Z"),
				iv(t, "2026-08-01T11:00:00Z", "2026-08-01T11:05:00Z"),
			},
			want: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:05:00Z"),
				iv(t, "2026-08-01T11:00:00Z", "2026-08-01T11:05:00Z"),
			},
		},
		{
			name: "overlap collapses",
			in: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:10:00Z"),
				iv(t, "2026-08-01T10:05:00Z", "2026-08-01T10:20:00Z"),
			},
			want: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:20:00Z"),
			},
		},
		{
			name: "touching edges merge",
			in: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:10:00Z"),
				iv(t, "2026-08-01T10:10:00Z", "2026-08-01T10:15:00Z"),
			},
			want: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:15:00Z"),
			},
		},
		{
			name: "unsorted input",
			in: []models.Interval{
				iv(t, "2026-08-01T11:00:00Z", "2026-08-01T11:05:00Z"),
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:05:00Z"),
			},
			want: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:05:00Z"),
				iv(t, "2026-08-01T11:00:00Z", "2026-08-01T11:05:00Z"),
			},
		},
		{
			name: "contained interval absorbed",
			in: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T11:00:00Z"),
				iv(t, "2026-08-01T10:15:00Z", "2026-08-01T10:30:00Z"),
			},
			want: []models.Interval{
				iv(t, "2026-08-01T10:00:00Z", "2026-08-01T11:00:00Z"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeIntervals(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d intervals, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !got[i].Start.Equal(tt.want[i].Start) || !got[i].End.Equal(tt.want[i].End) {
					t.Errorf("interval %d = %v..%v, want %v..%v",
						i, got[i].Start, got[i].End, tt.want[i].Start, tt.want[i].End)
				}
			}
		})
	}
}

func TestClampInterval(t *testing.T) {
	winStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	winEnd := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		in     models.Interval
		want   models.Interval
		wantOK bool
	}{
		{
			name:   "fully inside",
			in:     iv(t, "2026-08-01T10:00:00Z", "2026-08-01T11:00:00Z"),
			want:   iv(t, "2026-08-01T10:00:00Z", "2026-08-01T11:00:00Z"),
			wantOK: true,
		},
		{
			name:   "spills over start",
			in:     iv(t, "2026-07-31T23:00:00Z", "2026-08-01T01:00:00Z"),
			want:   iv(t, "2026-08-01T00:00:00Z", "2026-08-01T01:00:00Z"),
			wantOK: true,
		},
		{
			name:   "spills over end",
			in:     iv(t, "2026-08-01T23:00:00Z", "2026-08-02T01:00:00Z"),
			want:   iv(t, "2026-08-01T23:00:00Z", "2026-08-02T00:00:00Z"),
			wantOK: true,
		},
		{
			name:   "entirely before",
			in:     iv(t, "2026-07-30T00:00:00Z", "2026-07-30T01:00:00Z"),
			wantOK: false,
		},
		{
			name:   "entirely after",
			in:     iv(t, "2026-08-03T00:00:00Z", "2026-08-03T01:00:00Z"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClampInterval(tt.in, winStart, winEnd)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End) {
				t.Errorf("got %v..%v, want %v..%v", got.Start, got.End, tt.want.Start, tt.want.End)
			}
		})
	}
}

func TestSumSeconds(t *testing.T) {
	intervals := []models.Interval{
		iv(t, "2026-08-01T10:00:00Z", "2026-08-01T10:05:00Z"),
		iv(t, "2026-08-01T11:00:00Z", "2026-08-01T11:01:30Z"),
	}
	if got := sumSeconds(intervals); got != 390 {
		t.Errorf("sumSeconds = %v, want 390", got)
	}
}
