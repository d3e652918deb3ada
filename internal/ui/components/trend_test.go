package components

import (
	"strings"
	"testing"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

func TestRenderUptimeTrend_Empty(t *testing.T) {
	out := RenderUptimeTrend(nil, 40, 5, "uptime")
	if !strings.Contains(out, "No activity recorded") {
		t.Errorf("empty trend = %q", out)
	}
}

func TestRenderUptimeTrend_PlotsPercentages(t *testing.T) {
	start := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	var buckets []models.ActivityBucket
	for i := 0; i < 12; i++ {
		buckets = append(buckets, models.ActivityBucket{
			Start:   start.Add(time.Duration(i) * time.Hour),
			End:     start.Add(time.Duration(i+1) * time.Hour),
			Percent: float64(i * 5),
		})
	}

	out := RenderUptimeTrend(buckets, 40, 5, "uptime %")
	if !strings.Contains(out, "uptime %") {
		t.Error("caption missing from trend panel")
	}
	if len(strings.Split(out, "\n")) < 4 {
		t.Errorf("trend panel too short:\n%s", out)
	}
}
