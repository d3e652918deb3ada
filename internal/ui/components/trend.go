package components

import (
	"github.com/guptarohit/asciigraph"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/styles"
)

// RenderUptimeTrend draws the per-bucket active percentage as a line chart.
// Returns a muted placeholder when the dataset has no activity buckets.
func RenderUptimeTrend(buckets []models.ActivityBucket, width, height int, caption string) string {
	if len(buckets) == 0 {
		return styles.HelpStyle.Render("No activity recorded")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(buckets))
	for i, b := range buckets {
		data[i] = b.Percent
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
