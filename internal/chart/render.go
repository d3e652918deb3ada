package chart

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/styles"
)

// RenderStyles groups the lipgloss styles the renderer draws with.
type RenderStyles struct {
	Bar           lipgloss.Style
	BarHovered    lipgloss.Style
	Gridline      lipgloss.Style
	TickLabel     lipgloss.Style
	CategoryLabel lipgloss.Style
	HoverLabel    lipgloss.Style
}

// DefaultRenderStyles returns the application theme for the chart.
func DefaultRenderStyles() RenderStyles {
	return RenderStyles{
		Bar:           lipgloss.NewStyle().Foreground(styles.Secondary),
		BarHovered:    lipgloss.NewStyle().Foreground(styles.Primary),
		Gridline:      lipgloss.NewStyle().Foreground(styles.BgLight),
		TickLabel:     lipgloss.NewStyle().Foreground(styles.TextMuted),
		CategoryLabel: lipgloss.NewStyle().Foreground(styles.TextSecondary),
		HoverLabel:    lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true),
	}
}

// Frame is everything one draw needs: the dataset, its layout, the hover
// state, and where the plot area sits on the surface.
type Frame struct {
	Buckets     []models.Bucket
	Granularity models.Granularity
	Layout      Layout
	Hovered     int
	OriginX     int
	OriginY     int
}

// Renderer draws a frame onto a surface. Stateless between frames; every
// draw fully reconstructs the output, so repeated draws with unchanged
// inputs yield an unchanged frame.
type Renderer struct {
	Styles RenderStyles
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Styles: DefaultRenderStyles()}
}

// Draw renders in a fixed order: clear, gridlines and tick labels, bars,
// thinned category labels, then the hover label.
func (r *Renderer) Draw(s Surface, f Frame) {
	s.Clear()
	r.drawGridlines(s, f)
	r.drawBars(s, f)
	r.drawCategoryLabels(s, f)
	r.drawHoverLabel(s, f)
}

func (r *Renderer) drawGridlines(s Surface, f Frame) {
	maxTick := f.Layout.Ticks[len(f.Layout.Ticks)-1]
	baseline := f.OriginY + int(f.Layout.Height) - 1
	plotWidth := int(f.Layout.Width)

	for _, tick := range f.Layout.Ticks {
		var rows float64
		if maxTick > 0 {
			rows = tick / maxTick * (f.Layout.Height - 1)
		}
		y := baseline - int(rows+0.5)
		if y < f.OriginY {
			continue
		}
		s.HLine(f.OriginX, y, plotWidth, r.Styles.Gridline)

		label := FormatTokens(tick)
		x := f.OriginX - len(label) - 1
		if x < 0 {
			x = 0
		}
		s.Text(x, y, label, r.Styles.TickLabel)
	}
}

func (r *Renderer) drawBars(s Surface, f Frame) {
	baseline := f.OriginY + int(f.Layout.Height) - 1
	for _, bar := range f.Layout.Bars {
		style := r.Styles.Bar
		if bar.Index == f.Hovered {
			style = r.Styles.BarHovered
		}
		x := f.OriginX + int(bar.X+0.5)
		w := int(bar.Width + 0.5)
		if w < 1 {
			w = 1
		}
		s.FillBar(x, w, baseline, bar.Height, style)
	}
}

func (r *Renderer) drawCategoryLabels(s Surface, f Frame) {
	y := f.OriginY + int(f.Layout.Height)
	for _, bar := range f.Layout.Bars {
		if bar.Index%f.Layout.LabelEvery != 0 {
			continue
		}
		if bar.Index >= len(f.Buckets) {
			break
		}
		label := BucketLabel(f.Buckets[bar.Index].Start, f.Granularity)
		// Center under the bar, clipped at the plot's left edge.
		x := f.OriginX + int(bar.X+bar.Width/2+0.5) - len(label)/2
		if x < f.OriginX {
			x = f.OriginX
		}
		s.Text(x, y, label, r.Styles.CategoryLabel)
	}
}

func (r *Renderer) drawHoverLabel(s Surface, f Frame) {
	if f.Hovered < 0 || f.Hovered >= len(f.Layout.Bars) || f.Hovered >= len(f.Buckets) {
		return
	}
	bar := f.Layout.Bars[f.Hovered]
	label := fmt.Sprintf("%s tokens", FormatTokens(float64(f.Buckets[f.Hovered].Tokens)))

	y := f.OriginY + int(bar.Y+0.5) - 1
	if y < 0 {
		y = 0
	}
	x := f.OriginX + int(bar.X+bar.Width/2+0.5) - len(label)/2
	if x < 0 {
		x = 0
	}
	s.Text(x, y, label, r.Styles.HoverLabel)
}

// FormatTokens humanizes a token count: 950, 1.2k, 3.4M, 1.1B.
func FormatTokens(v float64) string {
	switch {
	case v >= 1e9:
		return trimZero(fmt.Sprintf("%.1fB", v/1e9))
	case v >= 1e6:
		return trimZero(fmt.Sprintf("%.1fM", v/1e6))
	case v >= 1e3:
		return trimZero(fmt.Sprintf("%.1fk", v/1e3))
	default:
		return fmt.Sprintf("%d", int64(v+0.5))
	}
}

func trimZero(s string) string {
	if len(s) > 3 && s[len(s)-3:len(s)-1] == ".0" {
		return s[:len(s)-3] + s[len(s)-1:]
	}
	return s
}

// BucketLabel formats a bucket start for the category axis.
func BucketLabel(t time.Time, g models.Granularity) string {
	switch g {
	case models.GranularityHour:
		return t.Local().Format("15:04")
	case models.GranularityDay:
		return t.Local().Format("Jan 2")
	case models.GranularityWeek:
		return t.Local().Format("Jan 2")
	case models.GranularityMonth:
		return t.Local().Format("Jan 06")
	}
	return t.Local().Format("2006-01-02")
}
