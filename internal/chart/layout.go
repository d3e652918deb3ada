package chart

import (
	"math"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// Bar packing constants: the fill target and the bounds the gap and bar
// width are clamped to.
const (
	barFillTarget = 0.7
	minBarWidth   = 3.0
	minBarGap     = 1.0
	maxBarGap     = 10.0
)

// BarGeometry is the placement of one bar in surface-local coordinates,
// origin top-left, fractional units.
type BarGeometry struct {
	Index  int
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether a point lies inside the bar's rectangle.
func (b BarGeometry) Contains(x, y float64) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Layout is the computed geometry for one frame: bar placement plus the
// gridline tick values. It is a pure function of buckets and usable size.
type Layout struct {
	Width      float64
	Height     float64
	BarWidth   float64
	Gap        float64
	Bars       []BarGeometry
	Ticks      []float64
	LabelEvery int
}

// ComputeLayout packs the buckets into the usable width and scales heights
// against the largest token count. Degenerate inputs (no buckets, zero
// sizes, all-zero tokens) produce a valid empty-ish layout, never an error.
func ComputeLayout(buckets []models.Bucket, width, height float64) Layout {
	l := Layout{Width: width, Height: height, LabelEvery: labelEvery(len(buckets))}

	var maxTokens int64
	for _, b := range buckets {
		if b.Tokens > maxTokens {
			maxTokens = b.Tokens
		}
	}
	l.Ticks = NiceTicks(float64(maxTokens))

	n := len(buckets)
	if n == 0 || width <= 0 || height <= 0 {
		return l
	}

	switch {
	case n == 1:
		l.BarWidth = width
		l.Gap = 0
	default:
		w := barFillTarget * width / float64(n)
		if w < minBarWidth {
			w = minBarWidth
		}
		gap := (width - w*float64(n)) / float64(n-1)
		if gap < minBarGap {
			gap = minBarGap
			w = (width - gap*float64(n-1)) / float64(n)
			if w < minBarWidth {
				w = minBarWidth
			}
		} else if gap > maxBarGap {
			gap = maxBarGap
			w = (width - gap*float64(n-1)) / float64(n)
		}
		l.BarWidth = w
		l.Gap = gap
	}

	// Scaling denominator is never zero: all-zero data renders flat bars.
	maxValue := math.Max(1, float64(maxTokens))
	l.Bars = make([]BarGeometry, n)
	for i, b := range buckets {
		h := float64(b.Tokens) / maxValue * height
		l.Bars[i] = BarGeometry{
			Index:  i,
			X:      float64(i) * (l.BarWidth + l.Gap),
			Y:      height - h,
			Width:  l.BarWidth,
			Height: h,
		}
	}
	return l
}

// NiceTicks produces gridline values by the 1-2-5 rule: a rough quarter
// step rounded up to k·10^m with k in {1,2,5}, then multiples of that step
// from zero up to just past the maximum.
func NiceTicks(maxTokens float64) []float64 {
	if maxTokens <= 0 {
		return []float64{0}
	}
	roughStep := maxTokens / 4
	magnitude := math.Pow(10, math.Floor(math.Log10(roughStep)))
	normalized := roughStep / magnitude
	step := magnitude
	if normalized >= 5 {
		step *= 5
	} else if normalized >= 2 {
		step *= 2
	}

	var ticks []float64
	for v := 0.0; v <= maxTokens+step/2; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

// labelEvery thins category labels on dense charts: past 18 bars, only
// every ceil(n/12)-th bar keeps its label.
func labelEvery(n int) int {
	if n <= 18 {
		return 1
	}
	return (n + 11) / 12
}
