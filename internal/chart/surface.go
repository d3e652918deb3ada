// Package chart implements the usage bar chart: window selection, dataset
// caching, layout, hover tracking, and rendering onto a terminal cell grid.
package chart

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rect is a rectangle in surface coordinates, origin top-left.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Surface is the drawing target for the renderer. Coordinates are cells,
// origin top-left.
type Surface interface {
	// Size returns the surface dimensions in cells.
	Size() (width, height int)
	// Clear resets every cell to blank.
	Clear()
	// FillRect fills a rectangle with full blocks.
	FillRect(x, y, width, height int, style lipgloss.Style)
	// FillBar draws a vertical bar growing up from the baseline row.
	// height is fractional; the topmost cell uses a partial block glyph,
	// giving sub-cell resolution the way high-DPI canvases do.
	FillBar(x, width, baseline int, height float64, style lipgloss.Style)
	// HLine draws a horizontal line of the given width.
	HLine(x, y, width int, style lipgloss.Style)
	// Text writes a string starting at the given cell.
	Text(x, y int, text string, style lipgloss.Style)
}

// Eighth-block glyphs indexed by eighths filled, bottom-up.
var eighthBlocks = [...]rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

type cell struct {
	r     rune
	style int
}

// CellSurface is a Surface backed by a rune grid. Styles are interned per
// draw call so rendering can batch runs of identically styled cells.
type CellSurface struct {
	width  int
	height int
	cells  []cell
	styles []lipgloss.Style
}

// NewCellSurface creates a blank surface of the given size. Non-positive
// dimensions yield an empty surface.
func NewCellSurface(width, height int) *CellSurface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s := &CellSurface{width: width, height: height}
	s.cells = make([]cell, width*height)
	s.Clear()
	return s
}

// Size returns the surface dimensions in cells.
func (s *CellSurface) Size() (int, int) {
	return s.width, s.height
}

// Clear resets every cell to blank.
func (s *CellSurface) Clear() {
	s.styles = s.styles[:0]
	s.styles = append(s.styles, lipgloss.NewStyle())
	for i := range s.cells {
		s.cells[i] = cell{r: ' '}
	}
}

// intern registers the style for this draw call and returns its id.
func (s *CellSurface) intern(style lipgloss.Style) int {
	s.styles = append(s.styles, style)
	return len(s.styles) - 1
}

func (s *CellSurface) set(x, y int, r rune, style int) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.cells[y*s.width+x] = cell{r: r, style: style}
}

// FillRect fills a rectangle with full blocks.
func (s *CellSurface) FillRect(x, y, width, height int, style lipgloss.Style) {
	id := s.intern(style)
	for dy := 0; dy < height; dy++ {
		for dx := 0; dx < width; dx++ {
			s.set(x+dx, y+dy, '█', id)
		}
	}
}

// FillBar draws a vertical bar growing up from the baseline row, with a
// partial block on top for the fractional remainder.
func (s *CellSurface) FillBar(x, width, baseline int, height float64, style lipgloss.Style) {
	if height <= 0 || width <= 0 {
		return
	}
	id := s.intern(style)
	full := int(height)
	eighths := int((height-float64(full))*8 + 0.5)
	if eighths == 8 {
		full++
		eighths = 0
	}
	for dy := 0; dy < full; dy++ {
		for dx := 0; dx < width; dx++ {
			s.set(x+dx, baseline-dy, '█', id)
		}
	}
	if eighths > 0 {
		for dx := 0; dx < width; dx++ {
			s.set(x+dx, baseline-full, eighthBlocks[eighths], id)
		}
	}
}

// HLine draws a horizontal line of light box-drawing dashes.
func (s *CellSurface) HLine(x, y, width int, style lipgloss.Style) {
	id := s.intern(style)
	for dx := 0; dx < width; dx++ {
		s.set(x+dx, y, '─', id)
	}
}

// Text writes a string starting at the given cell, clipped to the surface.
func (s *CellSurface) Text(x, y int, text string, style lipgloss.Style) {
	id := s.intern(style)
	for i, r := range []rune(text) {
		s.set(x+i, y, r, id)
	}
}

// Render flattens the grid into a styled multi-line string.
func (s *CellSurface) Render() string {
	var b strings.Builder
	for y := 0; y < s.height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		x := 0
		for x < s.width {
			c := s.cells[y*s.width+x]
			run := []rune{c.r}
			next := x + 1
			for next < s.width && s.cells[y*s.width+next].style == c.style {
				run = append(run, s.cells[y*s.width+next].r)
				next++
			}
			b.WriteString(s.styles[c.style].Render(string(run)))
			x = next
		}
	}
	return b.String()
}

// RuneAt returns the rune stored at a cell, or space when out of bounds.
func (s *CellSurface) RuneAt(x, y int) rune {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return ' '
	}
	return s.cells[y*s.width+x].r
}
