package chart

// Hover tracks which bar the pointer is over. Geometry is held in absolute
// surface coordinates so pointer events can be hit tested directly.
type Hover struct {
	index int
	bars  []BarGeometry
}

// NewHover creates a tracker with nothing hovered.
func NewHover() *Hover {
	return &Hover{index: -1}
}

// SetGeometry replaces the hit-test rectangles, offsetting the layout's
// surface-local bars by the plot origin.
func (h *Hover) SetGeometry(originX, originY float64, bars []BarGeometry) {
	h.bars = make([]BarGeometry, len(bars))
	for i, b := range bars {
		b.X += originX
		b.Y += originY
		h.bars[i] = b
	}
}

// Move hit tests a pointer position and reports whether the hover index
// changed (the caller redraws only then). Bars do not overlap, so the first
// containing rectangle is the only one.
func (h *Hover) Move(x, y int) bool {
	next := -1
	px, py := float64(x), float64(y)
	for _, b := range h.bars {
		if b.Contains(px, py) {
			next = b.Index
			break
		}
	}
	if next == h.index {
		return false
	}
	h.index = next
	return true
}

// Leave clears the hover, reporting whether anything was hovered.
func (h *Hover) Leave() bool {
	if h.index == -1 {
		return false
	}
	h.index = -1
	return true
}

// Clear unconditionally resets the hover index. Used on resize, where the
// old geometry no longer matches the surface.
func (h *Hover) Clear() {
	h.index = -1
}

// Index returns the hovered bar index, or -1 when nothing is hovered.
func (h *Hover) Index() int {
	return h.index
}
