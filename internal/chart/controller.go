package chart

import (
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// Controller is the window-selection state machine. It owns the dataset
// cache and hover state, decides when a retrieval is needed, and renders
// the active window's chart. All state changes happen on the host's update
// loop; retrievals run elsewhere and re-enter through Apply.
type Controller struct {
	cache    *DataCache
	hover    *Hover
	renderer *Renderer

	active models.WindowKey
	seqs   map[models.WindowKey]uint64

	customStart time.Time
	customEnd   time.Time
	customSet   bool

	width   int
	height  int
	errs    map[models.WindowKey]string
	pending int
}

// NewController creates a controller with the day window active and an
// empty cache.
func NewController() *Controller {
	return &Controller{
		cache:    NewDataCache(),
		hover:    NewHover(),
		renderer: NewRenderer(),
		active:   models.WindowDay,
		seqs:     make(map[models.WindowKey]uint64),
		errs:     make(map[models.WindowKey]string),
	}
}

// SelectWindow activates a window key and returns the retrieval to issue,
// or nil when none is needed: a cached window renders from cache, and the
// custom key with no applied range shows a placeholder instead of fetching.
func (c *Controller) SelectWindow(key models.WindowKey) *FetchRequest {
	if !key.Valid() {
		return nil
	}
	c.active = key
	c.hover.Clear()

	if key == models.WindowCustom && !c.cache.Has(key) {
		return nil
	}
	if c.cache.Has(key) {
		return nil
	}
	return c.issue(key, models.UsageQuery{Key: key})
}

// ApplyCustomRange records an explicit range, activates the custom window,
// and always returns a retrieval, regardless of any cached custom entry.
func (c *Controller) ApplyCustomRange(start, end time.Time) *FetchRequest {
	c.active = models.WindowCustom
	c.hover.Clear()
	c.customStart = start
	c.customEnd = end
	c.customSet = true
	return c.issue(models.WindowCustom, models.UsageQuery{
		Key:   models.WindowCustom,
		Start: start,
		End:   end,
	})
}

// Refresh re-fetches the active window even when cached, used when the
// underlying session data changed. Custom with no applied range stays a
// placeholder.
func (c *Controller) Refresh() *FetchRequest {
	if c.active == models.WindowCustom {
		if !c.customSet {
			return nil
		}
		return c.issue(models.WindowCustom, models.UsageQuery{
			Key:   models.WindowCustom,
			Start: c.customStart,
			End:   c.customEnd,
		})
	}
	return c.issue(c.active, models.UsageQuery{Key: c.active})
}

// Invalidate drops every cached window, used when the underlying session
// data changed, and returns the retrieval for the active window (nil for the
// custom placeholder).
func (c *Controller) Invalidate() *FetchRequest {
	c.cache = NewDataCache()
	return c.Refresh()
}

func (c *Controller) issue(key models.WindowKey, q models.UsageQuery) *FetchRequest {
	c.seqs[key]++
	c.pending++
	return &FetchRequest{Key: key, Seq: c.seqs[key], Query: q}
}

// Apply feeds a retrieval result back in. Latest wins: a response whose
// sequence number is not the most recently issued for its key is dropped.
// Failures leave the cache and any currently rendered chart untouched and
// only set the inline error text. Reports whether the result was applied.
func (c *Controller) Apply(req FetchRequest, ds *models.Dataset, err error) bool {
	if c.pending > 0 {
		c.pending--
	}
	if req.Seq != c.seqs[req.Key] {
		return false
	}
	if err != nil {
		c.errs[req.Key] = err.Error()
		return false
	}
	c.cache.Put(req.Key, ds)
	delete(c.errs, req.Key)
	return true
}

// OnResize records the new chart area. Hover geometry is stale until the
// next draw, so the hover index is cleared unconditionally.
func (c *Controller) OnResize(width, height int) {
	c.width = width
	c.height = height
	c.hover.Clear()
}

// OnPointerMove hit tests a pointer position in chart-area coordinates and
// reports whether the hovered bar changed.
func (c *Controller) OnPointerMove(x, y int) bool {
	return c.hover.Move(x, y)
}

// OnPointerLeave clears the hover, reporting whether a redraw is needed.
func (c *Controller) OnPointerLeave() bool {
	return c.hover.Leave()
}

// Active returns the selected window key.
func (c *Controller) Active() models.WindowKey {
	return c.active
}

// Dataset returns the cached dataset for the active window, or nil.
func (c *Controller) Dataset() *models.Dataset {
	return c.cache.Get(c.active)
}

// Err returns the inline error text for the active window, empty when its
// last retrieval succeeded. Failures on other windows never leak into the
// rendered output.
func (c *Controller) Err() string {
	return c.errs[c.active]
}

// Loading reports whether any retrieval is outstanding.
func (c *Controller) Loading() bool {
	return c.pending > 0
}

// HoveredBucket returns the bucket under the pointer, or nil.
func (c *Controller) HoveredBucket() *models.Bucket {
	ds := c.Dataset()
	idx := c.hover.Index()
	if ds == nil || idx < 0 || idx >= len(ds.Buckets) {
		return nil
	}
	return &ds.Buckets[idx]
}

// View renders the active window's chart to a string. A missing dataset
// yields an empty plot (placeholder text is the host's concern); layout
// insets reserve a tick-label gutter on the left, one row above for the
// hover label, and one row below for category labels.
func (c *Controller) View() string {
	if c.width <= 0 || c.height <= 0 {
		return ""
	}

	surface := NewCellSurface(c.width, c.height)
	ds := c.Dataset()
	if ds == nil {
		return surface.Render()
	}

	ticks := NiceTicks(float64(ds.MaxTokens()))
	gutter := 0
	for _, t := range ticks {
		if l := len(FormatTokens(t)); l > gutter {
			gutter = l
		}
	}
	gutter++

	originX, originY := gutter, 1
	plotW := c.width - gutter
	plotH := c.height - 2
	if plotW <= 0 || plotH <= 0 {
		return surface.Render()
	}

	layout := ComputeLayout(ds.Buckets, float64(plotW), float64(plotH))
	c.hover.SetGeometry(float64(originX), float64(originY), layout.Bars)

	c.renderer.Draw(surface, Frame{
		Buckets:     ds.Buckets,
		Granularity: ds.Granularity,
		Layout:      layout,
		Hovered:     c.hover.Index(),
		OriginX:     originX,
		OriginY:     originY,
	})
	return surface.Render()
}
