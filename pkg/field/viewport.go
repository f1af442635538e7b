package field

import (
	"math"
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/geometry"
)

// Sizes past these are treated as the limit; they keep the grid and the backing
// surface allocatable whatever the host reports.
const (
	maxExtent = 16384.0
	maxDPR    = 8.0
)

// Viewport is everything derived from one resize signal.
type Viewport struct {
	Width, Height float64 // logical pixels, floored and clamped to the minimum
	DPR           float64 // device pixel ratio, at least 1
	BackingWidth  int     // device pixels
	BackingHeight int
	TargetCount   int
	CellSize      float64
	Cols, Rows    int
	// Collapsed is set when the raw size fell below the minimum viewport.
	Collapsed bool
}

// Area returns the logical area in square pixels.
func (v Viewport) Area() float64 { return v.Width * v.Height }

// ViewportAdapter derives sizing from a resize signal. It keeps no state between calls.
type ViewportAdapter struct {
	cfg *Config
}

// NewViewportAdapter creates an adapter reading the density and limits from cfg at every call,
// so a density change takes effect on the next Fit.
func NewViewportAdapter(cfg *Config) *ViewportAdapter {
	return &ViewportAdapter{cfg: cfg}
}

// Fit computes the viewport for a raw size and device pixel ratio.
// A NaN or infinite width or height counts as collapsed, and a non-finite DPR reads as 1.
func (a *ViewportAdapter) Fit(width, height, dpr float64) Viewport {
	c := a.cfg
	collapsed := !finite(width) || !finite(height) || width < c.MinWidth || height < c.MinHeight
	if !finite(width) {
		width = c.MinWidth
	}
	if !finite(height) {
		height = c.MinHeight
	}
	if !finite(dpr) {
		dpr = 1
	}
	v := Viewport{
		Width:     geometry.Clamp(math.Floor(width), c.MinWidth, math.Max(c.MinWidth, maxExtent)),
		Height:    geometry.Clamp(math.Floor(height), c.MinHeight, math.Max(c.MinHeight, maxExtent)),
		DPR:       geometry.Clamp(dpr, 1, maxDPR),
		CellSize:  c.CellSize(),
		Collapsed: collapsed,
	}
	v.BackingWidth = int(math.Floor(v.Width * v.DPR))
	v.BackingHeight = int(math.Floor(v.Height * v.DPR))
	v.TargetCount = TargetCount(v.Area(), c.BaseDensity, c.MinParticles, c.MaxParticles)
	v.Cols = int(math.Ceil(v.Width / v.CellSize))
	v.Rows = int(math.Ceil(v.Height / v.CellSize))
	return v
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Throttle lets a call through at most once per interval. Front ends use it to
// tame bursts of resize signals before they reach Engine.Resize.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle with the given minimum spacing.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether a call at now may proceed, and records it if so.
func (t *Throttle) Allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) <= t.interval {
		return false
	}
	t.last = now
	return true
}
