package ebitenview

import (
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
)

const resizeThrottle = 120 * time.Millisecond

// Sample is the raw window state read once per Update.
type Sample struct {
	Width, Height float64 // logical window size
	DPR           float64
	Visible       bool // window shown, not minimised
	CursorX       float64
	CursorY       float64
	Pressed       bool
	Captured      bool // cursor is over a UI widget
}

// Signal is what changed since the previous sample, in stage terms.
type Signal struct {
	Resize        bool
	Width, Height float64
	DPR           float64

	Visibility bool
	Visible    bool

	Pointer *field.PointerEvent
}

// Signals turns polled window state into the edge-triggered events the field expects.
// Resizes are throttled on the trailing edge so the last size always gets through.
type Signals struct {
	throttle *field.Throttle

	size    [3]float64
	resize  bool // a size change is waiting for the throttle
	visible bool
	started bool

	inside  bool
	pressed bool
	lastX   float64
	lastY   float64
}

func NewSignals() *Signals {
	return &Signals{throttle: field.NewThrottle(resizeThrottle)}
}

func (s *Signals) Sample(now time.Time, in Sample) Signal {
	var out Signal

	size := [3]float64{in.Width, in.Height, in.DPR}
	if !s.started || size != s.size {
		s.size = size
		s.resize = true
	}
	if s.resize && s.throttle.Allow(now) {
		s.resize = false
		out.Resize = true
		out.Width, out.Height, out.DPR = size[0], size[1], size[2]
	}

	if !s.started || in.Visible != s.visible {
		s.visible = in.Visible
		out.Visibility = true
		out.Visible = in.Visible
	}
	s.started = true

	inside := in.Visible && !in.Captured &&
		in.CursorX >= 0 && in.CursorY >= 0 && in.CursorX < in.Width && in.CursorY < in.Height
	switch {
	case inside && in.Pressed && !s.pressed:
		out.Pointer = &field.PointerEvent{X: in.CursorX, Y: in.CursorY, Kind: field.PointerDown, At: now}
	case inside && (!s.inside || in.CursorX != s.lastX || in.CursorY != s.lastY):
		out.Pointer = &field.PointerEvent{X: in.CursorX, Y: in.CursorY, Kind: field.PointerMove, At: now}
	case !inside && s.inside:
		out.Pointer = &field.PointerEvent{Kind: field.PointerLeave, At: now}
	}
	s.inside = inside
	s.pressed = in.Pressed
	s.lastX, s.lastY = in.CursorX, in.CursorY
	return out
}
