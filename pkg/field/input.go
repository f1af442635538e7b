package field

import (
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/geometry"
)

// PointerKind distinguishes the pointer events the field reacts to.
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerLeave
)

func (k PointerKind) String() string {
	switch k {
	case PointerMove:
		return "move"
	case PointerDown:
		return "down"
	case PointerLeave:
		return "leave"
	}
	return "unknown"
}

// PointerEvent is one pointer sample in viewport pixels.
type PointerEvent struct {
	X, Y float64
	Kind PointerKind
	At   time.Time
}

// PointerState is the last known pointer, as seen by the motion model.
type PointerState struct {
	Pos       geometry.Vector2D
	Active    bool
	LastEvent time.Time
}

// InputTracker owns the pointer state. Nothing else mutates it.
type InputTracker struct {
	throttle time.Duration
	idle     time.Duration
	state    PointerState
}

// NewInputTracker creates a tracker that drops move/down events closer than
// throttle to the previous accepted one and deactivates after idle without events.
func NewInputTracker(throttle, idle time.Duration) *InputTracker {
	return &InputTracker{throttle: throttle, idle: idle}
}

// Record applies ev and reports whether it changed the tracked state.
// Leave is never throttled.
func (t *InputTracker) Record(ev PointerEvent) bool {
	if ev.Kind == PointerLeave {
		wasActive := t.state.Active
		t.state.Active = false
		return wasActive
	}
	if !t.state.LastEvent.IsZero() && ev.At.Sub(t.state.LastEvent) < t.throttle {
		return false
	}
	t.state.Pos = geometry.Vector2D{X: ev.X, Y: ev.Y}
	t.state.Active = true
	t.state.LastEvent = ev.At
	return true
}

// Expire deactivates the pointer when no qualifying event arrived for the idle
// duration. It reports whether the pointer went inactive on this call.
func (t *InputTracker) Expire(now time.Time) bool {
	if !t.state.Active || now.Sub(t.state.LastEvent) < t.idle {
		return false
	}
	t.state.Active = false
	return true
}

// State returns a copy of the current pointer state.
func (t *InputTracker) State() PointerState { return t.state }
