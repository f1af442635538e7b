package field

import (
	"slices"
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock with its monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a controllable clock for tests and for hosts whose time comes
// from frame timestamps.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TickHandle identifies a requested frame callback.
type TickHandle uint64

// Timer is a pending one-shot host timer.
type Timer interface {
	// Stop prevents the timer from firing and reports whether it was still pending.
	Stop() bool
}

// Host is the animation-frame primitive the engine runs on.
// At most one tick callback is in flight per engine.
type Host interface {
	Now() time.Time
	RequestTick(fn func(now time.Time)) TickHandle
	CancelTick(h TickHandle)
	AfterFunc(d time.Duration, fn func()) Timer
}

// LoopHost is a Host pumped by an outer loop: the ebiten Update callback, a
// terminal ticker, an actor receiving frame pulses, or a test. Callbacks only
// ever run inside Frame, on the caller's goroutine.
type LoopHost struct {
	clock   Clock
	lastID  uint64
	pending TickHandle
	tick    func(time.Time)
	timers  []*loopTimer
}

var _ Host = (*LoopHost)(nil)

// NewLoopHost creates a host reading time from clock.
func NewLoopHost(clock Clock) *LoopHost {
	return &LoopHost{clock: clock}
}

func (h *LoopHost) Now() time.Time { return h.clock.Now() }

// RequestTick schedules fn for the next Frame, replacing any earlier request.
func (h *LoopHost) RequestTick(fn func(time.Time)) TickHandle {
	h.lastID++
	h.pending = TickHandle(h.lastID)
	h.tick = fn
	return h.pending
}

// CancelTick drops the pending request if h still identifies it.
func (h *LoopHost) CancelTick(handle TickHandle) {
	if handle != 0 && handle == h.pending {
		h.pending = 0
		h.tick = nil
	}
}

// AfterFunc arms a one-shot timer evaluated at each Frame.
func (h *LoopHost) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{host: h, deadline: h.clock.Now().Add(d), fn: fn}
	h.timers = append(h.timers, t)
	return t
}

// TickPending reports whether a frame callback is waiting.
func (h *LoopHost) TickPending() bool { return h.pending != 0 }

// TimersPending returns the number of armed timers.
func (h *LoopHost) TimersPending() int { return len(h.timers) }

// Frame fires every due timer in deadline order, then runs the pending tick
// callback, if any. It reports whether a tick ran.
func (h *LoopHost) Frame() bool {
	now := h.clock.Now()
	for {
		t := h.nextDue(now)
		if t == nil {
			break
		}
		h.remove(t)
		t.fn()
	}

	if h.pending == 0 {
		return false
	}
	fn := h.tick
	h.pending = 0
	h.tick = nil
	fn(now)
	return true
}

func (h *LoopHost) nextDue(now time.Time) *loopTimer {
	var due *loopTimer
	for _, t := range h.timers {
		if t.deadline.After(now) {
			continue
		}
		if due == nil || t.deadline.Before(due.deadline) {
			due = t
		}
	}
	return due
}

func (h *LoopHost) remove(t *loopTimer) bool {
	i := slices.Index(h.timers, t)
	if i < 0 {
		return false
	}
	h.timers = slices.Delete(h.timers, i, i+1)
	return true
}

type loopTimer struct {
	host     *LoopHost
	deadline time.Time
	fn       func()
}

func (t *loopTimer) Stop() bool { return t.host.remove(t) }
