package field

import "time"

// State is the frame loop mode.
type State int

const (
	Stopped  State = iota // not started, or stopped for good
	Running               // a frame is requested after every tick
	Paused                // hidden or paused explicitly, nothing progresses
	IdleWait              // pointer inactive, frames re-armed by a slow timer
	Still                 // reduced motion: a backdrop per resize, no frame loop
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case IdleWait:
		return "IDLE_WAIT"
	case Still:
		return "STILL"
	}
	return "UNKNOWN"
}

// TickFunc runs one simulation frame. dt is already clamped to the maximum step.
type TickFunc func(now time.Time, dt time.Duration)

// FrameScheduler decides, after each tick, whether and how the next one is requested.
type FrameScheduler struct {
	host        Host
	tick        TickFunc
	interactive func() bool // true while the pointer is active
	maxStep     time.Duration
	idleRefresh time.Duration

	state     State
	hidden    bool // visibility signal
	held      bool // explicit Pause
	handle    TickHandle
	hasFrame  bool
	idleTimer Timer
	lastTs    time.Time
}

// NewFrameScheduler wires a tick function to a host.
func NewFrameScheduler(host Host, tick TickFunc, interactive func() bool, maxStep, idleRefresh time.Duration) *FrameScheduler {
	return &FrameScheduler{
		host:        host,
		tick:        tick,
		interactive: interactive,
		maxStep:     maxStep,
		idleRefresh: idleRefresh,
	}
}

// State returns the current loop mode.
func (s *FrameScheduler) State() State { return s.state }

// Start begins ticking. It is a no-op once started.
func (s *FrameScheduler) Start() {
	if s.state != Stopped {
		return
	}
	s.lastTs = s.host.Now()
	if s.hidden || s.held {
		s.state = Paused
		return
	}
	s.state = Running
	s.requestFrame()
}

// Stop cancels everything pending. The scheduler cannot be restarted afterwards
// without Start.
func (s *FrameScheduler) Stop() {
	s.cancelAll()
	s.state = Stopped
}

// SetVisible feeds the visibility signal.
func (s *FrameScheduler) SetVisible(visible bool) {
	s.hidden = !visible
	s.reconcile()
}

// Pause holds the loop until Resume, regardless of visibility.
func (s *FrameScheduler) Pause() {
	s.held = true
	s.reconcile()
}

// Resume releases an explicit Pause. The loop restarts only if the surface is visible.
func (s *FrameScheduler) Resume() {
	s.held = false
	s.reconcile()
}

// Wake leaves IDLE_WAIT immediately, typically on a new pointer event.
func (s *FrameScheduler) Wake() {
	if s.state != IdleWait {
		return
	}
	s.stopIdleTimer()
	s.state = Running
	s.requestFrame()
}

func (s *FrameScheduler) reconcile() {
	if s.state == Stopped {
		return
	}
	shouldPause := s.hidden || s.held
	switch {
	case shouldPause && s.state != Paused:
		s.cancelAll()
		s.state = Paused
	case !shouldPause && s.state == Paused:
		// Fresh baseline: the hidden span must not turn into one huge step.
		s.lastTs = s.host.Now()
		s.state = Running
		s.requestFrame()
	}
}

func (s *FrameScheduler) onFrame(now time.Time) {
	s.hasFrame = false
	if s.state != Running && s.state != IdleWait {
		return
	}

	dt := now.Sub(s.lastTs)
	dt = max(0, min(dt, s.maxStep))
	s.lastTs = now

	s.tick(now, dt)

	// The tick may have paused or stopped us.
	if s.state != Running && s.state != IdleWait {
		return
	}
	if s.interactive() {
		s.state = Running
		s.requestFrame()
		return
	}
	s.state = IdleWait
	s.armIdleTimer()
}

func (s *FrameScheduler) requestFrame() {
	if s.hasFrame {
		return
	}
	s.hasFrame = true
	s.handle = s.host.RequestTick(s.onFrame)
}

func (s *FrameScheduler) armIdleTimer() {
	s.stopIdleTimer()
	s.idleTimer = s.host.AfterFunc(s.idleRefresh, func() {
		s.idleTimer = nil
		if s.state == IdleWait {
			s.requestFrame()
		}
	})
}

func (s *FrameScheduler) stopIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}

func (s *FrameScheduler) cancelAll() {
	if s.hasFrame {
		s.host.CancelTick(s.handle)
		s.hasFrame = false
	}
	s.stopIdleTimer()
}
