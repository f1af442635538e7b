package field

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/tochemey/goakt/v3/log"
)

// strokeAlpha scales link opacity on top of Config.LineAlpha. Links are drawn
// from both endpoints, so each pair is stroked twice per frame.
const strokeAlpha = 0.55

// ErrNoRenderer is returned by NewEngine when no drawing sink is supplied.
var ErrNoRenderer = errors.New("field engine needs a renderer")

// Stats is a diagnostic snapshot of one engine.
type Stats struct {
	Name          string
	State         State
	Particles     int
	Links         int // lines emitted by the last tick
	Frames        uint64
	Viewport      Viewport
	PointerActive bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRand sets the random source used for spawning, drift and jitter.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithDrift replaces the uniform per-tick drift.
func WithDrift(d Drift) Option {
	return func(e *Engine) { e.drift = d }
}

// WithName labels the engine in logs and stats.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// Engine is one independent field instance: it owns its particles, grid,
// pointer state and frame loop. It is not safe for concurrent use; drive it from
// the goroutine that pumps its Host.
type Engine struct {
	name     string
	cfg      Config
	host     Host
	renderer Renderer
	logger   log.Logger
	rng      *rand.Rand
	drift    Drift

	adapter    *ViewportAdapter
	viewport   Viewport
	raw        [3]float64 // last resize signal: width, height, dpr
	resized    bool
	population Population
	index      *SpatialIndex
	motion     *MotionModel
	input      *InputTracker
	scheduler  *FrameScheduler
	still      bool

	jitterTimer Timer
	scratch     []*Particle
	frames      uint64
	links       int
}

// NewEngine builds an engine from a copy of cfg. A nil host is accepted and
// produces an engine that never animates.
func NewEngine(cfg *Config, host Host, renderer Renderer, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cannot create field engine: %w", err)
	}
	if renderer == nil {
		return nil, ErrNoRenderer
	}

	e := &Engine{
		name:     "field",
		cfg:      *cfg,
		host:     host,
		renderer: renderer,
		logger:   log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.drift == nil {
		e.drift = NewUniformDrift(e.cfg.DriftAmplitude, e.rng)
	}

	e.adapter = NewViewportAdapter(&e.cfg)
	e.index = &SpatialIndex{}
	e.motion = NewMotionModel(&e.cfg, e.drift, e.rng)
	e.input = NewInputTracker(e.cfg.pointerThrottle(), e.cfg.pointerIdle())
	if host != nil {
		e.scheduler = NewFrameScheduler(host, e.tick, e.pointerActive, e.cfg.maxStep(), e.cfg.idleRefresh())
	}
	return e, nil
}

// Name returns the engine label.
func (e *Engine) Name() string { return e.name }

// Start begins the frame loop. With ReducedMotion it paints the still backdrop
// instead and never requests a tick; Resize repaints it.
func (e *Engine) Start() {
	if e.cfg.ReducedMotion {
		if !e.still {
			e.still = true
			e.logger.Infof("[%s] reduced motion, painting a still backdrop", e.name)
			paintBackdrop(e.renderer, e.viewport)
		}
		return
	}
	if e.scheduler == nil {
		e.logger.Warnf("[%s] no host scheduling primitive, field stays static", e.name)
		return
	}
	if e.scheduler.State() != Stopped {
		return
	}
	e.logger.Infof("[%s] starting with %d particles", e.name, e.population.Len())
	e.scheduler.Start()
	e.armJitter()
}

// Stop ends the frame loop and disarms every timer.
func (e *Engine) Stop() {
	e.still = false
	if e.scheduler == nil {
		return
	}
	e.scheduler.Stop()
	if e.jitterTimer != nil {
		e.jitterTimer.Stop()
		e.jitterTimer = nil
	}
	e.logger.Infof("[%s] stopped after %d frames", e.name, e.frames)
}

// Resize applies a resize signal: viewport, population and grid are rebuilt.
// The population grows or shrinks in place; it is regenerated only when the
// raw size collapsed below the minimum viewport.
func (e *Engine) Resize(width, height, dpr float64) {
	e.raw = [3]float64{width, height, dpr}
	e.resized = true

	v := e.adapter.Fit(width, height, dpr)
	previous := e.population.Len()
	if v.Collapsed {
		e.population.Reset(v.TargetCount, v.Width, v.Height, &e.cfg, e.rng)
	} else {
		e.population.Resize(v.TargetCount, v.Width, v.Height, &e.cfg, e.rng)
	}
	e.index.Reset(v.Width, v.Height, v.CellSize)
	e.viewport = v

	if s, ok := e.renderer.(SurfaceSizer); ok {
		s.SetSurface(v)
	}
	if e.still {
		paintBackdrop(e.renderer, v)
	}
	e.logger.Debugf("[%s] resize %.0fx%.0f@%.2f -> %d particles (was %d), grid %dx%d",
		e.name, v.Width, v.Height, v.DPR, e.population.Len(), previous, v.Cols, v.Rows)
}

// Refit re-applies the last resize signal, e.g. after a density change.
func (e *Engine) Refit() {
	if !e.resized {
		return
	}
	e.Resize(e.raw[0], e.raw[1], e.raw[2])
}

// SetDensity changes the particles-per-pixel target and refits the population.
// Negative and NaN values are treated as zero; the count is still clamped to the minimum.
func (e *Engine) SetDensity(density float64) {
	if density < 0 || math.IsNaN(density) {
		density = 0
	}
	e.cfg.BaseDensity = density
	e.Refit()
}

// Pause holds the frame loop until Resume.
func (e *Engine) Pause() {
	if e.scheduler != nil {
		e.scheduler.Pause()
	}
}

// Resume releases Pause.
func (e *Engine) Resume() {
	if e.scheduler != nil {
		e.scheduler.Resume()
	}
}

// SetVisible feeds the surface visibility signal.
func (e *Engine) SetVisible(visible bool) {
	if e.scheduler != nil {
		e.scheduler.SetVisible(visible)
	}
}

// HandlePointer records a pointer event and leaves idle mode on activity.
func (e *Engine) HandlePointer(ev PointerEvent) {
	if !e.input.Record(ev) {
		return
	}
	if e.scheduler != nil && e.input.State().Active {
		e.scheduler.Wake()
	}
}

// State returns the frame loop mode.
func (e *Engine) State() State {
	if e.still {
		return Still
	}
	if e.scheduler == nil {
		return Stopped
	}
	return e.scheduler.State()
}

// Viewport returns the current sizing.
func (e *Engine) Viewport() Viewport { return e.viewport }

// Pointer returns the tracked pointer state.
func (e *Engine) Pointer() PointerState { return e.input.State() }

// Particles returns a copy of the population for diagnostics.
func (e *Engine) Particles() []Particle {
	items := e.population.Items()
	out := make([]Particle, len(items))
	for i, p := range items {
		out[i] = *p
	}
	return out
}

// Stats returns a diagnostic snapshot.
func (e *Engine) Stats() Stats {
	return Stats{
		Name:          e.name,
		State:         e.State(),
		Particles:     e.population.Len(),
		Links:         e.links,
		Frames:        e.frames,
		Viewport:      e.viewport,
		PointerActive: e.input.State().Active,
	}
}

func (e *Engine) pointerActive() bool { return e.input.State().Active }

// tick runs one frame: fade, motion, index, links.
func (e *Engine) tick(now time.Time, dt time.Duration) {
	e.input.Expire(now)
	e.renderer.Fade(e.cfg.BackgroundAlpha)

	particles := e.population.Items()
	e.motion.Step(particles, dt, e.viewport.Width, e.viewport.Height, e.input.State())
	e.index.Populate(particles)
	e.links = e.emit(particles)
	e.frames++
}

// emit draws every node and a line to every neighbour within the link distance.
func (e *Engine) emit(particles []*Particle) int {
	link := e.cfg.LinkDistance
	links := 0
	for _, a := range particles {
		e.renderer.DrawGlow(a.Pos.X, a.Pos.Y, a.Radius, a.Hue)

		e.scratch = e.index.NeighborsOf(a, e.scratch[:0])
		for _, b := range e.scratch {
			if b == a {
				continue
			}
			d := a.Pos.DistanceTo(b.Pos)
			if d > link || d < e.cfg.MinLinkDistance {
				continue
			}
			alpha := (1 - d/link) * e.cfg.LineAlpha * strokeAlpha
			hue := math.Round((a.Hue + b.Hue) * 0.5)
			e.renderer.DrawLine(a.Pos.X, a.Pos.Y, b.Pos.X, b.Pos.Y, alpha, hue)
			links++
		}
	}
	clear(e.scratch)
	return links
}

func (e *Engine) armJitter() {
	interval := e.cfg.jitterInterval()
	if interval <= 0 || e.cfg.JitterAmplitude == 0 {
		return
	}
	e.jitterTimer = e.host.AfterFunc(interval, func() {
		e.jitterTimer = nil
		switch e.scheduler.State() {
		case Stopped:
			return
		case Running, IdleWait:
			e.motion.Jitter(e.population.Items())
		}
		e.armJitter()
	})
}
