package field

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/geometry"
)

const frame = 16 * time.Millisecond

// recordingDrift never perturbs anything, it only remembers the logical time it was given.
type recordingDrift struct {
	elapsed time.Duration
	calls   int
}

func (d *recordingDrift) Perturb(_ *Particle, elapsed time.Duration) {
	d.elapsed = elapsed
	d.calls++
}

type harness struct {
	engine *Engine
	clock  *ManualClock
	host   *LoopHost
	draw   *DrawList
	drift  *recordingDrift
}

func newHarness(t testing.TB, cfg *Config) *harness {
	t.Helper()
	h := &harness{
		clock: NewManualClock(time.Unix(1_700_000_000, 0)),
		draw:  &DrawList{},
		drift: &recordingDrift{},
	}
	h.host = NewLoopHost(h.clock)
	e, err := NewEngine(cfg, h.host, h.draw,
		WithRand(rand.New(rand.NewPCG(7, 11))),
		WithDrift(h.drift),
		WithName("test"),
	)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.Resize(1280, 720, 1)
	h.engine = e
	return h
}

// step advances the clock by d and pumps one host frame.
func (h *harness) step(d time.Duration) bool {
	h.clock.Advance(d)
	return h.host.Frame()
}

func (h *harness) move(x, y float64) {
	h.engine.HandlePointer(PointerEvent{X: x, Y: y, Kind: PointerMove, At: h.clock.Now()})
}

func TestNewEngine_Errors(t *testing.T) {
	bad := DefaultConfig()
	bad.Damping = 2
	if _, err := NewEngine(bad, nil, &DrawList{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewEngine(bad config) = %v; want ErrInvalidConfig", err)
	}
	if _, err := NewEngine(nil, nil, nil); !errors.Is(err, ErrNoRenderer) {
		t.Errorf("NewEngine(nil renderer) = %v; want ErrNoRenderer", err)
	}
}

func TestEngine_ConfigIsCopied(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg)
	cfg.LinkDistance = 1
	cfg.MaxParticles = 1
	h.engine.Refit()
	if got := h.engine.Viewport().CellSize; got != 120 {
		t.Errorf("caller mutation leaked into the engine: cell size %v", got)
	}
}

func TestEngine_NilHostIsStatic(t *testing.T) {
	draw := &DrawList{}
	e, err := NewEngine(nil, nil, draw)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.Resize(800, 600, 1)
	e.Start()
	e.HandlePointer(PointerEvent{X: 1, Y: 1, At: time.Now()})
	e.Pause()
	e.Resume()
	e.SetVisible(false)
	e.Stop()

	if e.State() != Stopped {
		t.Errorf("State() = %v; want STOPPED", e.State())
	}
	if len(draw.Ops) != 0 {
		t.Errorf("static engine drew %d ops", len(draw.Ops))
	}
	if e.Stats().Particles != 29 {
		t.Errorf("Particles = %d; want 29 (sizing still applies)", e.Stats().Particles)
	}
}

func TestEngine_IdleTransition(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start()
	h.move(640, 360)

	// Pointer stays active for the idle bound; frames keep flowing.
	for i := 1; i < 75; i++ {
		if !h.step(frame) {
			t.Fatalf("frame %d: no tick while pointer active", i)
		}
		if got := h.engine.State(); got != Running {
			t.Fatalf("frame %d (%v): State() = %v; want RUNNING", i, time.Duration(i)*frame, got)
		}
	}

	// 75 * 16ms = 1200ms since the last pointer event.
	h.step(frame)
	if got := h.engine.State(); got != IdleWait {
		t.Fatalf("State() = %v after 1200ms idle; want IDLE_WAIT", got)
	}
	if h.engine.Pointer().Active {
		t.Error("pointer still active after the idle bound")
	}

	frames := h.engine.Stats().Frames
	if h.step(frame) {
		t.Error("IDLE_WAIT ticked on the next display frame")
	}

	// Pointer move wakes the loop; the very next frame ticks and stays RUNNING.
	h.move(100, 100)
	if got := h.engine.State(); got != Running {
		t.Fatalf("State() = %v right after pointer move; want RUNNING", got)
	}
	if !h.step(frame) {
		t.Fatal("no tick on the first frame after wake")
	}
	if got := h.engine.Stats().Frames; got != frames+1 {
		t.Errorf("Frames = %d; want %d", got, frames+1)
	}
	if got := h.engine.State(); got != Running {
		t.Errorf("State() = %v after wake tick; want RUNNING", got)
	}
}

func TestEngine_IdleRefresh(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg)
	h.engine.Start()
	h.step(frame)
	if h.engine.State() != IdleWait {
		t.Fatalf("State() = %v without a pointer; want IDLE_WAIT", h.engine.State())
	}
	start := h.engine.Stats().Frames

	// The idle timer re-arms a frame every IdleRefreshMs; display frames in between are skipped.
	ticks := 0
	for i := 0; i < 300; i++ {
		if h.step(frame) {
			ticks++
		}
	}
	// 300 * 16ms = 4.8s -> 6 refreshes at 800ms.
	if want := int(300 * frame / cfg.idleRefresh()); ticks != want || want != 6 {
		t.Errorf("idle ticks over 4.8s = %d; want %d", ticks, want)
	}
	if got := h.engine.Stats().Frames; got != start+uint64(ticks) {
		t.Errorf("Frames = %d; want %d", got, start+uint64(ticks))
	}
	if h.engine.State() != IdleWait {
		t.Errorf("State() = %v; want IDLE_WAIT", h.engine.State())
	}
}

func TestEngine_PauseFreezesEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JitterIntervalMs = 100
	h := newHarness(t, cfg)
	h.engine.Start()
	h.move(640, 360)
	for range 10 {
		h.step(frame)
	}

	h.engine.Pause()
	if got := h.engine.State(); got != Paused {
		t.Fatalf("State() = %v after Pause; want PAUSED", got)
	}
	before := h.engine.Particles()
	frames := h.engine.Stats().Frames
	elapsed := h.drift.elapsed

	for i := 0; i < 200; i++ {
		if h.step(frame) {
			t.Fatalf("tick fired while paused (frame %d)", i)
		}
		h.move(float64(i), float64(i))
	}
	if got := h.engine.State(); got != Paused {
		t.Errorf("pointer activity unpaused the engine: State() = %v", got)
	}
	if got := h.engine.Stats().Frames; got != frames {
		t.Errorf("Frames changed while paused: %d -> %d", frames, got)
	}
	after := h.engine.Particles()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("particle %d changed while paused: %+v -> %+v", i, before[i], after[i])
		}
	}

	// Resume restarts from a fresh baseline: the paused 3.2s never reach the motion model.
	h.engine.Resume()
	if got := h.engine.State(); got != Running {
		t.Fatalf("State() = %v after Resume; want RUNNING", got)
	}
	if !h.step(frame) {
		t.Fatal("no tick after Resume")
	}
	if got := h.drift.elapsed - elapsed; got != frame {
		t.Errorf("first step after Resume = %v; want %v", got, frame)
	}
}

func TestEngine_VisibilityAndPause(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start()

	tests := []struct {
		name string
		act  func(e *Engine)
		want State
	}{
		{"Hidden", func(e *Engine) { e.SetVisible(false) }, Paused},
		{"Paused while hidden", func(e *Engine) { e.Pause() }, Paused},
		{"Visible but still held", func(e *Engine) { e.SetVisible(true) }, Paused},
		{"Resumed", func(e *Engine) { e.Resume() }, Running},
		{"Resume is idempotent", func(e *Engine) { e.Resume() }, Running},
		{"Hidden again", func(e *Engine) { e.SetVisible(false) }, Paused},
		{"Resume while hidden", func(e *Engine) { e.Resume() }, Paused},
		{"Shown", func(e *Engine) { e.SetVisible(true) }, Running},
	}
	for _, tt := range tests {
		tt.act(h.engine)
		if got := h.engine.State(); got != tt.want {
			t.Errorf("%s: State() = %v; want %v", tt.name, got, tt.want)
		}
		if tt.want == Paused && h.host.TickPending() {
			t.Errorf("%s: frame still requested while paused", tt.name)
		}
	}
}

func TestEngine_StartHidden(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.SetVisible(false)
	h.engine.Start()
	if got := h.engine.State(); got != Paused {
		t.Fatalf("State() = %v; want PAUSED when started hidden", got)
	}
	h.clock.Advance(10 * time.Second)
	h.engine.SetVisible(true)
	h.step(frame)
	if h.drift.elapsed != frame {
		t.Errorf("first step = %v; want %v", h.drift.elapsed, frame)
	}
}

func TestEngine_StepIsClamped(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start()
	h.move(1, 1)
	h.step(900 * time.Millisecond)
	if h.drift.elapsed != 40*time.Millisecond {
		t.Errorf("step after a long stall = %v; want the 40ms cap", h.drift.elapsed)
	}
}

func TestEngine_StopDisarmsEverything(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start()
	h.engine.Stop()
	if h.engine.State() != Stopped {
		t.Errorf("State() = %v; want STOPPED", h.engine.State())
	}
	if h.host.TickPending() || h.host.TimersPending() != 0 {
		t.Errorf("host still armed: tick=%v timers=%d", h.host.TickPending(), h.host.TimersPending())
	}
	for range 100 {
		if h.step(frame) {
			t.Fatal("tick after Stop")
		}
	}
}

func TestEngine_JitterTimer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DriftAmplitude = 0
	// keep the idle refresh out of the way so only the jitter timer comes due
	cfg.IdleRefreshMs = 2 * cfg.JitterIntervalMs
	h := newHarness(t, cfg)
	h.engine.Start()
	h.step(frame) // no pointer: straight to IDLE_WAIT, no frame pending
	before := h.engine.Particles()

	h.clock.Advance(cfg.jitterInterval() - frame)
	if h.host.Frame() {
		t.Fatal("unexpected tick; only the jitter timer is due")
	}
	after := h.engine.Particles()

	changed := 0
	for i := range before {
		if before[i].Vel != after[i].Vel {
			changed++
		}
	}
	if changed == 0 {
		t.Error("jitter timer did not touch any velocity")
	}
	if h.host.TimersPending() == 0 {
		t.Error("jitter timer was not re-armed")
	}
}

func TestEngine_PopulationStaysBounded(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg)
	h.engine.Start()
	rng := rand.New(rand.NewPCG(21, 42))

	for i := 0; i < 200; i++ {
		w := rng.Float64() * 5000
		hgt := rng.Float64() * 3000
		h.engine.Resize(w, hgt, 0.5+rng.Float64()*2.5)
		h.step(frame)

		v := h.engine.Viewport()
		n := h.engine.Stats().Particles
		if n < cfg.MinParticles || n > cfg.MaxParticles {
			t.Fatalf("resize %d (%.0fx%.0f): %d particles outside [%d, %d]", i, w, hgt, n, cfg.MinParticles, cfg.MaxParticles)
		}
		if n != v.TargetCount {
			t.Fatalf("resize %d: %d particles; target %d", i, n, v.TargetCount)
		}
		if v.Width < cfg.MinWidth || v.Height < cfg.MinHeight {
			t.Fatalf("resize %d: viewport %vx%v below minimum", i, v.Width, v.Height)
		}
	}
}

func TestEngine_ResizeKeepsOrResets(t *testing.T) {
	h := newHarness(t, nil)
	firstID := h.engine.Particles()[0].ID

	h.engine.Resize(1920, 1080, 2)
	if got := h.engine.Particles()[0].ID; got != firstID {
		t.Errorf("grow replaced existing particles")
	}
	if got := h.draw.Surface.BackingWidth; got != 3840 {
		t.Errorf("renderer surface width = %d; want 3840", got)
	}

	h.engine.Resize(100, 100, 1)
	if got := h.engine.Particles()[0].ID; got == firstID {
		t.Errorf("collapsed viewport kept the old population")
	}
}

func TestEngine_ResizeNonFinite(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg)
	h.engine.Start()

	for _, size := range [][3]float64{
		{math.NaN(), 1080, 1},
		{1920, math.Inf(1), 1},
		{math.Inf(-1), math.NaN(), math.NaN()},
		{1920, 1080, math.Inf(1)},
	} {
		h.engine.Resize(size[0], size[1], size[2])
		h.step(frame)
		v := h.engine.Viewport()
		if n := h.engine.Stats().Particles; n < cfg.MinParticles || n > cfg.MaxParticles {
			t.Errorf("Resize(%v): %d particles", size, n)
		}
		if v.Cols <= 0 || v.Rows <= 0 {
			t.Errorf("Resize(%v): grid %dx%d", size, v.Cols, v.Rows)
		}
	}
}

func TestEngine_SetDensity(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Resize(1920, 1080, 1)

	tests := []struct {
		density float64
		want    int
	}{
		{0.00003, 62},
		{0.00006, 124},
		{1, 160},
		{1e15, 160},
		{math.Inf(1), 160},
		{-1, 18},
		{math.NaN(), 18},
	}
	for _, tt := range tests {
		h.engine.SetDensity(tt.density)
		if got := h.engine.Stats().Particles; got != tt.want {
			t.Errorf("SetDensity(%v): %d particles; want %d", tt.density, got, tt.want)
		}
	}
}

func TestEngine_DrawsNodesAndLinks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinParticles, cfg.MaxParticles = 3, 3
	h := newHarness(t, cfg)

	items := h.engine.population.Items()
	items[0].Pos, items[0].Hue = geometry.Vector2D{X: 100, Y: 100}, 150
	items[1].Pos, items[1].Hue = geometry.Vector2D{X: 160, Y: 100}, 171
	items[2].Pos, items[2].Hue = geometry.Vector2D{X: 600, Y: 600}, 200
	for _, p := range items {
		p.Vel = geometry.Vector2D{}
	}

	h.engine.Start()
	h.draw.Reset()
	h.host.Frame() // dt = 0, nothing moves

	if got := h.draw.Count(OpFade); got != 1 {
		t.Errorf("fade ops = %d; want 1", got)
	}
	if got := h.draw.Count(OpGlow); got != 3 {
		t.Errorf("glow ops = %d; want 3", got)
	}
	// The close pair is stroked once from each end.
	if got := h.draw.Count(OpLine); got != 2 {
		t.Fatalf("line ops = %d; want 2", got)
	}
	if h.draw.Ops[0].Kind != OpFade || h.draw.Ops[0].Alpha != cfg.BackgroundAlpha {
		t.Errorf("first op = %+v; want the background fade", h.draw.Ops[0])
	}

	wantAlpha := (1 - 60.0/120) * cfg.LineAlpha * 0.55
	for _, op := range h.draw.Ops {
		if op.Kind != OpLine {
			continue
		}
		if math.Abs(op.Alpha-wantAlpha) > 1e-12 {
			t.Errorf("line alpha = %v; want %v", op.Alpha, wantAlpha)
		}
		if op.Hue != 161 {
			t.Errorf("line hue = %v; want 161", op.Hue)
		}
	}
	if got := h.engine.Stats().Links; got != 2 {
		t.Errorf("Stats().Links = %d; want 2", got)
	}
}

func TestEngine_SkipsNearlyCoincidentLinks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinParticles, cfg.MaxParticles = 2, 2
	h := newHarness(t, cfg)
	items := h.engine.population.Items()
	items[0].Pos = geometry.Vector2D{X: 300, Y: 300}
	items[1].Pos = geometry.Vector2D{X: 303, Y: 304}

	h.engine.Start()
	h.draw.Reset()
	h.host.Frame()
	if got := h.draw.Count(OpLine); got != 0 {
		t.Errorf("line ops = %d for particles 5px apart; want 0", got)
	}
}

func TestEngine_LinksMatchBruteForce(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Resize(1920, 1080, 1)
	h.engine.Start()
	h.host.Frame()

	cfg := DefaultConfig()
	want := 0
	items := h.engine.population.Items()
	for _, a := range items {
		for _, b := range items {
			if a == b {
				continue
			}
			d := a.Pos.DistanceTo(b.Pos)
			if d <= cfg.LinkDistance && d >= cfg.MinLinkDistance {
				want++
			}
		}
	}
	if got := h.engine.Stats().Links; got != want {
		t.Errorf("grid-based links = %d; brute force = %d", got, want)
	}
}

func TestEngine_ReducedMotion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReducedMotion = true
	h := newHarness(t, cfg)
	h.engine.Start()

	if got := h.engine.State(); got != Still {
		t.Fatalf("State() = %v; want STILL", got)
	}
	if h.host.TickPending() || h.host.TimersPending() != 0 {
		t.Fatalf("reduced motion armed the host: tick=%v timers=%d", h.host.TickPending(), h.host.TimersPending())
	}
	if h.draw.Count(OpBackdrop) != 1 || len(h.draw.Ops) != 1 {
		t.Fatalf("start painted %d ops, %d backdrops; want one backdrop", len(h.draw.Ops), h.draw.Count(OpBackdrop))
	}

	before := h.engine.Particles()
	h.move(100, 100)
	for range 200 {
		if h.step(frame) {
			t.Fatal("tick in reduced motion")
		}
	}
	if h.host.TickPending() || h.host.TimersPending() != 0 {
		t.Error("pointer activity armed the host")
	}
	after := h.engine.Particles()
	for i := range before {
		if before[i].Pos != after[i].Pos {
			t.Fatalf("particle %d moved in reduced motion", i)
		}
	}

	h.draw.Reset()
	h.engine.Resize(1920, 1080, 2)
	if h.draw.Count(OpBackdrop) != 1 || h.draw.Surface.BackingWidth != 3840 {
		t.Errorf("resize repaint: %d backdrops on a %dpx surface", h.draw.Count(OpBackdrop), h.draw.Surface.BackingWidth)
	}

	h.engine.Stop()
	h.draw.Reset()
	h.engine.Resize(1280, 720, 1)
	if len(h.draw.Ops) != 0 {
		t.Error("stopped engine repainted on resize")
	}
	if got := h.engine.State(); got != Stopped {
		t.Errorf("State() after Stop = %v; want STOPPED", got)
	}
}

type fadeOnly struct{ fades []float64 }

func (f *fadeOnly) Fade(alpha float64)                { f.fades = append(f.fades, alpha) }
func (f *fadeOnly) DrawGlow(_, _, _, _ float64)       {}
func (f *fadeOnly) DrawLine(_, _, _, _, _, _ float64) {}

func TestDrawList_ReplayBackdrop(t *testing.T) {
	d := &DrawList{}
	d.PaintBackdrop(Viewport{Width: 800, Height: 600, BackingWidth: 800, BackingHeight: 600, DPR: 1})

	target := &DrawList{}
	d.Replay(target)
	if target.Count(OpBackdrop) != 1 || target.Surface.Width != 800 {
		t.Errorf("backdrop replay = %+v", target)
	}

	plain := &fadeOnly{}
	d.Replay(plain)
	if len(plain.fades) != 1 || plain.fades[0] != 1 {
		t.Errorf("renderer without a backdrop got fades %v; want one full fade", plain.fades)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		Stopped:   "STOPPED",
		Running:   "RUNNING",
		Paused:    "PAUSED",
		IdleWait:  "IDLE_WAIT",
		Still:     "STILL",
		State(99): "UNKNOWN",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q; want %q", int(s), got, want)
		}
	}
}

func BenchmarkEngineTick(b *testing.B) {
	h := newHarness(b, nil)
	h.engine.Resize(3840, 2160, 1)
	h.engine.Start()
	h.move(1000, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.draw.Reset()
		h.clock.Advance(frame)
		h.engine.HandlePointer(PointerEvent{X: 1000, Y: 1000, At: h.clock.Now()})
		h.host.Frame()
	}
}
