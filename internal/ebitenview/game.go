package ebitenview

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/lao-tseu-is-alive/go-node-field/internal/stage"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/ui"
	"github.com/tochemey/goakt/v3/log"
)

// Layer describes one field layer to put on screen.
type Layer struct {
	Name        string
	Z           int
	Config      *field.Config
	Transparent bool
	Options     []field.Option
}

// Game is the ebiten front end: it turns window, cursor and minimise state into
// stage signals and composites the frames the layers send back.
type Game struct {
	ctx    context.Context
	stage  *stage.Stage
	logger log.Logger

	renderers   map[string]*Renderer
	order       []string // layer names sorted by z
	pending     []stage.Frame
	main        string
	baseDensity float64

	signals  *Signals
	panel    *ui.UIPanel
	density  *ui.Slider
	pauseBox *ui.Checkbox
	statsBox *ui.Checkbox

	showStats atomic.Bool
	statsMu   sync.Mutex
	statsText string

	updateAvg float64 // rolling average in ms
	drawAvg   float64
}

// NewGame spawns every layer on the stage and builds the control panel.
func NewGame(ctx context.Context, st *stage.Stage, logger log.Logger, layers ...Layer) (*Game, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("ebitenview: no layer to show")
	}
	g := &Game{
		ctx:       ctx,
		stage:     st,
		logger:    logger,
		renderers: make(map[string]*Renderer, len(layers)),
		signals:   NewSignals(),
	}
	sorted := slices.Clone(layers)
	slices.SortStableFunc(sorted, func(a, b Layer) int { return a.Z - b.Z })
	for _, l := range sorted {
		cfg := l.Config
		if cfg == nil {
			cfg = field.DefaultConfig()
		}
		if err := st.AddLayer(ctx, l.Name, l.Z, cfg, l.Options...); err != nil {
			return nil, err
		}
		g.renderers[l.Name] = NewRenderer(cfg.LineWidth, l.Transparent)
		g.order = append(g.order, l.Name)
	}
	g.main = sorted[0].Name
	g.baseDensity = field.DefaultConfig().BaseDensity
	if sorted[0].Config != nil {
		g.baseDensity = sorted[0].Config.BaseDensity
	}
	g.buildPanel()
	go g.pollStats()
	return g, nil
}

func (g *Game) buildPanel() {
	g.panel = ui.NewUIPanel("Node field  [H] hide", 10, 10, 220, 190)

	g.panel.AddSection("Population")
	g.density = g.panel.AddSlider("Density x", 0, 3, 1)
	g.density.OnChange = func(v float64) {
		if err := g.stage.SetDensity(g.ctx, g.main, g.baseDensity*v); err != nil {
			g.logger.Warnf("density: %v", err)
		}
	}
	g.panel.AddButton("Refit", func() { g.tell("refit", g.stage.Refit) })
	g.panel.EndSection()

	g.panel.AddSection("Loop")
	g.pauseBox = g.panel.AddCheckbox("Pause  [P]", false)
	g.pauseBox.OnChange = g.setPaused
	g.statsBox = g.panel.AddCheckbox("Stats  [S]", false)
	g.statsBox.OnChange = func(v bool) { g.showStats.Store(v) }
	g.panel.EndSection()
}

func (g *Game) tell(what string, fn func(context.Context) error) {
	if err := fn(g.ctx); err != nil {
		g.logger.Warnf("%s: %v", what, err)
	}
}

func (g *Game) setPaused(paused bool) {
	if paused {
		g.tell("pause", g.stage.Pause)
		return
	}
	g.tell("resume", g.stage.Resume)
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	in := ui.ReadInput()
	g.panel.Update(in)
	g.hotkeys()

	w, h := ebiten.WindowSize()
	sig := g.signals.Sample(start, Sample{
		Width:    float64(w),
		Height:   float64(h),
		DPR:      ebiten.Monitor().DeviceScaleFactor(),
		Visible:  !ebiten.IsWindowMinimized(),
		CursorX:  in.X,
		CursorY:  in.Y,
		Pressed:  in.Pressed,
		Captured: g.panel.Captures(in.X, in.Y),
	})
	if sig.Resize {
		g.tell("resize", func(ctx context.Context) error { return g.stage.Resize(ctx, sig.Width, sig.Height, sig.DPR) })
	}
	if sig.Visibility {
		g.tell("visibility", func(ctx context.Context) error { return g.stage.SetVisible(ctx, sig.Visible) })
	}
	if sig.Pointer != nil {
		g.tell("pointer", func(ctx context.Context) error { return g.stage.Pointer(ctx, *sig.Pointer) })
	}

	g.tell("tick", func(ctx context.Context) error { return g.stage.Tick(ctx, start) })

	for {
		select {
		case f := <-g.stage.Frames():
			g.pending = append(g.pending, f)
		default:
			return nil
		}
	}
}

func (g *Game) hotkeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.pauseBox.Value = !g.pauseBox.Value
		g.setPaused(g.pauseBox.Value)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.statsBox.Value = !g.statsBox.Value
		g.showStats.Store(g.statsBox.Value)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.panel.Hidden = !g.panel.Hidden
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// Frames accumulate on the offscreen images: the fade leaves trails.
	for _, f := range g.pending {
		if r, ok := g.renderers[f.Layer]; ok {
			f.Ops.Replay(r)
		}
	}
	clear(g.pending)
	g.pending = g.pending[:0]

	screen.Fill(Background)
	for _, name := range g.order {
		g.renderers[name].Composite(screen)
	}

	g.panel.Draw(screen)

	if g.showStats.Load() {
		g.statsMu.Lock()
		text := g.statsText
		g.statsMu.Unlock()
		msg := fmt.Sprintf("FPS: %.2f  TPS: %.2f\nUpdate: %.2fms  Draw: %.2fms\n%s",
			ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg, text)
		ebitenutil.DebugPrintAt(screen, msg, screen.Bounds().Dx()-260, 10)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// pollStats refreshes the overlay text once a second while it is shown.
func (g *Game) pollStats() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
		}
		if !g.showStats.Load() {
			continue
		}
		stats, err := g.stage.Stats(g.ctx)
		if err != nil {
			g.logger.Warnf("stats: %v", err)
			continue
		}
		var buf bytes.Buffer
		for _, s := range stats {
			f := s.GetFields()
			fmt.Fprintf(&buf, "%s: %s  %.0f nodes  %.0f links\n",
				f["name"].GetStringValue(), f["state"].GetStringValue(),
				f["particles"].GetNumberValue(), f["links"].GetNumberValue())
		}
		g.statsMu.Lock()
		g.statsText = buf.String()
		g.statsMu.Unlock()
	}
}
