package termview

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/tochemey/goakt/v3/log"
)

// frameInterval paces host frames, the terminal counterpart of a display refresh.
const frameInterval = 33 * time.Millisecond

// App runs one field engine full-screen in a terminal.
type App struct {
	screen  tcell.Screen
	engine  *field.Engine
	host    *field.LoopHost
	canvas  *Canvas
	logger  log.Logger
	density float64
	paused  bool
	status  bool
}

// New builds the app on an initialised screen.
func New(screen tcell.Screen, cfg *field.Config, clock field.Clock, logger log.Logger, opts ...field.Option) (*App, error) {
	if cfg == nil {
		cfg = field.DefaultConfig()
	}
	a := &App{
		screen:  screen,
		host:    field.NewLoopHost(clock),
		canvas:  NewCanvas(),
		logger:  logger,
		density: cfg.BaseDensity,
	}
	opts = append([]field.Option{field.WithLogger(logger), field.WithName("term")}, opts...)
	e, err := field.NewEngine(cfg, a.host, a.canvas, opts...)
	if err != nil {
		return nil, err
	}
	a.engine = e
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.EnableFocus()
	a.resize()
	return a, nil
}

// Engine exposes the field, for diagnostics.
func (a *App) Engine() *field.Engine { return a.engine }

// Run pumps terminal events and host frames until ctx ends or the user quits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 100)
	go a.poll(ctx, events)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	a.engine.Start()
	defer a.engine.Stop()
	if a.engine.State() == field.Still {
		a.present()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !a.Handle(ev) {
				return nil
			}
		case <-ticker.C:
			a.Frame()
		}
	}
}

// poll forwards terminal events until the screen is finalised or ctx ends.
func (a *App) poll(ctx context.Context, events chan<- tcell.Event) {
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Frame pumps the host once and redraws when a tick ran.
func (a *App) Frame() bool {
	if !a.host.Frame() {
		return false
	}
	a.present()
	return true
}

func (a *App) present() {
	a.canvas.Flush(a.screen)
	if a.status {
		a.drawStatus()
	}
	a.screen.Show()
}

// Handle applies one terminal event. It returns false when the user asked to quit.
func (a *App) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.key(ev)

	case *tcell.EventResize:
		a.screen.Sync()
		a.resize()
		if a.engine.State() == field.Still {
			a.present()
		}

	case *tcell.EventFocus:
		a.engine.SetVisible(ev.Focused)

	case *tcell.EventMouse:
		cx, cy := ev.Position()
		kind := field.PointerMove
		if ev.Buttons()&tcell.Button1 != 0 {
			kind = field.PointerDown
		}
		a.engine.HandlePointer(field.PointerEvent{
			X:    (float64(cx) + 0.5) * CellWidth,
			Y:    (float64(cy) + 0.5) * CellHeight,
			Kind: kind,
			At:   a.host.Now(),
		})
	}
	return true
}

func (a *App) key(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}
	switch ev.Rune() {
	case 'q':
		return false
	case 'p', ' ':
		a.paused = !a.paused
		if a.paused {
			a.engine.Pause()
		} else {
			a.engine.Resume()
		}
	case '+':
		a.density *= 1.25
		a.engine.SetDensity(a.density)
	case '-':
		a.density /= 1.25
		a.engine.SetDensity(a.density)
	case 'r':
		a.engine.Refit()
	case 's':
		a.status = !a.status
	}
	return true
}

func (a *App) resize() {
	cols, rows := a.screen.Size()
	a.engine.Resize(float64(cols)*CellWidth, float64(rows)*CellHeight, 1)
}

func (a *App) drawStatus() {
	s := a.engine.Stats()
	line := fmt.Sprintf(" %s  %d nodes  %d links  %d frames  [p]ause [+/-] density [q]uit ",
		s.State, s.Particles, s.Links, s.Frames)
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	_, rows := a.screen.Size()
	for i, r := range line {
		a.screen.SetContent(i, rows-1, r, nil, style)
	}
}
