package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-node-field/internal/ebitenview"
	"github.com/lao-tseu-is-alive/go-node-field/internal/stage"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	configPath := flag.String("config", "", "field configuration file (JSON)")
	debug := flag.Bool("debug", false, "verbose logging")
	flow := flag.Bool("flow", true, "add a Perlin flow layer over the base field")
	width := flag.Int("width", 1280, "initial window width")
	height := flag.Int("height", 720, "initial window height")
	reduced := flag.Bool("reduced-motion", false, "paint one still backdrop instead of animating")
	dump := flag.Duration("dump", 0, "run headless for this long, print layer stats as JSON and exit")
	flag.Parse()

	cfg := field.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = field.LoadConfig(*configPath); err != nil {
			stdlog.Fatal(err)
		}
	}
	if *reduced {
		cfg.ReducedMotion = true
	}

	var logger log.Logger = log.DefaultLogger
	if *debug {
		logger = log.New(log.DebugLevel, os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	system, err := actor.NewActorSystem("NodeField",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		stdlog.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		stdlog.Fatal(err)
	}
	defer system.Stop(ctx)

	layers := []ebitenview.Layer{{Name: "field", Z: 0, Config: cfg}}
	if *flow && !cfg.ReducedMotion {
		layers = append(layers, flowLayer(cfg))
	}

	st := stage.NewStage(system, 2*len(layers))

	if *dump > 0 {
		if err := headless(ctx, st, cfg, layers, float64(*width), float64(*height), *dump); err != nil {
			stdlog.Fatal(err)
		}
		return
	}

	game, err := ebitenview.NewGame(ctx, st, logger, layers...)
	if err != nil {
		stdlog.Fatal(err)
	}
	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("Node field")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(game); err != nil {
		stdlog.Fatal(err)
	}
}

// flowLayer is a sparse, slower layer steered by Perlin noise, drawn over the base field.
func flowLayer(base *field.Config) ebitenview.Layer {
	cfg := *base
	cfg.BaseDensity = base.BaseDensity / 3
	cfg.MinParticles = max(1, base.MinParticles/3)
	cfg.MaxParticles = max(cfg.MinParticles, base.MaxParticles/3)
	cfg.HueMin, cfg.HueMax = 260, 320
	cfg.LineAlpha = base.LineAlpha / 2
	cfg.DriftAmplitude = base.DriftAmplitude / 2
	cfg.PointerForce = base.PointerForce / 2
	return ebitenview.Layer{
		Name:        "flow",
		Z:           1,
		Config:      &cfg,
		Transparent: true,
		Options:     []field.Option{field.WithDrift(field.NewNoiseDrift(cfg.DriftAmplitude, time.Now().UnixNano()))},
	}
}

// headless drives the stage from a plain ticker instead of a window.
func headless(ctx context.Context, st *stage.Stage, cfg *field.Config, layers []ebitenview.Layer, w, h float64, d time.Duration) error {
	for _, l := range layers {
		if err := st.AddLayer(ctx, l.Name, l.Z, l.Config, l.Options...); err != nil {
			return err
		}
	}
	if err := st.Resize(ctx, w, h, 1); err != nil {
		return err
	}
	// keep the pointer alive in the centre so the loop never drops to idle refreshes
	center := field.PointerEvent{X: w / 2, Y: h / 2, Kind: field.PointerMove}

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(d)
	keepAlive := time.Duration(cfg.PointerIdleMs) * time.Millisecond / 2
	var last time.Time
	for {
		select {
		case <-deadline:
			return st.DumpStats(ctx, os.Stdout)
		case now := <-ticker.C:
			if now.Sub(last) >= keepAlive {
				center.At = now
				if err := st.Pointer(ctx, center); err != nil {
					return err
				}
				last = now
			}
			if err := st.Tick(ctx, now); err != nil {
				return err
			}
		case <-st.Frames():
		}
	}
}
