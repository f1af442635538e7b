package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-node-field/internal/termview"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	configPath := flag.String("config", "", "field configuration file (JSON)")
	reduced := flag.Bool("reduced-motion", false, "paint one still backdrop instead of animating")
	noise := flag.Bool("noise", false, "steer particles with Perlin noise instead of random drift")
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
	// a cell covers 128 logical pixels, so scale density up to keep the screen populated
	cfg.BaseDensity *= 4

	var opts []field.Option
	if *noise {
		opts = append(opts, field.WithDrift(field.NewNoiseDrift(cfg.DriftAmplitude, time.Now().UnixNano())))
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		stdlog.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		stdlog.Fatal(err)
	}

	// the screen owns stdout, anything logged there would tear the picture
	app, err := termview.New(screen, cfg, field.SystemClock{}, log.New(log.ErrorLevel, os.Stderr), opts...)
	if err != nil {
		screen.Fini()
		stdlog.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx)
	screen.Fini()
	if err != nil {
		stdlog.Fatal(err)
	}
}
