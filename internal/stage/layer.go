package stage

import (
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Frame is the output of one tick of one layer.
type Frame struct {
	Layer string
	Z     int
	Ops   *field.DrawList
}

// LayerActor owns one field engine. The mailbox serialises every call into it,
// so the engine never sees two goroutines.
type LayerActor struct {
	name   string
	z      int
	cfg    *field.Config
	opts   []field.Option
	frames chan<- Frame

	clock  *field.ManualClock
	host   *field.LoopHost
	draw   *field.DrawList
	engine *field.Engine

	// still holds a reduced-motion paint the renderer has not taken yet
	still   *field.DrawList
	dropped int
}

// NewLayerActor prepares a layer. The engine itself is built in PreStart so it can
// log through the actor system.
func NewLayerActor(name string, z int, cfg *field.Config, frames chan<- Frame, opts ...field.Option) *LayerActor {
	return &LayerActor{name: name, z: z, cfg: cfg, frames: frames, opts: opts}
}

func (l *LayerActor) PreStart(ctx *actor.Context) error {
	return l.init(ctx.ActorSystem().Logger(), time.Now())
}

func (l *LayerActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		l.start()

	case *timestamppb.Timestamp:
		l.pulse(msg.AsTime())

	case *structpb.Struct:
		if err := l.apply(msg); err != nil {
			ctx.Logger().Warnf("[%s] %v", l.name, err)
		}

	case *emptypb.Empty:
		ctx.Response(StatsStruct(l.engine.Stats()))

	default:
		ctx.Unhandled()
	}
}

func (l *LayerActor) PostStop(ctx *actor.Context) error {
	l.engine.Stop()
	if l.dropped > 0 {
		ctx.ActorSystem().Logger().Infof("[%s] %d frames dropped by a busy renderer", l.name, l.dropped)
	}
	return nil
}

func (l *LayerActor) init(logger log.Logger, now time.Time) error {
	l.clock = field.NewManualClock(now)
	l.host = field.NewLoopHost(l.clock)
	l.draw = &field.DrawList{}

	opts := append([]field.Option{field.WithName(l.name), field.WithLogger(logger)}, l.opts...)
	e, err := field.NewEngine(l.cfg, l.host, l.draw, opts...)
	if err != nil {
		return fmt.Errorf("layer %s: %w", l.name, err)
	}
	l.engine = e
	return nil
}

func (l *LayerActor) start() {
	l.draw.Reset()
	l.engine.Start()
	l.keepStill()
}

func (l *LayerActor) apply(cmd *structpb.Struct) error {
	l.draw.Reset()
	err := Apply(l.engine, cmd)
	l.keepStill()
	return err
}

// keepStill picks up whatever a reduced-motion engine painted outside a tick.
// Unlike tick frames it is never dropped: it waits for the next pulse if the UI is busy.
func (l *LayerActor) keepStill() {
	if len(l.draw.Ops) == 0 {
		return
	}
	l.still = l.draw.Clone()
	l.offerStill()
}

func (l *LayerActor) offerStill() {
	if l.still == nil {
		return
	}
	select {
	case l.frames <- Frame{Layer: l.name, Z: l.z, Ops: l.still}:
		l.still = nil
	default:
	}
}

// pulse advances the host clock to now and runs whatever the host has due.
// A tick's draw list is handed to the renderer without blocking.
func (l *LayerActor) pulse(now time.Time) {
	l.offerStill()
	l.clock.Set(now)
	l.draw.Reset()
	if !l.host.Frame() {
		return
	}
	select {
	case l.frames <- Frame{Layer: l.name, Z: l.z, Ops: l.draw.Clone()}:
	default:
		// UI busy, skip frame
		l.dropped++
	}
}
