package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrUnknownLayer is returned when a layer name is not on the stage.
var ErrUnknownLayer = errors.New("no such layer")

type layerRef struct {
	name string
	pid  *actor.PID
}

// Stage fans the host signals of one surface out to independent field layers,
// each running in its own actor, and collects their frames on one channel.
type Stage struct {
	system  actor.ActorSystem
	layers  []layerRef
	frames  chan Frame
	timeout time.Duration
}

// NewStage creates an empty stage on a started actor system.
func NewStage(system actor.ActorSystem, frameBuffer int) *Stage {
	return &Stage{
		system:  system,
		frames:  make(chan Frame, max(1, frameBuffer)),
		timeout: time.Second,
	}
}

// AddLayer spawns a layer actor. z orders layers back to front when drawn.
func (s *Stage) AddLayer(ctx context.Context, name string, z int, cfg *field.Config, opts ...field.Option) error {
	if slices.ContainsFunc(s.layers, func(l layerRef) bool { return l.name == name }) {
		return fmt.Errorf("layer %q already on stage", name)
	}
	pid, err := s.system.Spawn(ctx, name, NewLayerActor(name, z, cfg, s.frames, opts...))
	if err != nil {
		return fmt.Errorf("cannot spawn layer %q: %w", name, err)
	}
	s.layers = append(s.layers, layerRef{name: name, pid: pid})
	return nil
}

// Layers returns the layer names in insertion order.
func (s *Stage) Layers() []string {
	names := make([]string, len(s.layers))
	for i, l := range s.layers {
		names[i] = l.name
	}
	return names
}

// Frames delivers the draw lists of ticked layers. Frames are dropped, not
// queued, when the reader falls behind.
func (s *Stage) Frames() <-chan Frame { return s.frames }

// Tick sends a frame pulse to every layer.
func (s *Stage) Tick(ctx context.Context, now time.Time) error {
	return s.broadcast(ctx, Pulse(now))
}

func (s *Stage) Resize(ctx context.Context, width, height, dpr float64) error {
	return s.broadcast(ctx, ResizeCommand(width, height, dpr))
}

func (s *Stage) Pointer(ctx context.Context, ev field.PointerEvent) error {
	return s.broadcast(ctx, PointerCommand(ev))
}

func (s *Stage) SetVisible(ctx context.Context, visible bool) error {
	return s.broadcast(ctx, VisibleCommand(visible))
}

func (s *Stage) Pause(ctx context.Context) error  { return s.broadcast(ctx, PauseCommand()) }
func (s *Stage) Resume(ctx context.Context) error { return s.broadcast(ctx, ResumeCommand()) }
func (s *Stage) Refit(ctx context.Context) error  { return s.broadcast(ctx, RefitCommand()) }

// SetDensity changes the density of a single layer.
func (s *Stage) SetDensity(ctx context.Context, layer string, density float64) error {
	for _, l := range s.layers {
		if l.name == layer {
			return actor.Tell(ctx, l.pid, DensityCommand(density))
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
}

// Stats asks every layer for its diagnostics.
func (s *Stage) Stats(ctx context.Context) ([]*structpb.Struct, error) {
	out := make([]*structpb.Struct, 0, len(s.layers))
	for _, l := range s.layers {
		reply, err := actor.Ask(ctx, l.pid, &emptypb.Empty{}, s.timeout)
		if err != nil {
			return nil, fmt.Errorf("stats of layer %q: %w", l.name, err)
		}
		st, ok := reply.(*structpb.Struct)
		if !ok {
			return nil, fmt.Errorf("stats of layer %q: unexpected reply %T", l.name, reply)
		}
		out = append(out, st)
	}
	return out, nil
}

// DumpStats writes the stats of every layer as indented JSON.
func (s *Stage) DumpStats(ctx context.Context, w io.Writer) error {
	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	list := &structpb.ListValue{}
	for _, st := range stats {
		list.Values = append(list.Values, structpb.NewStructValue(st))
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Stage) broadcast(ctx context.Context, msg proto.Message) error {
	var errs []error
	for _, l := range s.layers {
		if err := actor.Tell(ctx, l.pid, msg); err != nil {
			errs = append(errs, fmt.Errorf("layer %q: %w", l.name, err))
		}
	}
	return errors.Join(errs...)
}
