package stage

import (
	"errors"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Layer messages travel through the actor mailbox as protobuf well-known types:
//
//	*timestamppb.Timestamp  frame pulse, the host clock is moved to it
//	*structpb.Struct        command, dispatched on its "op" field
//	*emptypb.Empty          stats request, answered with a *structpb.Struct

// Command ops.
const (
	OpResize  = "resize"
	OpPointer = "pointer"
	OpVisible = "visible"
	OpDensity = "density"
	OpPause   = "pause"
	OpResume  = "resume"
	OpRefit   = "refit"
)

var (
	// ErrUnknownCommand is returned for a command whose op is missing or not recognised.
	ErrUnknownCommand = errors.New("unknown layer command")
	// ErrBadCommand is returned when a known op carries malformed arguments.
	ErrBadCommand = errors.New("malformed layer command")
)

// Pulse wraps a frame timestamp.
func Pulse(now time.Time) *timestamppb.Timestamp { return timestamppb.New(now) }

func command(op string, args map[string]any) *structpb.Struct {
	fields := map[string]*structpb.Value{"op": structpb.NewStringValue(op)}
	for k, v := range args {
		switch v := v.(type) {
		case float64:
			fields[k] = structpb.NewNumberValue(v)
		case bool:
			fields[k] = structpb.NewBoolValue(v)
		case string:
			fields[k] = structpb.NewStringValue(v)
		}
	}
	return &structpb.Struct{Fields: fields}
}

// ResizeCommand carries a raw surface size and device pixel ratio.
func ResizeCommand(width, height, dpr float64) *structpb.Struct {
	return command(OpResize, map[string]any{"width": width, "height": height, "dpr": dpr})
}

// PointerCommand carries one pointer sample.
func PointerCommand(ev field.PointerEvent) *structpb.Struct {
	return command(OpPointer, map[string]any{
		"x":    ev.X,
		"y":    ev.Y,
		"kind": ev.Kind.String(),
		"at":   ev.At.Format(time.RFC3339Nano),
	})
}

// VisibleCommand carries the surface visibility signal.
func VisibleCommand(visible bool) *structpb.Struct {
	return command(OpVisible, map[string]any{"visible": visible})
}

// DensityCommand changes the particles-per-pixel target.
func DensityCommand(density float64) *structpb.Struct {
	return command(OpDensity, map[string]any{"density": density})
}

func PauseCommand() *structpb.Struct  { return command(OpPause, nil) }
func ResumeCommand() *structpb.Struct { return command(OpResume, nil) }
func RefitCommand() *structpb.Struct  { return command(OpRefit, nil) }

// Apply dispatches a command to e.
func Apply(e *field.Engine, cmd *structpb.Struct) error {
	op := cmd.GetFields()["op"].GetStringValue()
	switch op {
	case OpResize:
		w, h, dpr, err := numbers3(cmd, "width", "height", "dpr")
		if err != nil {
			return err
		}
		e.Resize(w, h, dpr)
	case OpPointer:
		ev, err := decodePointer(cmd)
		if err != nil {
			return err
		}
		e.HandlePointer(ev)
	case OpVisible:
		v, ok := cmd.GetFields()["visible"].GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return fmt.Errorf("%w: %s needs a boolean visible field", ErrBadCommand, op)
		}
		e.SetVisible(v.BoolValue)
	case OpDensity:
		d, err := number(cmd, "density")
		if err != nil {
			return err
		}
		e.SetDensity(d)
	case OpPause:
		e.Pause()
	case OpResume:
		e.Resume()
	case OpRefit:
		e.Refit()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, op)
	}
	return nil
}

func number(cmd *structpb.Struct, key string) (float64, error) {
	v, ok := cmd.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s needs a numeric %s field", ErrBadCommand, cmd.GetFields()["op"].GetStringValue(), key)
	}
	return v.NumberValue, nil
}

func numbers3(cmd *structpb.Struct, a, b, c string) (float64, float64, float64, error) {
	x, err := number(cmd, a)
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := number(cmd, b)
	if err != nil {
		return 0, 0, 0, err
	}
	z, err := number(cmd, c)
	if err != nil {
		return 0, 0, 0, err
	}
	return x, y, z, nil
}

func decodePointer(cmd *structpb.Struct) (field.PointerEvent, error) {
	var ev field.PointerEvent
	var err error
	if ev.X, err = number(cmd, "x"); err != nil {
		return ev, err
	}
	if ev.Y, err = number(cmd, "y"); err != nil {
		return ev, err
	}
	switch kind := cmd.GetFields()["kind"].GetStringValue(); kind {
	case field.PointerMove.String():
		ev.Kind = field.PointerMove
	case field.PointerDown.String():
		ev.Kind = field.PointerDown
	case field.PointerLeave.String():
		ev.Kind = field.PointerLeave
	default:
		return ev, fmt.Errorf("%w: pointer kind %q", ErrBadCommand, kind)
	}
	ev.At, err = time.Parse(time.RFC3339Nano, cmd.GetFields()["at"].GetStringValue())
	if err != nil {
		return ev, fmt.Errorf("%w: pointer timestamp: %v", ErrBadCommand, err)
	}
	return ev, nil
}

// StatsStruct encodes engine stats as the reply to a stats request.
func StatsStruct(s field.Stats) *structpb.Struct {
	num := structpb.NewNumberValue
	v := s.Viewport
	viewport := &structpb.Struct{Fields: map[string]*structpb.Value{
		"width":       num(v.Width),
		"height":      num(v.Height),
		"dpr":         num(v.DPR),
		"backingW":    num(float64(v.BackingWidth)),
		"backingH":    num(float64(v.BackingHeight)),
		"targetCount": num(float64(v.TargetCount)),
		"cols":        num(float64(v.Cols)),
		"rows":        num(float64(v.Rows)),
	}}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"name":          structpb.NewStringValue(s.Name),
		"state":         structpb.NewStringValue(s.State.String()),
		"particles":     num(float64(s.Particles)),
		"links":         num(float64(s.Links)),
		"frames":        num(float64(s.Frames)),
		"pointerActive": structpb.NewBoolValue(s.PointerActive),
		"viewport":      structpb.NewStructValue(viewport),
	}}
}
