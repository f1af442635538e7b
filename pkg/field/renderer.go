package field

// Renderer is the drawing sink. The engine only writes to it, never reads back.
// Coordinates are logical viewport pixels; device scaling is the renderer's job.
type Renderer interface {
	// Fade paints the background at the given opacity, leaving trails of earlier frames.
	Fade(alpha float64)
	DrawGlow(x, y, radius, hue float64)
	DrawLine(x1, y1, x2, y2, alpha, hue float64)
}

// SurfaceSizer is implemented by renderers that keep a backing surface sized to the viewport.
type SurfaceSizer interface {
	SetSurface(v Viewport)
}

// Backdrop is implemented by renderers that can paint the still reduced-motion
// background. Renderers without it get a full-opacity Fade instead.
type Backdrop interface {
	PaintBackdrop(v Viewport)
}

// OpKind tags a recorded draw instruction.
type OpKind uint8

const (
	OpFade OpKind = iota
	OpGlow
	OpLine
	OpBackdrop
)

// DrawOp is one recorded instruction. Unused fields are zero.
type DrawOp struct {
	Kind           OpKind
	X1, Y1, X2, Y2 float64
	Radius         float64
	Alpha          float64
	Hue            float64
}

// DrawList records draw instructions so they can be replayed on another
// goroutine, or inspected in tests.
type DrawList struct {
	Ops     []DrawOp
	Surface Viewport
}

var (
	_ Renderer     = (*DrawList)(nil)
	_ SurfaceSizer = (*DrawList)(nil)
	_ Backdrop     = (*DrawList)(nil)
)

func (d *DrawList) Fade(alpha float64) {
	d.Ops = append(d.Ops, DrawOp{Kind: OpFade, Alpha: alpha})
}

func (d *DrawList) DrawGlow(x, y, radius, hue float64) {
	d.Ops = append(d.Ops, DrawOp{Kind: OpGlow, X1: x, Y1: y, Radius: radius, Hue: hue})
}

func (d *DrawList) DrawLine(x1, y1, x2, y2, alpha, hue float64) {
	d.Ops = append(d.Ops, DrawOp{Kind: OpLine, X1: x1, Y1: y1, X2: x2, Y2: y2, Alpha: alpha, Hue: hue})
}

func (d *DrawList) PaintBackdrop(v Viewport) {
	d.Surface = v
	d.Ops = append(d.Ops, DrawOp{Kind: OpBackdrop})
}

func (d *DrawList) SetSurface(v Viewport) { d.Surface = v }

// Reset empties the list and keeps its capacity.
func (d *DrawList) Reset() { d.Ops = d.Ops[:0] }

// Count returns how many recorded instructions have the given kind.
func (d *DrawList) Count(kind OpKind) int {
	n := 0
	for _, op := range d.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Clone returns an independent copy, safe to hand to another goroutine.
func (d *DrawList) Clone() *DrawList {
	return &DrawList{Ops: append([]DrawOp(nil), d.Ops...), Surface: d.Surface}
}

// Replay sends every recorded instruction to r, in order.
func (d *DrawList) Replay(r Renderer) {
	if s, ok := r.(SurfaceSizer); ok && d.Surface.Width > 0 {
		s.SetSurface(d.Surface)
	}
	for _, op := range d.Ops {
		switch op.Kind {
		case OpFade:
			r.Fade(op.Alpha)
		case OpGlow:
			r.DrawGlow(op.X1, op.Y1, op.Radius, op.Hue)
		case OpLine:
			r.DrawLine(op.X1, op.Y1, op.X2, op.Y2, op.Alpha, op.Hue)
		case OpBackdrop:
			paintBackdrop(r, d.Surface)
		}
	}
}

func paintBackdrop(r Renderer, v Viewport) {
	if b, ok := r.(Backdrop); ok {
		b.PaintBackdrop(v)
		return
	}
	r.Fade(1)
}
