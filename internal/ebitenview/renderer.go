package ebitenview

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/geometry"
	"github.com/lucasb-eyer/go-colorful"
)

// Background is the surface colour the base layer fades towards.
var Background = color.NRGBA{R: 6, G: 9, B: 18, A: 255}

var pixel = ebiten.NewImage(1, 1)

func init() {
	pixel.Fill(color.White)
}

// nodeColor returns the colour of a node or link of the given hue.
func nodeColor(hue, lightness, alpha float64) color.NRGBA {
	r, g, b := colorful.Hsl(math.Mod(hue, 360), 0.85, lightness).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(max(0, min(1, alpha)) * 255))}
}

// Renderer draws one field layer onto its own offscreen image at device resolution.
type Renderer struct {
	surface   *ebiten.Image
	dpr       float64
	lineWidth float64
	// Transparent layers erase towards transparency instead of painting the background.
	Transparent bool
}

var (
	_ field.Renderer     = (*Renderer)(nil)
	_ field.SurfaceSizer = (*Renderer)(nil)
	_ field.Backdrop     = (*Renderer)(nil)
)

func NewRenderer(lineWidth float64, transparent bool) *Renderer {
	return &Renderer{dpr: 1, lineWidth: lineWidth, Transparent: transparent}
}

// SetSurface reallocates the offscreen image when the backing size changed.
func (r *Renderer) SetSurface(v field.Viewport) {
	r.dpr = v.DPR
	w, h := max(1, v.BackingWidth), max(1, v.BackingHeight)
	if r.surface != nil {
		if b := r.surface.Bounds(); b.Dx() == w && b.Dy() == h {
			return
		}
		r.surface.Deallocate()
	}
	r.surface = ebiten.NewImage(w, h)
	if !r.Transparent {
		r.surface.Fill(Background)
	}
}

func (r *Renderer) Fade(alpha float64) {
	if r.surface == nil {
		return
	}
	b := r.surface.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(b.Dx()), float64(b.Dy()))
	if r.Transparent {
		op.Blend = ebiten.BlendDestinationOut
	} else {
		op.ColorScale.ScaleWithColor(Background)
	}
	op.ColorScale.ScaleAlpha(float32(alpha))
	r.surface.DrawImage(pixel, op)
}

// DrawGlow paints a soft halo under a solid core.
func (r *Renderer) DrawGlow(x, y, radius, hue float64) {
	if r.surface == nil {
		return
	}
	cx, cy := float32(x*r.dpr), float32(y*r.dpr)
	rad := float32(radius * r.dpr)
	vector.FillCircle(r.surface, cx, cy, rad*4, nodeColor(hue, 0.6, 0.08), true)
	vector.FillCircle(r.surface, cx, cy, rad*2, nodeColor(hue, 0.65, 0.22), true)
	vector.FillCircle(r.surface, cx, cy, rad, nodeColor(hue, 0.8, 0.95), true)
}

func (r *Renderer) DrawLine(x1, y1, x2, y2, alpha, hue float64) {
	if r.surface == nil {
		return
	}
	d := r.dpr
	vector.StrokeLine(r.surface,
		float32(x1*d), float32(y1*d), float32(x2*d), float32(y2*d),
		float32(r.lineWidth*d), nodeColor(hue, 0.7, alpha), true)
}

// Composite draws the offscreen image onto a logical-resolution screen.
func (r *Renderer) Composite(screen *ebiten.Image) {
	if r.surface == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(1/r.dpr, 1/r.dpr)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(r.surface, op)
}

// Reduced-motion backdrop: a dark veil under a soft radial glow off the top right.
var (
	stillVeil  = colorful.Color{R: 2 / 255.0, G: 6 / 255.0, B: 8 / 255.0}
	stillInner = colorful.Color{R: 0, G: 242 / 255.0, B: 254 / 255.0}
	stillOuter = colorful.Color{R: 0, G: 176 / 255.0, B: 80 / 255.0}
)

const (
	stillVeilAlpha  = 0.88
	stillInnerAlpha = 0.06
	stillOuterAlpha = 0.01
)

// PaintBackdrop replaces the surface with the still reduced-motion background.
func (r *Renderer) PaintBackdrop(v field.Viewport) {
	if r.surface == nil {
		return
	}
	b := r.surface.Bounds()
	r.surface.WritePixels(stillPixels(b.Dx(), b.Dy(), max(1, v.DPR), !r.Transparent))
}

// stillPixels renders the backdrop as premultiplied RGBA, the layout WritePixels expects.
func stillPixels(w, h int, dpr float64, opaque bool) []byte {
	var under colorful.Color
	underAlpha := 0.0
	if opaque {
		under, _ = colorful.MakeColor(Background)
		underAlpha = 1
	}
	veil, veilAlpha := over(stillVeil, stillVeilAlpha, under, underAlpha)

	center := geometry.Vector2D{X: 0.7 * float64(w), Y: 0.2 * float64(h)}
	inner := 20 * dpr
	outer := math.Max(inner+1, 0.6*math.Max(float64(w), float64(h)))

	pix := make([]byte, 4*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := center.DistanceTo(geometry.Vector2D{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			t := geometry.Clamp((d-inner)/(outer-inner), 0, 1)
			glow := stillInner.BlendRgb(stillOuter, t)
			c, a := over(glow, stillInnerAlpha+(stillOuterAlpha-stillInnerAlpha)*t, veil, veilAlpha)

			i := 4 * (y*w + x)
			pix[i] = uint8(math.Round(c.R * a * 255))
			pix[i+1] = uint8(math.Round(c.G * a * 255))
			pix[i+2] = uint8(math.Round(c.B * a * 255))
			pix[i+3] = uint8(math.Round(a * 255))
		}
	}
	return pix
}

// over composites src onto dst (straight alpha) and returns the straight result.
func over(src colorful.Color, srcAlpha float64, dst colorful.Color, dstAlpha float64) (colorful.Color, float64) {
	a := srcAlpha + dstAlpha*(1-srcAlpha)
	if a == 0 {
		return colorful.Color{}, 0
	}
	mix := func(s, d float64) float64 { return (s*srcAlpha + d*dstAlpha*(1-srcAlpha)) / a }
	return colorful.Color{R: mix(src.R, dst.R), G: mix(src.G, dst.G), B: mix(src.B, dst.B)}, a
}
