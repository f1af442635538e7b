package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider maps a horizontal drag onto a value in [Min, Max].
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
	Format   string // value format in the caption, "%.2f" when empty

	// OnChange is called after a drag moved the value.
	OnChange func(v float64)
}

// NewSlider creates a slider; value is clamped into range.
func NewSlider(x, y, width float64, label string, min, max, value float64) *Slider {
	s := &Slider{Label: label, Min: min, Max: max, X: x, Y: y, W: width, H: 12}
	s.Value = s.clamp(value)
	return s
}

func (s *Slider) bounds() Rect { return Rect{X: s.X, Y: s.Y, W: s.W, H: s.H} }

func (s *Slider) clamp(v float64) float64 {
	return max(s.Min, min(s.Max, v))
}

// Ratio returns the value position in [0, 1].
func (s *Slider) Ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Update(in Input) {
	if !in.Pressed || !s.bounds().Contains(in.X, in.Y) || s.W <= 0 {
		return
	}
	v := s.clamp(s.Min + (in.X-s.X)/s.W*(s.Max-s.Min))
	if v == s.Value {
		return
	}
	s.Value = v
	if s.OnChange != nil {
		s.OnChange(v)
	}
}

// Caption is the label with the current value.
func (s *Slider) Caption() string {
	format := s.Format
	if format == "" {
		format = "%.2f"
	}
	return s.Label + ": " + fmt.Sprintf(format, s.Value)
}

func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.Ratio()), float32(s.H), color.RGBA{R: 120, G: 190, B: 230, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, s.Caption(), int(s.X), int(s.Y-16))
}
