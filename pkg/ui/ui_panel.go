package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
)

// Widget is anything the panel can stack.
type Widget interface {
	Update(in Input)
	Draw(screen *ebiten.Image)
	Height() float64
	moveTo(y float64)
}

type sliderRow struct{ *Slider }

func (s sliderRow) Height() float64  { return s.H + 28 } // caption above the track
func (s sliderRow) moveTo(y float64) { s.Y = y + 16 }

type checkboxRow struct{ *Checkbox }

func (c checkboxRow) Height() float64  { return c.Size + 8 }
func (c checkboxRow) moveTo(y float64) { c.Y = y }

type buttonRow struct{ *Button }

func (b buttonRow) Height() float64  { return b.Button.Height + 8 }
func (b buttonRow) moveTo(y float64) { b.Y = y }

// PanelSection is a titled group of consecutive widgets.
type PanelSection struct {
	Title      string
	StartIndex int
	EndIndex   int // exclusive
}

// UIPanel stacks widgets in titled sections inside a scrollable box.
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Widgets       []Widget
	ScrollOffset  float64
	Hidden        bool

	BGColor     color.RGBA
	BorderColor color.RGBA

	sections []PanelSection
}

// NewUIPanel creates a new UI panel
func NewUIPanel(title string, x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 20, G: 24, B: 32, A: 200},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// Bounds is the panel box.
func (p *UIPanel) Bounds() Rect { return Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height} }

// Captures reports whether the pointer at (x, y) belongs to the panel rather than to
// whatever is drawn underneath.
func (p *UIPanel) Captures(x, y float64) bool {
	return !p.Hidden && p.Bounds().Contains(x, y)
}

// AddSection starts a new section; widgets added afterwards belong to it.
func (p *UIPanel) AddSection(title string) {
	p.closeSection()
	p.sections = append(p.sections, PanelSection{Title: title, StartIndex: len(p.Widgets), EndIndex: -1})
}

// EndSection closes the current section
func (p *UIPanel) EndSection() { p.closeSection() }

func (p *UIPanel) closeSection() {
	if n := len(p.sections); n > 0 && p.sections[n-1].EndIndex < 0 {
		p.sections[n-1].EndIndex = len(p.Widgets)
	}
}

func (p *UIPanel) add(w Widget) {
	if len(p.sections) == 0 || p.sections[len(p.sections)-1].EndIndex >= 0 {
		p.AddSection("")
	}
	p.Widgets = append(p.Widgets, w)
	p.layout()
}

func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	p.add(sliderRow{s})
	return s
}

func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	p.add(checkboxRow{c})
	return c
}

func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 22, label, onClick)
	p.add(buttonRow{b})
	return b
}

// ContentHeight is the height of everything stacked in the panel.
func (p *UIPanel) ContentHeight() float64 {
	h := titleHeight + float64(len(p.sections))*sectionHeight
	for _, w := range p.Widgets {
		h += w.Height()
	}
	return h
}

// layout places every widget under its section header, honouring the scroll offset.
func (p *UIPanel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	for _, sec := range p.sections {
		y += sectionHeight
		end := sec.EndIndex
		if end < 0 {
			end = len(p.Widgets)
		}
		for _, w := range p.Widgets[sec.StartIndex:end] {
			w.moveTo(y)
			y += w.Height()
		}
	}
}

func (p *UIPanel) Update(in Input) {
	if p.Hidden {
		return
	}
	if in.WheelY != 0 && p.Bounds().Contains(in.X, in.Y) {
		maxScroll := max(0, p.ContentHeight()-p.Height+10)
		p.ScrollOffset = max(0, min(maxScroll, p.ScrollOffset-in.WheelY*20))
		p.layout()
	}
	if !p.Bounds().Contains(in.X, in.Y) {
		in.Pressed = false
	}
	for _, w := range p.Widgets {
		w.Update(in)
	}
}

func (p *UIPanel) Draw(screen *ebiten.Image) {
	if p.Hidden {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	visible := func(y float64) bool { return y >= p.Y+titleHeight-5 && y <= p.Y+p.Height-10 }
	y := p.Y + titleHeight - p.ScrollOffset
	for _, sec := range p.sections {
		if sec.Title != "" && visible(y) {
			vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20, color.RGBA{R: 50, G: 56, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, sec.Title, int(p.X+10), int(y+3))
		}
		y += sectionHeight
		end := sec.EndIndex
		if end < 0 {
			end = len(p.Widgets)
		}
		for _, w := range p.Widgets[sec.StartIndex:end] {
			if visible(y) {
				w.Draw(screen)
			}
			y += w.Height()
		}
	}
}
