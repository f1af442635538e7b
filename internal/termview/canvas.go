package termview

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
	"github.com/lucasb-eyer/go-colorful"
)

// A terminal cell stands for a block of logical pixels.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

// levels below this are blanked by Fade
const minLevel = 0.04

// Cell is one character of the canvas. Level in (0, 1] drives brightness.
type Cell struct {
	Rune  rune
	Hue   float64
	Level float64
	Node  bool
}

// Canvas rasterises field draw calls onto a character grid. Fade dims cells
// instead of clearing them, which leaves trails the same way the pixel renderer does.
type Canvas struct {
	cols, rows int
	cells      []Cell
}

var (
	_ field.Renderer     = (*Canvas)(nil)
	_ field.SurfaceSizer = (*Canvas)(nil)
)

func NewCanvas() *Canvas { return &Canvas{} }

// Size returns the grid dimensions in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

// SetSurface resizes the grid to cover the viewport.
func (c *Canvas) SetSurface(v field.Viewport) {
	cols := int(math.Ceil(v.Width / CellWidth))
	rows := int(math.Ceil(v.Height / CellHeight))
	if cols == c.cols && rows == c.rows {
		return
	}
	c.cols, c.rows = cols, rows
	c.cells = make([]Cell, cols*rows)
}

// At returns the cell at column x, row y; out of range yields the zero cell.
func (c *Canvas) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return Cell{}
	}
	return c.cells[y*c.cols+x]
}

func (c *Canvas) Fade(alpha float64) {
	keep := 1 - alpha
	for i := range c.cells {
		cell := &c.cells[i]
		cell.Level *= keep
		cell.Node = false
		if cell.Level < minLevel {
			*cell = Cell{}
		}
	}
}

func (c *Canvas) cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / CellWidth)), int(math.Floor(y / CellHeight))
}

func (c *Canvas) put(cx, cy int, cell Cell) {
	if cx < 0 || cy < 0 || cx >= c.cols || cy >= c.rows {
		return
	}
	dst := &c.cells[cy*c.cols+cx]
	if dst.Node && !cell.Node {
		return
	}
	if cell.Node || cell.Level >= dst.Level {
		*dst = cell
	}
}

func (c *Canvas) DrawGlow(x, y, radius, hue float64) {
	r := '•'
	if radius >= 2 {
		r = '●'
	}
	cx, cy := c.cellOf(x, y)
	c.put(cx, cy, Cell{Rune: r, Hue: hue, Level: 1, Node: true})
}

// DrawLine walks the cells between both ends with a glyph picked from the slope.
func (c *Canvas) DrawLine(x1, y1, x2, y2, alpha, hue float64) {
	ax, ay := c.cellOf(x1, y1)
	bx, by := c.cellOf(x2, y2)
	dx, dy := bx-ax, by-ay
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		return
	}
	glyph := lineGlyph(x2-x1, y2-y1)
	level := min(1, alpha*2)
	// skip both endpoints, they hold nodes
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		cx := ax + int(math.Round(t*float64(dx)))
		cy := ay + int(math.Round(t*float64(dy)))
		c.put(cx, cy, Cell{Rune: glyph, Hue: hue, Level: level})
	}
}

func lineGlyph(dx, dy float64) rune {
	angle := math.Atan2(dy, dx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return '─'
	case angle < 67.5:
		return '╲'
	case angle < 112.5:
		return '│'
	default:
		return '╱'
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Style maps a cell to a terminal style on a black background.
func Style(cell Cell) tcell.Style {
	r, g, b := colorful.Hsl(math.Mod(cell.Hue, 360), 0.85, 0.15+0.55*cell.Level).Clamped().RGB255()
	return tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b))).
		Background(tcell.ColorBlack)
}

// Flush copies the canvas to the screen. The caller calls Show.
func (c *Canvas) Flush(screen tcell.Screen) {
	blank := tcell.StyleDefault.Background(tcell.ColorBlack)
	for y := 0; y < c.rows; y++ {
		for x := 0; x < c.cols; x++ {
			cell := c.cells[y*c.cols+x]
			if cell.Rune == 0 {
				screen.SetContent(x, y, ' ', nil, blank)
				continue
			}
			screen.SetContent(x, y, cell.Rune, nil, Style(cell))
		}
	}
}
