package field

import "math"

// SpatialIndex buckets particles into a uniform grid covering [0,W] x [0,H].
// Buckets hold borrowed pointers and are rebuilt from scratch by Populate.
type SpatialIndex struct {
	cellSize   float64
	cols, rows int
	cells      [][]*Particle // flat, row-major: cells[cx+cy*cols]
}

// NewSpatialIndex creates an index with ceil(width/cellSize) x ceil(height/cellSize) cells.
func NewSpatialIndex(width, height, cellSize float64) *SpatialIndex {
	s := &SpatialIndex{}
	s.Reset(width, height, cellSize)
	return s
}

// Reset reshapes the grid for a new viewport. Existing bucket capacity is reused when the cell count allows it.
func (s *SpatialIndex) Reset(width, height, cellSize float64) {
	s.cellSize = cellSize
	s.cols = int(math.Ceil(width / cellSize))
	s.rows = int(math.Ceil(height / cellSize))
	n := s.cols * s.rows
	if cap(s.cells) >= n {
		s.cells = s.cells[:n]
	} else {
		s.cells = make([][]*Particle, n)
	}
	s.clear()
}

// Cols returns the number of grid columns.
func (s *SpatialIndex) Cols() int { return s.cols }

// Rows returns the number of grid rows.
func (s *SpatialIndex) Rows() int { return s.rows }

// CellSize returns the cell edge length in pixels.
func (s *SpatialIndex) CellSize() float64 { return s.cellSize }

func (s *SpatialIndex) clear() {
	// Reset slices to length 0 but keep capacity, so steady-state frames do not allocate.
	for i := range s.cells {
		clear(s.cells[i])
		s.cells[i] = s.cells[i][:0]
	}
}

// cellOf maps a position to cell coordinates. The result may lie outside the grid.
func (s *SpatialIndex) cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / s.cellSize)), int(math.Floor(y / s.cellSize))
}

func (s *SpatialIndex) inGrid(cx, cy int) bool {
	return cx >= 0 && cy >= 0 && cx < s.cols && cy < s.rows
}

// Populate clears every bucket, then files each particle under the cell its
// position maps to. Particles outside the grid are skipped for this frame.
func (s *SpatialIndex) Populate(particles []*Particle) {
	s.clear()
	for _, p := range particles {
		cx, cy := s.cellOf(p.Pos.X, p.Pos.Y)
		if !s.inGrid(cx, cy) {
			continue
		}
		i := cx + cy*s.cols
		s.cells[i] = append(s.cells[i], p)
	}
}

// Bucket returns the particles filed under cell (cx, cy), or nil outside the grid.
func (s *SpatialIndex) Bucket(cx, cy int) []*Particle {
	if !s.inGrid(cx, cy) {
		return nil
	}
	return s.cells[cx+cy*s.cols]
}

// NeighborsOf appends to dst every particle in the 3x3 block of cells around p,
// p itself included, and returns the extended slice.
// The result is a superset: callers filter self and the exact link distance.
func (s *SpatialIndex) NeighborsOf(p *Particle, dst []*Particle) []*Particle {
	cx, cy := s.cellOf(p.Pos.X, p.Pos.Y)
	for oy := -1; oy <= 1; oy++ {
		for ox := -1; ox <= 1; ox++ {
			kx, ky := cx+ox, cy+oy
			if !s.inGrid(kx, ky) {
				continue
			}
			dst = append(dst, s.cells[kx+ky*s.cols]...)
		}
	}
	return dst
}
