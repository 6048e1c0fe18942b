// Package grid provides the dense 2D scalar field used for every generated
// layer: raw noise, composed elevation and lightmaps.
package grid

import (
	"fmt"
	"math"
)

// Grid is a row-major width×height array of float32 cells.
// Reads outside the grid return 0 and writes outside it are dropped, so
// neighbour lookups at the edges never need their own bounds checks.
type Grid struct {
	width  int
	height int
	data   []float32
}

// New allocates a zeroed width×height grid. Negative dimensions count as 0.
func New(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// FromCells wraps an existing row-major slice. It fails if len(cells) is not width*height.
func FromCells(width, height int, cells []float32) (*Grid, error) {
	if width < 0 || height < 0 || len(cells) != width*height {
		return nil, fmt.Errorf("grid: %d cells do not fit %dx%d", len(cells), width, height)
	}
	return &Grid{width: width, height: height, data: cells}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Size returns width*height.
func (g *Grid) Size() int { return len(g.data) }

// Cells exposes the backing slice, indexed x + y*width.
func (g *Grid) Cells() []float32 { return g.data }

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Get returns the cell at (x, y), or 0 when out of range.
func (g *Grid) Get(x, y int) float32 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.data[x+y*g.width]
}

// Set stores v at (x, y). Out-of-range writes are ignored.
func (g *Grid) Set(x, y int, v float32) {
	if !g.InBounds(x, y) {
		return
	}
	g.data[x+y*g.width] = v
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float32) {
	for i := range g.data {
		g.data[i] = v
	}
}

// SeqFill sets cell i to i. Handy for checking index order.
func (g *Grid) SeqFill() {
	for i := range g.data {
		g.data[i] = float32(i)
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	data := make([]float32, len(g.data))
	copy(data, g.data)
	return &Grid{width: g.width, height: g.height, data: data}
}

// SameShape reports whether o has the same width and height.
func (g *Grid) SameShape(o *Grid) bool {
	return o != nil && g.width == o.width && g.height == o.height
}

// MinMax scans the grid once. An empty grid returns (0, 0).
func (g *Grid) MinMax() (min, max float32) {
	if len(g.data) == 0 {
		return 0, 0
	}
	min, max = g.data[0], g.data[0]
	for _, v := range g.data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Normalize linearly rescales the grid so its minimum lands on lo and its
// maximum on hi. An inverted pair is swapped first. A flat grid has no
// spread to rescale, so every cell becomes the midpoint of the range.
func (g *Grid) Normalize(lo, hi float32) {
	if len(g.data) == 0 {
		return
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	min, max := g.MinMax()
	if min == max {
		g.Fill(lo + (hi-lo)/2)
		return
	}

	inMin, inMax := float64(min), float64(max)
	outMin, outMax := float64(lo), float64(hi)
	for i, v := range g.data {
		g.data[i] = float32(Remap(float64(v), inMin, inMax, outMin, outMax))
	}
	// Pin the extremes so float rounding never leaves them a ulp off.
	for i, v := range g.data {
		if v < lo {
			g.data[i] = lo
		} else if v > hi {
			g.data[i] = hi
		}
	}
}

// Threshold turns the grid into a mask: 1 where the cell exceeds t, else 0.
func (g *Grid) Threshold(t float32) {
	for i, v := range g.data {
		if v > t {
			g.data[i] = 1
		} else {
			g.data[i] = 0
		}
	}
}

// Bytes is the memory held by the cell storage.
func (g *Grid) Bytes() uint64 {
	return uint64(len(g.data)) * 4
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	min, max := g.MinMax()
	return fmt.Sprintf("Grid(%dx%d, min=%.3f, max=%.3f)", g.width, g.height, min, max)
}

// Remap maps v from [inMin, inMax] onto [outMin, outMax]. Either pair is
// swapped when given inverted. A zero-width input range yields NaN or ±Inf,
// so callers with possibly flat input must guard it themselves.
func Remap(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax < inMin {
		inMin, inMax = inMax, inMin
	}
	if outMax < outMin {
		outMin, outMax = outMax, outMin
	}
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin)
}

// Round rounds half away from zero and converts to a cell index.
func Round(v float64) int {
	return int(math.Round(v))
}
