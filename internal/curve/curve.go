// Package curve implements piecewise-linear remap tables: an ordered list of
// control points mapping one scalar domain onto another.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmpty is returned when a curve has no control points.
	ErrEmpty = errors.New("curve: no control points")
	// ErrNotMonotonic is returned when an x value is smaller than the one before it.
	ErrNotMonotonic = errors.New("curve: x values must be non-decreasing")
)

// Point is one control point.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Curve is an immutable piecewise-linear function.
type Curve struct {
	xs []float64
	ys []float64
}

// New validates the points and builds a curve.
func New(points ...Point) (*Curve, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	c := &Curve{
		xs: make([]float64, len(points)),
		ys: make([]float64, len(points)),
	}
	for i, p := range points {
		if i > 0 && p.X < points[i-1].X {
			return nil, fmt.Errorf("%w: point %d (x=%g) follows x=%g", ErrNotMonotonic, i, p.X, points[i-1].X)
		}
		c.xs[i] = p.X
		c.ys[i] = p.Y
	}
	return c, nil
}

// Must is New for literal tables; it panics on an invalid table.
func Must(points ...Point) *Curve {
	c, err := New(points...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of control points.
func (c *Curve) Len() int { return len(c.xs) }

// Points returns a copy of the control points.
func (c *Curve) Points() []Point {
	out := make([]Point, len(c.xs))
	for i := range c.xs {
		out[i] = Point{X: c.xs[i], Y: c.ys[i]}
	}
	return out
}

// At evaluates the curve at x. Outside the control range the curve is flat.
// The first and last segments are flat too: x in (x0, x1] yields y0 and
// x in (xn-2, xn-1] yields yn-1. Only the segments between them interpolate.
func (c *Curve) At(x float64) float64 {
	n := len(c.xs)
	if x < c.xs[0] {
		return c.ys[0]
	}
	if x > c.xs[n-1] {
		return c.ys[n-1]
	}

	// First index whose knot is not below x. NaN lands on 0.
	j := sort.Search(n, func(k int) bool { return !(x > c.xs[k]) })
	i := j - 1

	if i <= 0 {
		return c.ys[0]
	}
	if j >= n-1 {
		return c.ys[n-1]
	}

	r := (x - c.xs[i]) / (c.xs[j] - c.xs[i])
	return c.ys[i] + r*(c.ys[j]-c.ys[i])
}
