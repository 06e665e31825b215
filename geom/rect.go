// Package geom provides axis-aligned geometry for N-dimensional domains.
package geom

import (
	"fmt"
	"math"
	"strings"
)

// Rect is an axis-aligned hyper-rectangle given by per-axis lower and upper
// bounds. Min and Max always have identical length (the dimensionality).
//
// Ownership of points follows the half-open convention [min, max) per axis;
// gathering (virtual) regions treat both edges as inclusive. See Contains and
// ContainsClosed.
type Rect struct {
	Min []float64
	Max []float64
}

// NewRect creates a Rect from lower and upper bound slices.
// The slices are copied.
func NewRect(min, max []float64) (Rect, error) {
	if len(min) != len(max) {
		return Rect{}, fmt.Errorf("geom: bound length mismatch: %d vs %d", len(min), len(max))
	}
	if len(min) == 0 {
		return Rect{}, fmt.Errorf("geom: zero-dimensional rect")
	}
	for i := range min {
		if min[i] > max[i] {
			return Rect{}, fmt.Errorf("geom: inverted bounds on axis %d: [%g, %g]", i, min[i], max[i])
		}
	}
	r := Rect{
		Min: make([]float64, len(min)),
		Max: make([]float64, len(max)),
	}
	copy(r.Min, min)
	copy(r.Max, max)
	return r, nil
}

// Dim returns the dimensionality of the rect.
func (r Rect) Dim() int { return len(r.Min) }

// Extent returns the size of the rect along the given axis.
func (r Rect) Extent(axis int) float64 { return r.Max[axis] - r.Min[axis] }

// Contains reports whether x lies in the rect under the half-open
// [min, max) ownership convention.
func (r Rect) Contains(x []float64) bool {
	for i := range r.Min {
		if x[i] < r.Min[i] || x[i] >= r.Max[i] {
			return false
		}
	}
	return true
}

// ContainsClosed reports whether x lies in the rect with both edges
// inclusive. Used for domain membership checks and for gathering points
// into virtual regions.
func (r Rect) ContainsClosed(x []float64) bool {
	for i := range r.Min {
		if x[i] < r.Min[i] || x[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// Covers reports whether r contains other componentwise
// (r.Min[i] <= other.Min[i] and r.Max[i] >= other.Max[i] for every axis).
func (r Rect) Covers(other Rect) bool {
	for i := range r.Min {
		if other.Min[i] < r.Min[i] || other.Max[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// Equal reports exact (bitwise) equality of bounds.
func (r Rect) Equal(other Rect) bool {
	if len(r.Min) != len(other.Min) {
		return false
	}
	for i := range r.Min {
		if r.Min[i] != other.Min[i] || r.Max[i] != other.Max[i] {
			return false
		}
	}
	return true
}

// WidestAxis returns the axis with the greatest extent.
// Ties resolve to the lowest axis index, keeping splits deterministic.
func (r Rect) WidestAxis() int {
	axis := 0
	widest := r.Extent(0)
	for i := 1; i < len(r.Min); i++ {
		if e := r.Extent(i); e > widest {
			widest = e
			axis = i
		}
	}
	return axis
}

// Split cuts the rect along axis at the given coordinate, returning the lower
// and upper halves. The halves partition r exactly: lo owns [min, at) and hi
// owns [at, max) under the ownership convention.
func (r Rect) Split(axis int, at float64) (lo, hi Rect) {
	lo = r.Clone()
	hi = r.Clone()
	lo.Max[axis] = at
	hi.Min[axis] = at
	return lo, hi
}

// Midpoint returns the center coordinate of the rect along axis.
func (r Rect) Midpoint(axis int) float64 {
	return r.Min[axis] + r.Extent(axis)/2
}

// Volume returns the product of the per-axis extents.
func (r Rect) Volume() float64 {
	v := 1.0
	for i := range r.Min {
		v *= r.Extent(i)
	}
	return v
}

// Clip restricts the rect to the given outer bounds, componentwise.
func (r Rect) Clip(outer Rect) Rect {
	c := r.Clone()
	for i := range c.Min {
		c.Min[i] = math.Max(c.Min[i], outer.Min[i])
		c.Max[i] = math.Min(c.Max[i], outer.Max[i])
	}
	return c
}

// Clone returns a deep copy of the rect.
func (r Rect) Clone() Rect {
	c := Rect{
		Min: make([]float64, len(r.Min)),
		Max: make([]float64, len(r.Max)),
	}
	copy(c.Min, r.Min)
	copy(c.Max, r.Max)
	return c
}

// String renders the rect as a product of intervals, e.g. "[0,1)x[2,3)".
func (r Rect) String() string {
	var sb strings.Builder
	for i := range r.Min {
		if i > 0 {
			sb.WriteByte('x')
		}
		fmt.Fprintf(&sb, "[%g,%g)", r.Min[i], r.Max[i])
	}
	return sb.String()
}
