// Package sample provides the immutable sample store backing a tilefit build.
//
// A Store holds N-dimensional coordinates and their scalar values in flat,
// cache-friendly arrays. It is read-only after construction and safe for
// concurrent use without locking.
package sample

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/tilefit/geom"
)

// Policy controls how samples outside an explicitly supplied domain are
// handled at construction time. The decision is made once, at construction;
// it is never re-derived later.
type Policy int

const (
	// PolicyReject fails construction on the first out-of-domain sample.
	PolicyReject Policy = iota
	// PolicyDrop silently discards out-of-domain samples.
	PolicyDrop
	// PolicyClamp clamps out-of-domain coordinates onto the domain boundary.
	PolicyClamp
)

var (
	// ErrNoSamples is returned when a store is constructed without samples.
	ErrNoSamples = errors.New("sample: no samples")
)

// ErrLengthMismatch indicates coords and values sequences of unequal length.
type ErrLengthMismatch struct {
	Coords int
	Values int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("sample: %d coordinate vectors but %d values", e.Coords, e.Values)
}

// ErrDimensionMismatch indicates a coordinate vector whose length differs
// from the store dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	Index    int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("sample %d: dimension mismatch: expected %d, got %d", e.Index, e.Expected, e.Actual)
}

// ErrOutOfDomain indicates a sample outside an explicitly supplied domain
// under PolicyReject.
type ErrOutOfDomain struct {
	Index int
	Axis  int
	Value float64
}

func (e *ErrOutOfDomain) Error() string {
	return fmt.Sprintf("sample %d: coordinate %g on axis %d lies outside the domain", e.Index, e.Value, e.Axis)
}

// Options configures store construction.
type Options struct {
	// Bounds is an explicit bounding domain. When unset (zero Dim) the
	// domain is derived from the data as the tight per-axis min/max box.
	Bounds geom.Rect

	// Policy selects the treatment of samples outside an explicit Bounds.
	// Ignored when Bounds is derived from the data.
	Policy Policy
}

// WithBounds supplies an explicit bounding domain instead of deriving it
// from the data.
func WithBounds(bounds geom.Rect) func(o *Options) {
	return func(o *Options) {
		o.Bounds = bounds
	}
}

// WithPolicy selects the out-of-domain policy used with WithBounds.
func WithPolicy(p Policy) func(o *Options) {
	return func(o *Options) {
		o.Policy = p
	}
}

// Store is an ordered, immutable sequence of N-dimensional samples.
// Coordinates are stored flattened row-major; samples are identified by
// their index.
type Store struct {
	dim         int
	coords      []float64 // len = n*dim, row-major
	values      []float64 // len = n
	bounds      geom.Rect
	fingerprint uint64
}

// NewStore builds a store from parallel coordinate and value sequences.
// All coordinate vectors must share the same dimensionality N >= 1.
// The input slices are copied.
func NewStore(coords [][]float64, values []float64, optFns ...func(o *Options)) (*Store, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(coords) != len(values) {
		return nil, &ErrLengthMismatch{Coords: len(coords), Values: len(values)}
	}
	if len(coords) == 0 {
		return nil, ErrNoSamples
	}

	dim := len(coords[0])
	if dim < 1 {
		return nil, &ErrDimensionMismatch{Expected: 1, Actual: dim, Index: 0}
	}
	explicit := opts.Bounds.Dim() > 0
	if explicit && opts.Bounds.Dim() != dim {
		return nil, &ErrDimensionMismatch{Expected: dim, Actual: opts.Bounds.Dim(), Index: -1}
	}

	s := &Store{
		dim:    dim,
		coords: make([]float64, 0, len(coords)*dim),
		values: make([]float64, 0, len(values)),
	}

	for i, c := range coords {
		if len(c) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(c), Index: i}
		}
		if explicit {
			keep, err := applyPolicy(i, c, opts.Bounds, opts.Policy, func(clamped []float64) {
				s.coords = append(s.coords, clamped...)
				s.values = append(s.values, values[i])
			})
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		s.coords = append(s.coords, c...)
		s.values = append(s.values, values[i])
	}
	if len(s.values) == 0 {
		return nil, ErrNoSamples
	}

	if explicit {
		s.bounds = opts.Bounds.Clone()
	} else {
		s.bounds = deriveBounds(s.dim, s.coords)
	}
	s.fingerprint = fingerprint(s.dim, s.coords, s.values)

	return s, nil
}

// applyPolicy handles a single out-of-domain candidate. It returns true when
// the caller should append the original coordinates, false when the sample
// was consumed (clamped or dropped).
func applyPolicy(i int, c []float64, bounds geom.Rect, p Policy, emitClamped func([]float64)) (bool, error) {
	if bounds.ContainsClosed(c) {
		return true, nil
	}
	switch p {
	case PolicyReject:
		for axis := range c {
			if c[axis] < bounds.Min[axis] || c[axis] > bounds.Max[axis] {
				return false, &ErrOutOfDomain{Index: i, Axis: axis, Value: c[axis]}
			}
		}
		return false, &ErrOutOfDomain{Index: i}
	case PolicyDrop:
		return false, nil
	case PolicyClamp:
		clamped := make([]float64, len(c))
		for axis := range c {
			clamped[axis] = math.Min(math.Max(c[axis], bounds.Min[axis]), bounds.Max[axis])
		}
		emitClamped(clamped)
		return false, nil
	default:
		return false, fmt.Errorf("sample: unknown policy %d", p)
	}
}

func deriveBounds(dim int, coords []float64) geom.Rect {
	bounds := geom.Rect{
		Min: make([]float64, dim),
		Max: make([]float64, dim),
	}
	copy(bounds.Min, coords[:dim])
	copy(bounds.Max, coords[:dim])
	for i := dim; i < len(coords); i += dim {
		for a := 0; a < dim; a++ {
			v := coords[i+a]
			if v < bounds.Min[a] {
				bounds.Min[a] = v
			}
			if v > bounds.Max[a] {
				bounds.Max[a] = v
			}
		}
	}
	return bounds
}

// fingerprint digests the full sample content. It is embedded in snapshot
// headers so a loaded model can be matched against its source data.
func fingerprint(dim int, coords, values []float64) uint64 {
	h := xxhash.New()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(dim))
	_, _ = h.Write(buf[:])
	for _, v := range coords {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Len returns the number of samples.
func (s *Store) Len() int { return len(s.values) }

// Dim returns the dimensionality N of the independent-variable space.
func (s *Store) Dim() int { return s.dim }

// Coord returns the coordinate vector of sample i.
// The returned slice aliases internal memory and must not be modified.
func (s *Store) Coord(i int) []float64 {
	return s.coords[i*s.dim : (i+1)*s.dim]
}

// At returns the coordinate of sample i along the given axis.
func (s *Store) At(i, axis int) float64 { return s.coords[i*s.dim+axis] }

// Value returns the scalar value of sample i.
func (s *Store) Value(i int) float64 { return s.values[i] }

// Bounds returns the bounding domain of the store.
// The returned rect aliases internal memory and must not be modified.
func (s *Store) Bounds() geom.Rect { return s.bounds }

// Fingerprint returns the xxhash digest of the store content.
func (s *Store) Fingerprint() uint64 { return s.fingerprint }
