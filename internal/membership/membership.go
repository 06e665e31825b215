// Package membership resolves which samples fall inside a hyper-rectangle.
//
// An Engine precomputes one sorted order per axis at construction. A rect
// query then reduces to a binary-searched contiguous run per axis, converted
// to roaring bitmaps and intersected. Both edges of the rect are treated as
// inclusive: membership is used to gather points into virtual regions, not
// to assign partition ownership.
package membership

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/tilefit/geom"
	"github.com/hupe1980/tilefit/sample"
)

// Engine answers rect membership queries against an immutable store.
// It is safe for concurrent use.
type Engine struct {
	store *sample.Store

	// orders[a] lists sample indices sorted ascending by coordinate on
	// axis a (ties by sample index, keeping queries deterministic).
	orders [][]uint32
	// sorted[a] holds the coordinates in the same order, for binary search.
	sorted [][]float64
}

// NewEngine builds the per-axis sorted orders for the given store.
func NewEngine(store *sample.Store) *Engine {
	dim := store.Dim()
	n := store.Len()

	e := &Engine{
		store:  store,
		orders: make([][]uint32, dim),
		sorted: make([][]float64, dim),
	}

	for a := 0; a < dim; a++ {
		order := make([]uint32, n)
		for i := range order {
			order[i] = uint32(i)
		}
		sort.SliceStable(order, func(i, j int) bool {
			return store.At(int(order[i]), a) < store.At(int(order[j]), a)
		})

		coords := make([]float64, n)
		for i, id := range order {
			coords[i] = store.At(int(id), a)
		}

		e.orders[a] = order
		e.sorted[a] = coords
	}

	return e
}

// run returns the half-open position range [lo, hi) of samples whose
// coordinate on axis a lies in [min, max].
func (e *Engine) run(a int, min, max float64) (int, int) {
	coords := e.sorted[a]
	lo := sort.SearchFloat64s(coords, min)
	hi := sort.Search(len(coords), func(i int) bool { return coords[i] > max })
	return lo, hi
}

// axisBitmap builds the bitmap of sample indices for one axis run.
func (e *Engine) axisBitmap(a, lo, hi int) *roaring.Bitmap {
	bm := roaring.New()
	if hi > lo {
		bm.AddMany(sortedCopy(e.orders[a][lo:hi]))
	}
	return bm
}

// Members returns the set of sample indices whose coordinates lie inside
// rect, both edges inclusive on every axis.
func (e *Engine) Members(rect geom.Rect) *roaring.Bitmap {
	dim := rect.Dim()

	bitmaps := make([]*roaring.Bitmap, dim)
	for a := 0; a < dim; a++ {
		lo, hi := e.run(a, rect.Min[a], rect.Max[a])
		if lo >= hi {
			return roaring.New()
		}
		bitmaps[a] = e.axisBitmap(a, lo, hi)
	}
	if dim == 1 {
		return bitmaps[0]
	}
	return roaring.FastAnd(bitmaps...)
}

// Count returns the number of samples inside rect.
func (e *Engine) Count(rect geom.Rect) int {
	return int(e.Members(rect).GetCardinality())
}

// sortedCopy returns an ascending copy of ids, as required by AddMany.
func sortedCopy(ids []uint32) []uint32 {
	out := make([]uint32, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
