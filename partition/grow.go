package partition

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/tilefit/fit"
	"github.com/hupe1980/tilefit/geom"
)

// tileState is the mutable growth state of one candidate tile. It is owned
// by a single goroutine for the duration of that tile's construction.
type tileState struct {
	virtual geom.Rect
	members *roaring.Bitmap
	res     *fit.Result
}

func (st *tileState) count() int { return int(st.members.GetCardinality()) }

// grow finds the smallest virtual region covering real that holds at least
// N+1 points. Expansion is stepwise and symmetric per axis; a side pinned
// at the domain edge redirects its share to the open side. A region whose
// real bounds already hold enough points keeps virtual == real.
func (b *builder) grow(real geom.Rect) (*tileState, error) {
	st := &tileState{
		virtual: real.Clone(),
		members: b.engine.Members(real),
	}
	if st.count() >= b.need {
		return st, nil
	}

	for {
		grown, ok := b.expandOnce(st.virtual)
		if !ok {
			return nil, &ErrInsufficientData{
				Region: real.Clone(),
				Points: st.count(),
				Need:   b.need,
			}
		}
		b.growRounds.Add(1)
		st.virtual = grown
		st.members = b.engine.Members(st.virtual)
		if st.count() >= b.need {
			return st, nil
		}
	}
}

// expandOnce widens every axis outward by one step, clamped to the domain.
// It reports false once the virtual region saturates the domain and no
// further growth is possible.
func (b *builder) expandOnce(virtual geom.Rect) (geom.Rect, bool) {
	grown := virtual.Clone()
	changed := false

	for a := 0; a < grown.Dim(); a++ {
		step := b.cfg.GrowStep * b.domain.Extent(a)
		if step <= 0 {
			continue
		}

		lo := grown.Min[a] - step
		hi := grown.Max[a] + step

		// Redirect clamped expansion to the open side.
		if lo < b.domain.Min[a] {
			hi += b.domain.Min[a] - lo
			lo = b.domain.Min[a]
		}
		if hi > b.domain.Max[a] {
			lo -= hi - b.domain.Max[a]
			hi = b.domain.Max[a]
			if lo < b.domain.Min[a] {
				lo = b.domain.Min[a]
			}
		}

		if lo != grown.Min[a] || hi != grown.Max[a] {
			changed = true
		}
		grown.Min[a] = lo
		grown.Max[a] = hi
	}

	return grown, changed
}

// shrink contracts the virtual region back toward the real bounds as far as
// the N+1 floor allows, then refits on the reduced member set so distant
// borrowed points stop influencing the plane. If the reduced set turns out
// rank deficient, the pre-shrink state is kept.
func (b *builder) shrink(real geom.Rect, st *tileState) {
	if st.virtual.Equal(real) {
		return
	}

	before := st.members
	beforeVirtual := st.virtual.Clone()
	for b.shrinkPass(real, st) {
	}

	if st.members.Equals(before) {
		return
	}

	res, err := b.fit(st.members)
	if err != nil {
		// Keep the wider neighborhood; the fit on it is known good.
		st.members = before
		st.virtual = beforeVirtual
		return
	}
	st.res = res
}

// shrinkPass tries one contraction per axis and side, keeping count >= N+1.
// It reports whether any contraction was accepted.
func (b *builder) shrinkPass(real geom.Rect, st *tileState) bool {
	changed := false

	for a := 0; a < real.Dim(); a++ {
		if st.virtual.Min[a] < real.Min[a] {
			if b.contractMin(real, st, a) {
				changed = true
			}
		}
		if st.virtual.Max[a] > real.Max[a] {
			if b.contractMax(real, st, a) {
				changed = true
			}
		}
	}

	return changed
}

// contractMin raises the lower virtual bound on axis a as high as possible
// without crossing the real bound or dropping the member count below N+1.
func (b *builder) contractMin(real geom.Rect, st *tileState, a int) bool {
	coords := b.memberCoords(st.members, a)
	budget := len(coords) - b.need

	// With `budget` droppable points, the bound may rise to the
	// (budget+1)-smallest member coordinate; the closed edge keeps that
	// point inside.
	target := math.Min(real.Min[a], coords[budget])
	if target <= st.virtual.Min[a] {
		return false
	}

	st.virtual.Min[a] = target
	st.members = b.engine.Members(st.virtual)
	return true
}

// contractMax lowers the upper virtual bound on axis a, mirroring
// contractMin.
func (b *builder) contractMax(real geom.Rect, st *tileState, a int) bool {
	coords := b.memberCoords(st.members, a)
	budget := len(coords) - b.need

	target := math.Max(real.Max[a], coords[len(coords)-1-budget])
	if target >= st.virtual.Max[a] {
		return false
	}

	st.virtual.Max[a] = target
	st.members = b.engine.Members(st.virtual)
	return true
}

// memberCoords returns the sorted axis-a coordinates of the member set.
func (b *builder) memberCoords(members *roaring.Bitmap, a int) []float64 {
	ids := members.ToArray()
	coords := make([]float64, len(ids))
	for i, id := range ids {
		coords[i] = b.store.At(int(id), a)
	}
	sort.Float64s(coords)
	return coords
}
