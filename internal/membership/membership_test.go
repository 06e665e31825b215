package membership

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tilefit/geom"
	"github.com/hupe1980/tilefit/sample"
)

func newStore(t *testing.T, coords [][]float64) *sample.Store {
	t.Helper()
	values := make([]float64, len(coords))
	s, err := sample.NewStore(coords, values)
	require.NoError(t, err)
	return s
}

func rect(t *testing.T, min, max []float64) geom.Rect {
	t.Helper()
	r, err := geom.NewRect(min, max)
	require.NoError(t, err)
	return r
}

func TestEngine_Members2D(t *testing.T) {
	s := newStore(t, [][]float64{
		{0, 0},   // 0
		{1, 0},   // 1
		{0, 1},   // 2
		{1, 1},   // 3
		{0.5, 2}, // 4
	})
	e := NewEngine(s)

	got := e.Members(rect(t, []float64{0, 0}, []float64{1, 1}))
	require.Equal(t, []uint32{0, 1, 2, 3}, got.ToArray())

	got = e.Members(rect(t, []float64{0.4, 1.5}, []float64{0.6, 2.5}))
	require.Equal(t, []uint32{4}, got.ToArray())
}

func TestEngine_EdgesInclusive(t *testing.T) {
	s := newStore(t, [][]float64{
		{0, 0},
		{1, 1},
	})
	e := NewEngine(s)

	// Points exactly on either edge are gathered.
	got := e.Members(rect(t, []float64{0, 0}, []float64{1, 1}))
	require.Equal(t, uint64(2), got.GetCardinality())

	got = e.Members(rect(t, []float64{1, 1}, []float64{2, 2}))
	require.Equal(t, []uint32{1}, got.ToArray())
}

func TestEngine_EmptyRegion(t *testing.T) {
	s := newStore(t, [][]float64{
		{0, 0},
		{10, 10},
	})
	e := NewEngine(s)

	got := e.Members(rect(t, []float64{4, 4}, []float64{6, 6}))
	require.True(t, got.IsEmpty())
	require.Equal(t, 0, e.Count(rect(t, []float64{4, 4}, []float64{6, 6})))
}

func TestEngine_PartialAxisOverlap(t *testing.T) {
	// In range on x but not y: intersection must be empty.
	s := newStore(t, [][]float64{
		{0.5, 5},
	})
	e := NewEngine(s)

	got := e.Members(rect(t, []float64{0, 0}, []float64{1, 1}))
	require.True(t, got.IsEmpty())
}

func TestEngine_OneDimensional(t *testing.T) {
	s := newStore(t, [][]float64{
		{3}, {1}, {2}, {5}, {4},
	})
	e := NewEngine(s)

	got := e.Members(rect(t, []float64{2}, []float64{4}))
	require.Equal(t, []uint32{0, 2, 4}, got.ToArray())
}

func TestEngine_DuplicateCoordinates(t *testing.T) {
	s := newStore(t, [][]float64{
		{1, 1}, {1, 1}, {1, 2},
	})
	e := NewEngine(s)

	got := e.Members(rect(t, []float64{1, 1}, []float64{1, 1}))
	require.Equal(t, []uint32{0, 1}, got.ToArray())
}
