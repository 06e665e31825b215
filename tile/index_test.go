package tile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tilefit/fit"
	"github.com/hupe1980/tilefit/geom"
)

// twoTileIndex builds the smallest useful index: [0,1)x[0,1] split at x=0.5
// into tile 0 (left, f=1) and tile 1 (right, f=2).
func twoTileIndex(t *testing.T) *Index {
	t.Helper()

	bounds, err := geom.NewRect([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)

	left := bounds.Clone()
	left.Max[0] = 0.5
	right := bounds.Clone()
	right.Min[0] = 0.5

	tiles := []*Tile{
		{ID: 0, Real: left, Virtual: left, Plane: fit.Plane{Gradient: []float64{0, 0}, Intercept: 1}},
		{ID: 1, Real: right, Virtual: right, Plane: fit.Plane{Gradient: []float64{0, 0}, Intercept: 2}},
	}
	nodes := []Node{
		{Axis: 0, Split: 0.5, Left: 1, Right: 2, Leaf: LeafNone},
		{Axis: LeafNone, Leaf: 0},
		{Axis: LeafNone, Leaf: 1},
	}

	ix, err := NewIndex(bounds, nodes, tiles)
	require.NoError(t, err)
	return ix
}

func TestNewIndex_Validation(t *testing.T) {
	bounds, err := geom.NewRect([]float64{0}, []float64{1})
	require.NoError(t, err)

	_, err = NewIndex(bounds, nil, nil)
	require.Error(t, err)

	// Leaf referencing a missing tile.
	_, err = NewIndex(bounds, []Node{{Axis: LeafNone, Leaf: 3}}, []*Tile{{}})
	require.Error(t, err)

	// Split on an axis the domain does not have.
	_, err = NewIndex(bounds,
		[]Node{{Axis: 5, Split: 0.5, Left: 1, Right: 2, Leaf: LeafNone}, {Axis: LeafNone}, {Axis: LeafNone}},
		[]*Tile{{}})
	require.Error(t, err)
}

func TestIndex_LocateOwnership(t *testing.T) {
	ix := twoTileIndex(t)

	id, err := ix.Locate([]float64{0.25, 0.5})
	require.NoError(t, err)
	require.Equal(t, uint32(0), id)

	// A point exactly on the split belongs to the upper tile.
	id, err = ix.Locate([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, uint32(1), id)

	// The outermost max edge is owned (inclusive).
	id, err = ix.Locate([]float64{1, 1})
	require.NoError(t, err)
	require.Equal(t, uint32(1), id)

	// The min corner belongs to the lowest tile.
	id, err = ix.Locate([]float64{0, 0})
	require.NoError(t, err)
	require.Equal(t, uint32(0), id)
}

func TestIndex_OutOfDomain(t *testing.T) {
	ix := twoTileIndex(t)

	_, err := ix.Locate([]float64{1.5, 0.5})
	var ood *ErrOutOfDomain
	require.ErrorAs(t, err, &ood)
	require.Equal(t, 0, ood.Axis)
	require.Equal(t, []float64{1.5, 0.5}, ood.Coordinate)

	_, err = ix.Locate([]float64{0.5, -0.1})
	require.ErrorAs(t, err, &ood)
	require.Equal(t, 1, ood.Axis)

	// The index stays usable after a failed query.
	_, err = ix.Locate([]float64{0.5, 0.5})
	require.NoError(t, err)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ix := twoTileIndex(t)

	_, err := ix.Locate([]float64{0.5})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	require.Equal(t, 2, dm.Expected)
	require.Equal(t, 1, dm.Actual)
}

func TestIndex_Evaluate(t *testing.T) {
	ix := twoTileIndex(t)

	y, err := ix.Evaluate([]float64{0.25, 0.5})
	require.NoError(t, err)
	require.Equal(t, 1.0, y)

	y, err = ix.Evaluate([]float64{0.75, 0.5})
	require.NoError(t, err)
	require.Equal(t, 2.0, y)
}

func TestIndex_Accessors(t *testing.T) {
	ix := twoTileIndex(t)

	require.Equal(t, 2, ix.Dim())
	require.Equal(t, 2, ix.Len())
	require.Len(t, ix.Nodes(), 3)

	tl, err := ix.Tile(1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), tl.ID)

	_, err = ix.Tile(7)
	require.Error(t, err)
}
