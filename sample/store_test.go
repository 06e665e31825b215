package sample

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tilefit/geom"
)

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(nil, nil)
	require.ErrorIs(t, err, ErrNoSamples)

	_, err = NewStore([][]float64{{1, 2}}, []float64{1, 2})
	var lm *ErrLengthMismatch
	require.ErrorAs(t, err, &lm)

	_, err = NewStore([][]float64{{1, 2}, {3}}, []float64{1, 2})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	require.Equal(t, 1, dm.Index)
}

func TestNewStore_DerivedBounds(t *testing.T) {
	s, err := NewStore([][]float64{
		{0, 5},
		{2, -1},
		{1, 3},
	}, []float64{10, 20, 30})
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	require.Equal(t, 2, s.Dim())
	require.Equal(t, []float64{0, -1}, s.Bounds().Min)
	require.Equal(t, []float64{2, 5}, s.Bounds().Max)

	require.Equal(t, []float64{2, -1}, s.Coord(1))
	require.Equal(t, -1.0, s.At(1, 1))
	require.Equal(t, 20.0, s.Value(1))
}

func TestNewStore_ExplicitBoundsReject(t *testing.T) {
	bounds, err := geom.NewRect([]float64{0}, []float64{1})
	require.NoError(t, err)

	_, err = NewStore([][]float64{{0.5}, {2}}, []float64{1, 2},
		WithBounds(bounds), WithPolicy(PolicyReject))
	var ood *ErrOutOfDomain
	require.ErrorAs(t, err, &ood)
	require.Equal(t, 1, ood.Index)
	require.Equal(t, 2.0, ood.Value)
}

func TestNewStore_ExplicitBoundsDrop(t *testing.T) {
	bounds, err := geom.NewRect([]float64{0}, []float64{1})
	require.NoError(t, err)

	s, err := NewStore([][]float64{{0.5}, {2}, {0.25}}, []float64{1, 2, 3},
		WithBounds(bounds), WithPolicy(PolicyDrop))
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	require.Equal(t, 1.0, s.Value(0))
	require.Equal(t, 3.0, s.Value(1))

	// Dropping everything degrades to the empty-store error.
	_, err = NewStore([][]float64{{5}}, []float64{1},
		WithBounds(bounds), WithPolicy(PolicyDrop))
	require.ErrorIs(t, err, ErrNoSamples)
}

func TestNewStore_ExplicitBoundsClamp(t *testing.T) {
	bounds, err := geom.NewRect([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)

	s, err := NewStore([][]float64{{2, -0.5}}, []float64{7},
		WithBounds(bounds), WithPolicy(PolicyClamp))
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	require.Equal(t, []float64{1, 0}, s.Coord(0))
	require.Equal(t, 7.0, s.Value(0))
}

func TestStore_FingerprintStability(t *testing.T) {
	coords := [][]float64{{0, 0}, {1, 1}}
	values := []float64{1, 2}

	a, err := NewStore(coords, values)
	require.NoError(t, err)
	b, err := NewStore(coords, values)
	require.NoError(t, err)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := NewStore(coords, []float64{1, 3})
	require.NoError(t, err)
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestStore_CopiesInput(t *testing.T) {
	coords := [][]float64{{1, 2}}
	s, err := NewStore(coords, []float64{5})
	require.NoError(t, err)

	coords[0][0] = 99
	require.Equal(t, 1.0, s.At(0, 0))
}
