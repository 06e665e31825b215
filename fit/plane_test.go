package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func flatten(points [][]float64) (coords, values []float64) {
	for _, p := range points {
		coords = append(coords, p[:len(p)-1]...)
		values = append(values, p[len(p)-1])
	}
	return coords, values
}

func TestFit_ExactLine(t *testing.T) {
	// y = 2x + 1 through two points: exactly determined.
	coords, values := flatten([][]float64{
		{0, 1},
		{1, 3},
	})

	res, err := Fit(1, coords, values)
	require.NoError(t, err)
	require.InDelta(t, 2.0, res.Plane.Gradient[0], 1e-12)
	require.InDelta(t, 1.0, res.Plane.Intercept, 1e-12)
	require.InDelta(t, 0.0, res.RSS, 1e-20)
	require.Equal(t, 0, res.DegreesOfFreedom)

	// No residual variance estimate exists for an exactly-determined fit.
	for _, se := range res.StdErr {
		require.True(t, math.IsNaN(se))
	}
}

func TestFit_ExactPlane2D(t *testing.T) {
	// z = 2x + 3y + 1 through four points.
	coords, values := flatten([][]float64{
		{0, 0, 1},
		{1, 0, 3},
		{0, 1, 4},
		{1, 1, 6},
	})

	res, err := Fit(2, coords, values)
	require.NoError(t, err)
	require.InDelta(t, 2.0, res.Plane.Gradient[0], 1e-10)
	require.InDelta(t, 3.0, res.Plane.Gradient[1], 1e-10)
	require.InDelta(t, 1.0, res.Plane.Intercept, 1e-10)
	require.InDelta(t, 0.0, res.RSS, 1e-18)
	require.Equal(t, 1, res.DegreesOfFreedom)

	// A consistent overdetermined system has ~zero residual variance.
	for _, se := range res.StdErr {
		require.False(t, math.IsNaN(se))
		require.Less(t, se, 1e-6)
	}

	require.InDelta(t, 2.0*0.5+3.0*0.25+1.0, res.Plane.Evaluate([]float64{0.5, 0.25}), 1e-10)
}

func TestFit_NoisyOverdetermined(t *testing.T) {
	// y = x with symmetric noise: the least-squares line splits it.
	coords, values := flatten([][]float64{
		{0, 0.1},
		{1, 0.9},
		{2, 2.1},
		{3, 2.9},
	})

	res, err := Fit(1, coords, values)
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Plane.Gradient[0], 0.1)
	require.Greater(t, res.RSS, 0.0)
	require.Equal(t, 2, res.DegreesOfFreedom)
	for _, se := range res.StdErr {
		require.False(t, math.IsNaN(se))
		require.Greater(t, se, 0.0)
	}
}

func TestFit_TooFewPoints(t *testing.T) {
	coords, values := flatten([][]float64{
		{0, 0, 1},
		{1, 1, 2},
	})

	_, err := Fit(2, coords, values)
	var degen *ErrDegenerate
	require.ErrorAs(t, err, &degen)
	require.Equal(t, 2, degen.Points)
	require.Equal(t, 3, degen.Params)
}

func TestFit_ColinearPoints(t *testing.T) {
	// Three points on the line y=x in 2-D leave the plane underdetermined.
	coords, values := flatten([][]float64{
		{0, 0, 1},
		{1, 1, 2},
		{2, 2, 3},
	})

	_, err := Fit(2, coords, values)
	var degen *ErrDegenerate
	require.ErrorAs(t, err, &degen)

	// One point off the line resolves it.
	coords = append(coords, 1, 0)
	values = append(values, 5)
	res, err := Fit(2, coords, values)
	require.NoError(t, err)
	require.Len(t, res.Plane.Gradient, 2)
}

func TestFit_DuplicatePoints(t *testing.T) {
	// Duplicates carry no new directions; the design stays rank deficient.
	coords, values := flatten([][]float64{
		{1, 1, 2},
		{1, 1, 2},
		{1, 1, 2},
	})

	_, err := Fit(2, coords, values)
	var degen *ErrDegenerate
	require.ErrorAs(t, err, &degen)
}

func TestFit_LengthMismatch(t *testing.T) {
	_, err := Fit(2, []float64{1, 2, 3}, []float64{1, 2})
	require.Error(t, err)
	var degen *ErrDegenerate
	require.False(t, errors.As(err, &degen))
}

func TestFit_Deterministic(t *testing.T) {
	coords, values := flatten([][]float64{
		{0.1, 0.7, 1.3},
		{0.9, 0.2, 2.4},
		{0.4, 0.4, 1.9},
		{0.8, 0.9, 3.1},
		{0.2, 0.1, 0.8},
	})

	a, err := Fit(2, coords, values)
	require.NoError(t, err)
	b, err := Fit(2, coords, values)
	require.NoError(t, err)

	require.Equal(t, a.Plane, b.Plane)
	require.Equal(t, a.RSS, b.RSS)
	require.Equal(t, a.StdErr, b.StdErr)
}
