// Package fit computes ordinary least-squares hyperplane fits.
//
// The fitter is a pure function of its input sample set: no state is kept
// between calls and identical inputs produce identical output.
package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CondThreshold is the relative conditioning floor for the R factor of the
// QR decomposition. A design matrix whose smallest R diagonal falls below
// CondThreshold times the largest is treated as rank deficient.
const CondThreshold = 1e-12

// ErrDegenerate indicates a rank-deficient fit: fewer points than
// parameters, or points arranged so the affine system is underdetermined
// (e.g. all coordinates colinear/coplanar).
type ErrDegenerate struct {
	Points int
	Params int
	// Cond is the relative size of the smallest R diagonal when the
	// deficiency was detected numerically, 0 when there were simply too
	// few points.
	Cond float64
}

func (e *ErrDegenerate) Error() string {
	if e.Points < e.Params {
		return fmt.Sprintf("degenerate fit: %d points for %d parameters", e.Points, e.Params)
	}
	return fmt.Sprintf("degenerate fit: rank-deficient design matrix (cond %.3g)", e.Cond)
}

// Plane is an affine function f(x) = Gradient·x + Intercept over an
// N-dimensional coordinate space.
type Plane struct {
	Gradient  []float64
	Intercept float64
}

// Evaluate returns Gradient·x + Intercept.
func (p Plane) Evaluate(x []float64) float64 {
	v := p.Intercept
	for i, g := range p.Gradient {
		v += g * x[i]
	}
	return v
}

// Result holds a fitted plane together with its residual statistics.
type Result struct {
	Plane Plane

	// RSS is the residual sum of squares of the fit.
	RSS float64

	// DegreesOfFreedom is count - (N+1).
	DegreesOfFreedom int

	// StdErr holds per-coefficient standard errors, intercept first,
	// derived from the residual variance and the parameter covariance.
	// All entries are NaN for exactly-determined fits (zero degrees of
	// freedom), where no residual variance estimate exists.
	StdErr []float64
}

// Fit computes the least-squares hyperplane through the given samples.
// coords is a flattened n×dim row-major coordinate array and values the n
// observed scalars. It requires n >= dim+1 and a full-rank design matrix;
// anything less returns *ErrDegenerate.
func Fit(dim int, coords, values []float64) (*Result, error) {
	params := dim + 1
	n := len(values)
	if len(coords) != n*dim {
		return nil, fmt.Errorf("fit: %d coordinates for %d values of dimension %d", len(coords), n, dim)
	}
	if n < params {
		return nil, &ErrDegenerate{Points: n, Params: params}
	}

	// Design matrix with a constant column for the intercept.
	a := mat.NewDense(n, params, nil)
	for i := 0; i < n; i++ {
		a.Set(i, 0, 1)
		for j := 0; j < dim; j++ {
			a.Set(i, j+1, coords[i*dim+j])
		}
	}
	b := mat.NewVecDense(n, values)

	var qr mat.QR
	qr.Factorize(a)

	var r mat.Dense
	qr.RTo(&r)
	if cond, ok := diagCond(&r, params); !ok {
		return nil, &ErrDegenerate{Points: n, Params: params, Cond: cond}
	}

	c := mat.NewVecDense(params, nil)
	if err := qr.SolveVecTo(c, false, b); err != nil {
		return nil, &ErrDegenerate{Points: n, Params: params}
	}

	res := &Result{
		Plane: Plane{
			Gradient:  make([]float64, dim),
			Intercept: c.AtVec(0),
		},
		DegreesOfFreedom: n - params,
		StdErr:           make([]float64, params),
	}
	for j := 0; j < dim; j++ {
		res.Plane.Gradient[j] = c.AtVec(j + 1)
	}

	for i := 0; i < n; i++ {
		d := values[i] - res.Plane.Evaluate(coords[i*dim:(i+1)*dim])
		res.RSS += d * d
	}

	if res.DegreesOfFreedom > 0 {
		stdErr(&r, params, res)
	} else {
		for j := range res.StdErr {
			res.StdErr[j] = math.NaN()
		}
	}

	return res, nil
}

// diagCond checks the relative conditioning of the R diagonal.
func diagCond(r *mat.Dense, params int) (float64, bool) {
	smallest := math.Inf(1)
	largest := 0.0
	for i := 0; i < params; i++ {
		d := math.Abs(r.At(i, i))
		if d < smallest {
			smallest = d
		}
		if d > largest {
			largest = d
		}
	}
	if largest == 0 {
		return 0, false
	}
	cond := smallest / largest
	return cond, cond > CondThreshold
}

// stdErr fills in per-coefficient standard errors from the parameter
// covariance (AᵀA)⁻¹·s² = R⁻¹R⁻ᵀ·s², with s² the residual variance.
func stdErr(r *mat.Dense, params int, res *Result) {
	// Invert the upper-triangular R by back substitution against I.
	rinv := mat.NewDense(params, params, nil)
	for col := 0; col < params; col++ {
		for i := params - 1; i >= 0; i-- {
			v := 0.0
			if i == col {
				v = 1
			}
			for k := i + 1; k < params; k++ {
				v -= r.At(i, k) * rinv.At(k, col)
			}
			rinv.Set(i, col, v/r.At(i, i))
		}
	}

	sigma2 := res.RSS / float64(res.DegreesOfFreedom)
	for i := 0; i < params; i++ {
		// diag(R⁻¹R⁻ᵀ)[i] = Σ_k R⁻¹[i,k]².
		v := 0.0
		for k := i; k < params; k++ {
			v += rinv.At(i, k) * rinv.At(i, k)
		}
		res.StdErr[i] = math.Sqrt(v * sigma2)
	}
}
