package tilefit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tilefit/fit"
	"github.com/hupe1980/tilefit/geom"
	"github.com/hupe1980/tilefit/partition"
	"github.com/hupe1980/tilefit/sample"
	"github.com/hupe1980/tilefit/tile"
)

// ErrInvalidConfig indicates a configuration rejected before any
// partitioning work begins.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidConfig struct {
	Field  string
	Reason string
	cause  error
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.cause }

// ErrInsufficientData indicates that the samples cannot support a
// well-posed fit: fewer than N+1 samples globally, or a region that stays
// under the floor after maximal virtual growth. Fatal to the build.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInsufficientData struct {
	Region geom.Rect
	Points int
	Need   int
	cause  error
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("insufficient data: region %s holds %d points, need %d", e.Region, e.Points, e.Need)
}

func (e *ErrInsufficientData) Unwrap() error { return e.cause }

// ErrDegenerate indicates a rank-deficient point set that virtual growth
// could not resolve within the domain.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDegenerate struct {
	Region geom.Rect
	Points int
	cause  error
}

func (e *ErrDegenerate) Error() string {
	return fmt.Sprintf("degenerate fit in region %s (%d points)", e.Region, e.Points)
}

func (e *ErrDegenerate) Unwrap() error { return e.cause }

// ErrOutOfDomain indicates a query coordinate outside the bounding domain.
// It is per-call and recoverable; the model stays valid.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrOutOfDomain struct {
	Coordinate []float64
	Axis       int
	cause      error
}

func (e *ErrOutOfDomain) Error() string {
	return fmt.Sprintf("coordinate %v outside domain on axis %d", e.Coordinate, e.Axis)
}

func (e *ErrOutOfDomain) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates a coordinate of the wrong dimensionality.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError normalizes subpackage errors into root types.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Configuration normalization.
	var pic *partition.ErrInvalidConfig
	if errors.As(err, &pic) {
		return &ErrInvalidConfig{Field: pic.Field, Reason: pic.Reason, cause: err}
	}
	var slm *sample.ErrLengthMismatch
	if errors.As(err, &slm) {
		return &ErrInvalidConfig{Field: "samples", Reason: "coordinate/value length mismatch", cause: err}
	}
	var sdm *sample.ErrDimensionMismatch
	if errors.As(err, &sdm) {
		return &ErrDimensionMismatch{Expected: sdm.Expected, Actual: sdm.Actual, cause: err}
	}

	// Data sufficiency.
	var pid *partition.ErrInsufficientData
	if errors.As(err, &pid) {
		return &ErrInsufficientData{Region: pid.Region, Points: pid.Points, Need: pid.Need, cause: err}
	}
	if errors.Is(err, sample.ErrNoSamples) {
		return &ErrInsufficientData{Points: 0, Need: 1, cause: err}
	}

	// Degeneracy.
	var pdg *partition.ErrDegenerate
	if errors.As(err, &pdg) {
		return &ErrDegenerate{Region: pdg.Region, Points: pdg.Points, cause: err}
	}
	var fdg *fit.ErrDegenerate
	if errors.As(err, &fdg) {
		return &ErrDegenerate{Points: fdg.Points, cause: err}
	}

	// Query normalization.
	var ood *tile.ErrOutOfDomain
	if errors.As(err, &ood) {
		return &ErrOutOfDomain{Coordinate: ood.Coordinate, Axis: ood.Axis, cause: err}
	}
	var tdm *tile.ErrDimensionMismatch
	if errors.As(err, &tdm) {
		return &ErrDimensionMismatch{Expected: tdm.Expected, Actual: tdm.Actual, cause: err}
	}

	return err
}
