package tilefit

import (
	"context"
	"time"

	"github.com/hupe1980/tilefit/codec"
	"github.com/hupe1980/tilefit/partition"
	"github.com/hupe1980/tilefit/sample"
	"github.com/hupe1980/tilefit/tile"
)

// Config holds the partitioning parameters of a build.
type Config struct {
	// ErrorThreshold stops splitting once a tile's residual sum of squares
	// falls to or below it.
	ErrorThreshold float64

	// MaxDepth is the hard recursion cap.
	MaxDepth int

	// MinExtent is the hard per-axis size floor. A tile whose every axis
	// extent is at or below it is accepted regardless of fit error.
	MinExtent float64
}

// Stats summarizes the work of one build.
type Stats = partition.Stats

// Model is an immutable piecewise-linear surrogate over a bounding domain.
// It is produced by Build or loaded from a snapshot, and is safe for
// concurrent use.
type Model struct {
	index       *tile.Index
	stats       Stats
	config      Config
	growStep    float64
	samples     uint64
	fingerprint uint64

	codec   codec.Codec
	metrics MetricsCollector
	logger  *Logger
}

// Build partitions the store's bounding domain into tiles and fits a
// hyperplane to each. The context is honored throughout; on cancellation
// the partial build is discarded.
func Build(ctx context.Context, store *sample.Store, cfg Config, optFns ...Option) (*Model, error) {
	o := applyOptions(optFns)

	start := time.Now()
	res, err := partition.Build(ctx, store, partition.Config{
		ErrorThreshold: cfg.ErrorThreshold,
		MaxDepth:       cfg.MaxDepth,
		MinExtent:      cfg.MinExtent,
		GrowStep:       o.growStep,
		Parallelism:    o.parallelism,
	})
	elapsed := time.Since(start)

	if err != nil {
		err = translateError(err)
		o.logger.LogBuild(ctx, 0, 0, elapsed, err)
		o.metricsCollector.RecordBuild(0, elapsed, err)
		return nil, err
	}

	o.logger.LogBuild(ctx, res.Stats.Leaves, res.Stats.MaxDepth, elapsed, nil)
	o.metricsCollector.RecordBuild(res.Stats.Leaves, elapsed, nil)

	growStep := o.growStep
	if growStep <= 0 {
		growStep = partition.DefaultGrowStep
	}

	return &Model{
		index:       res.Index,
		stats:       res.Stats,
		config:      cfg,
		growStep:    growStep,
		samples:     uint64(store.Len()),
		fingerprint: store.Fingerprint(),
		codec:       o.codec,
		metrics:     o.metricsCollector,
		logger:      o.logger,
	}, nil
}

// Evaluate returns the model prediction at x: the plane of the unique tile
// owning x, applied to x.
func (m *Model) Evaluate(ctx context.Context, x []float64) (float64, error) {
	start := time.Now()
	y, err := m.index.Evaluate(x)
	err = translateError(err)
	m.metrics.RecordEvaluate(time.Since(start), err)
	if err != nil {
		m.logger.LogEvaluate(ctx, 0, err)
		return 0, err
	}
	return y, nil
}

// Locate returns the tile owning x. Tile ownership follows the [min, max)
// convention per axis; the outermost max edge of the domain is inclusive.
func (m *Model) Locate(ctx context.Context, x []float64) (*tile.Tile, error) {
	start := time.Now()
	id, err := m.index.Locate(x)
	err = translateError(err)
	m.metrics.RecordLocate(time.Since(start), err)
	if err != nil {
		m.logger.LogLocate(ctx, 0, err)
		return nil, err
	}
	m.logger.LogLocate(ctx, id, nil)
	t, err := m.index.Tile(id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Index exposes the underlying tile index for advanced inspection.
func (m *Model) Index() *tile.Index { return m.index }

// Tiles returns the leaf tiles in ID order.
// The returned slice is owned by the model and must not be modified.
func (m *Model) Tiles() []*tile.Tile { return m.index.Tiles() }

// Dim returns the dimensionality of the model domain.
func (m *Model) Dim() int { return m.index.Dim() }

// Stats returns the build statistics. A loaded model reports leaf count
// and depth only.
func (m *Model) Stats() Stats { return m.stats }

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.config }

// SampleCount returns the number of samples the model was built from.
func (m *Model) SampleCount() uint64 { return m.samples }

// Fingerprint returns the xxhash digest of the sample store the model was
// built from. It allows a loaded model to be matched against source data.
func (m *Model) Fingerprint() uint64 { return m.fingerprint }
