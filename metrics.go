package tilefit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    buildCounter      prometheus.Counter
//	    evaluateHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordBuild(leaves int, duration time.Duration, err error) {
//	    p.buildCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordBuild is called after each model build.
	// leaves is the number of tiles produced, duration is the total time
	// taken, err is nil if successful.
	RecordBuild(leaves int, duration time.Duration, err error)

	// RecordEvaluate is called after each evaluation.
	RecordEvaluate(duration time.Duration, err error)

	// RecordLocate is called after each tile lookup.
	RecordLocate(duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save or load.
	// size is the payload size in bytes.
	RecordSnapshot(op string, size int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)              {}
func (NoopMetricsCollector) RecordEvaluate(time.Duration, error)                {}
func (NoopMetricsCollector) RecordLocate(time.Duration, error)                  {}
func (NoopMetricsCollector) RecordSnapshot(string, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount         atomic.Int64
	BuildErrors        atomic.Int64
	BuildLeaves        atomic.Int64
	BuildTotalNanos    atomic.Int64
	EvaluateCount      atomic.Int64
	EvaluateErrors     atomic.Int64
	EvaluateTotalNanos atomic.Int64
	LocateCount        atomic.Int64
	LocateErrors       atomic.Int64
	SnapshotCount      atomic.Int64
	SnapshotErrors     atomic.Int64
	SnapshotTotalBytes atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(leaves int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildLeaves.Add(int64(leaves))
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(duration time.Duration, err error) {
	b.EvaluateCount.Add(1)
	b.EvaluateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EvaluateErrors.Add(1)
	}
}

// RecordLocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLocate(duration time.Duration, err error) {
	b.LocateCount.Add(1)
	if err != nil {
		b.LocateErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(op string, size int64, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotTotalBytes.Add(size)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:         b.BuildCount.Load(),
		BuildErrors:        b.BuildErrors.Load(),
		BuildLeaves:        b.BuildLeaves.Load(),
		BuildAvgNanos:      b.getAvgBuildNanos(),
		EvaluateCount:      b.EvaluateCount.Load(),
		EvaluateErrors:     b.EvaluateErrors.Load(),
		EvaluateAvgNanos:   b.getAvgEvaluateNanos(),
		LocateCount:        b.LocateCount.Load(),
		LocateErrors:       b.LocateErrors.Load(),
		SnapshotCount:      b.SnapshotCount.Load(),
		SnapshotErrors:     b.SnapshotErrors.Load(),
		SnapshotTotalBytes: b.SnapshotTotalBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgEvaluateNanos() int64 {
	count := b.EvaluateCount.Load()
	if count == 0 {
		return 0
	}
	return b.EvaluateTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount         int64
	BuildErrors        int64
	BuildLeaves        int64
	BuildAvgNanos      int64
	EvaluateCount      int64
	EvaluateErrors     int64
	EvaluateAvgNanos   int64
	LocateCount        int64
	LocateErrors       int64
	SnapshotCount      int64
	SnapshotErrors     int64
	SnapshotTotalBytes int64
}
