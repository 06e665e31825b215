package tilefit

import (
	"log/slog"

	"github.com/hupe1980/tilefit/codec"
	"github.com/hupe1980/tilefit/persistence"
)

type options struct {
	codec            codec.Codec
	compression      persistence.Compression
	metricsCollector MetricsCollector
	logger           *Logger
	parallelism      int
	growStep         float64
}

// Option configures build and snapshot behavior.
type Option func(*options)

// WithCodec configures the codec used for JSON export of models.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression applied to snapshot payloads.
// The default is persistence.CompressionNone.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithParallelism bounds the number of goroutines used while partitioning.
// Values <= 0 select runtime.GOMAXPROCS(0). With parallelism 1 the build
// runs strictly sequentially.
//
// The produced model is identical regardless of parallelism.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithGrowStep configures the per-round virtual growth step as a fraction
// of the domain extent on each axis. Values <= 0 select the default 0.05.
//
// Smaller steps keep virtual regions tighter at the cost of more growth
// rounds per underpopulated tile.
func WithGrowStep(step float64) Option {
	return func(o *options) {
		o.growStep = step
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &tilefit.BasicMetricsCollector{}
//	model, _ := tilefit.Build(ctx, store, cfg, tilefit.WithMetricsCollector(metrics))
//	// ... use model ...
//	stats := metrics.GetStats()
//	fmt.Printf("Builds: %d, Avg latency: %dns\n", stats.BuildCount, stats.BuildAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := tilefit.NewJSONLogger(slog.LevelInfo)
//	model, _ := tilefit.Build(ctx, store, cfg, tilefit.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      persistence.CompressionNone,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
