package tilefit

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tilefit/blobstore"
	"github.com/hupe1980/tilefit/persistence"
	"github.com/hupe1980/tilefit/sample"
)

func testStore(t *testing.T) *sample.Store {
	t.Helper()

	var coords [][]float64
	var values []float64
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			x := float64(i) / 9
			y := float64(j) / 9
			coords = append(coords, []float64{x, y})
			values = append(values, math.Sin(3*x)+y*y)
		}
	}
	s, err := sample.NewStore(coords, values)
	require.NoError(t, err)
	return s
}

func testConfig() Config {
	return Config{
		ErrorThreshold: 1e-4,
		MaxDepth:       6,
		MinExtent:      1e-3,
	}
}

func TestBuild_EvaluateAndLocate(t *testing.T) {
	ctx := context.Background()
	model, err := Build(ctx, testStore(t), testConfig())
	require.NoError(t, err)

	require.Equal(t, 2, model.Dim())
	require.Greater(t, model.Stats().Leaves, 0)
	require.Equal(t, uint64(100), model.SampleCount())
	require.NotZero(t, model.Fingerprint())

	x := []float64{0.4, 0.6}
	y, err := model.Evaluate(ctx, x)
	require.NoError(t, err)
	require.InDelta(t, math.Sin(3*0.4)+0.36, y, 0.05)

	tl, err := model.Locate(ctx, x)
	require.NoError(t, err)
	require.True(t, tl.Real.Contains(x))
}

func TestBuild_ErrorTranslation(t *testing.T) {
	ctx := context.Background()

	// Bad configuration surfaces as the root config error.
	_, err := Build(ctx, testStore(t), Config{ErrorThreshold: -1, MaxDepth: 4, MinExtent: 1e-6})
	var ic *ErrInvalidConfig
	require.ErrorAs(t, err, &ic)
	require.Equal(t, "ErrorThreshold", ic.Field)

	// Too few samples surfaces as the root insufficient-data error.
	small, serr := sample.NewStore([][]float64{{0, 0}, {1, 1}}, []float64{1, 2})
	require.NoError(t, serr)
	_, err = Build(ctx, small, testConfig())
	var id *ErrInsufficientData
	require.ErrorAs(t, err, &id)
	require.Equal(t, 2, id.Points)
	require.Equal(t, 3, id.Need)
}

func TestModel_OutOfDomainQuery(t *testing.T) {
	ctx := context.Background()
	model, err := Build(ctx, testStore(t), testConfig())
	require.NoError(t, err)

	_, err = model.Evaluate(ctx, []float64{2, 0.5})
	var ood *ErrOutOfDomain
	require.ErrorAs(t, err, &ood)
	require.Equal(t, 0, ood.Axis)

	_, err = model.Evaluate(ctx, []float64{0.5})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)

	// The model stays usable after failed queries.
	_, err = model.Evaluate(ctx, []float64{0.5, 0.5})
	require.NoError(t, err)
}

func requireSameModel(t *testing.T, want, got *Model) {
	t.Helper()

	require.Equal(t, want.Dim(), got.Dim())
	require.Equal(t, want.SampleCount(), got.SampleCount())
	require.Equal(t, want.Fingerprint(), got.Fingerprint())
	require.Equal(t, want.Config(), got.Config())
	require.Equal(t, want.Index().Nodes(), got.Index().Nodes())
	require.Equal(t, want.Index().Len(), got.Index().Len())

	for i, wt := range want.Tiles() {
		gt := got.Tiles()[i]
		require.True(t, wt.Real.Equal(gt.Real))
		require.True(t, wt.Virtual.Equal(gt.Virtual))
		require.Equal(t, wt.Plane, gt.Plane)
		require.Equal(t, wt.RSS, gt.RSS)
		require.Equal(t, wt.MemberCount, gt.MemberCount)
		require.Equal(t, wt.Depth, gt.Depth)
	}

	// Predictions of the loaded model are bitwise identical.
	for _, x := range [][]float64{{0, 0}, {0.33, 0.77}, {1, 1}, {0.5, 0.125}} {
		wy, err := want.Evaluate(context.Background(), x)
		require.NoError(t, err)
		gy, err := got.Evaluate(context.Background(), x)
		require.NoError(t, err)
		require.Equal(t, wy, gy)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	model, err := Build(ctx, testStore(t), testConfig())
	require.NoError(t, err)

	for _, comp := range []persistence.Compression{
		persistence.CompressionNone,
		persistence.CompressionZstd,
		persistence.CompressionLZ4,
	} {
		t.Run(comp.String(), func(t *testing.T) {
			var buf bytes.Buffer
			n, err := model.WriteSnapshot(&buf, comp)
			require.NoError(t, err)
			require.Equal(t, int64(buf.Len()), n)

			loaded, err := ReadSnapshot(&buf)
			require.NoError(t, err)
			requireSameModel(t, model, loaded)
		})
	}
}

func TestSnapshot_ChecksumValidated(t *testing.T) {
	ctx := context.Background()
	model, err := Build(ctx, testStore(t), testConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = model.WriteSnapshot(&buf, persistence.CompressionNone)
	require.NoError(t, err)

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xff

	_, err = ReadSnapshot(bytes.NewReader(corrupted))
	require.ErrorIs(t, err, persistence.ErrChecksum)
}

func TestSnapshot_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	model, err := Build(ctx, testStore(t), testConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, model.SaveToFile(ctx, path, WithCompression(persistence.CompressionZstd)))

	loaded, err := LoadFromFile(ctx, path)
	require.NoError(t, err)
	requireSameModel(t, model, loaded)
}

func TestSnapshot_BlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	model, err := Build(ctx, testStore(t), testConfig())
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	require.NoError(t, model.SaveToBlob(ctx, store, "models/m.bin"))

	loaded, err := LoadFromBlob(ctx, store, "models/m.bin")
	require.NoError(t, err)
	requireSameModel(t, model, loaded)

	_, err = LoadFromBlob(ctx, store, "models/missing.bin")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestModel_ExportJSON(t *testing.T) {
	ctx := context.Background()
	model, err := Build(ctx, testStore(t), testConfig())
	require.NoError(t, err)

	data, err := model.ExportJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.EqualValues(t, 2, decoded["dimension"])
	require.NotEmpty(t, decoded["tiles"])
}

func TestBuild_MetricsCollected(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}

	model, err := Build(ctx, testStore(t), testConfig(), WithMetricsCollector(metrics))
	require.NoError(t, err)

	_, err = model.Evaluate(ctx, []float64{0.5, 0.5})
	require.NoError(t, err)
	_, err = model.Evaluate(ctx, []float64{9, 9})
	require.Error(t, err)
	_, err = model.Locate(ctx, []float64{0.5, 0.5})
	require.NoError(t, err)

	stats := metrics.GetStats()
	require.Equal(t, int64(1), stats.BuildCount)
	require.Equal(t, int64(0), stats.BuildErrors)
	require.Equal(t, int64(2), stats.EvaluateCount)
	require.Equal(t, int64(1), stats.EvaluateErrors)
	require.Equal(t, int64(1), stats.LocateCount)
}

func TestBuild_ParallelismMatchesSequential(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	seq, err := Build(ctx, store, testConfig(), WithParallelism(1))
	require.NoError(t, err)
	par, err := Build(ctx, store, testConfig(), WithParallelism(8))
	require.NoError(t, err)

	requireSameModel(t, seq, par)
}
