// Package partition adaptively decomposes a bounding domain into leaf tiles.
//
// Each candidate region is grown until it holds enough points for a
// well-posed fit, fitted, and either accepted as a leaf or split along its
// widest axis. Sibling subtrees share no mutable state and may be built
// concurrently; the assembled result is deterministic for identical inputs
// and configuration regardless of scheduling.
package partition

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/tilefit/fit"
	"github.com/hupe1980/tilefit/geom"
	"github.com/hupe1980/tilefit/internal/membership"
	"github.com/hupe1980/tilefit/sample"
	"github.com/hupe1980/tilefit/tile"
)

// DefaultGrowStep is the default virtual-region growth step, as a fraction
// of the domain extent per axis and round.
const DefaultGrowStep = 0.05

// Config holds the partitioning parameters.
type Config struct {
	// ErrorThreshold stops splitting once a tile's residual sum of
	// squares falls to or below it.
	ErrorThreshold float64

	// MaxDepth is the hard recursion cap.
	MaxDepth int

	// MinExtent is the hard per-axis size floor. A region whose every
	// axis extent is at or below it is accepted regardless of fit error.
	MinExtent float64

	// GrowStep is the per-round growth step as a fraction of the domain
	// extent per axis. Zero selects DefaultGrowStep.
	GrowStep float64

	// Parallelism bounds the number of concurrently built subtrees.
	// Zero selects runtime.GOMAXPROCS(0); 1 builds sequentially.
	Parallelism int
}

// ErrInvalidConfig indicates a configuration rejected before any
// partitioning work begins.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// Validate checks the configuration. It is called by Build; callers only
// need it for early validation.
func (c Config) Validate() error {
	if c.ErrorThreshold < 0 {
		return &ErrInvalidConfig{Field: "ErrorThreshold", Reason: "must be >= 0"}
	}
	if c.MaxDepth < 0 {
		return &ErrInvalidConfig{Field: "MaxDepth", Reason: "must be >= 0"}
	}
	if c.MinExtent <= 0 {
		return &ErrInvalidConfig{Field: "MinExtent", Reason: "must be > 0"}
	}
	if c.GrowStep < 0 || c.GrowStep >= 1 {
		return &ErrInvalidConfig{Field: "GrowStep", Reason: "must be in [0, 1)"}
	}
	if c.Parallelism < 0 {
		return &ErrInvalidConfig{Field: "Parallelism", Reason: "must be >= 0"}
	}
	return nil
}

func (c Config) normalized() Config {
	if c.GrowStep == 0 {
		c.GrowStep = DefaultGrowStep
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	return c
}

// ErrInsufficientData indicates a region that cannot reach the N+1 point
// floor even after growing its virtual region to the full domain. It is
// fatal to the build and not retried.
type ErrInsufficientData struct {
	Region geom.Rect
	Points int
	Need   int
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("insufficient data: region %s holds %d points after maximal growth, need %d", e.Region, e.Points, e.Need)
}

// ErrDegenerate indicates a rank-deficient point set that growth could not
// resolve within the domain.
type ErrDegenerate struct {
	Region geom.Rect
	Points int
	cause  error
}

func (e *ErrDegenerate) Error() string {
	return fmt.Sprintf("degenerate region %s with %d points: %v", e.Region, e.Points, e.cause)
}

func (e *ErrDegenerate) Unwrap() error { return e.cause }

// Stats summarizes the work of one build.
type Stats struct {
	Leaves            int
	MaxDepth          int
	Fits              int
	GrowRounds        int
	DegenerateRetries int
}

// Result is a finished partition: the queryable index plus build statistics.
type Result struct {
	Index *tile.Index
	Stats Stats
}

// Build partitions the store's bounding domain under the given
// configuration. The context is checked at every recursion step; on
// cancellation partial results are discarded and the build must be re-run
// from scratch.
func Build(ctx context.Context, store *sample.Store, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()

	need := store.Dim() + 1
	if store.Len() < need {
		return nil, &ErrInsufficientData{
			Region: store.Bounds().Clone(),
			Points: store.Len(),
			Need:   need,
		}
	}

	b := &builder{
		store:  store,
		engine: membership.NewEngine(store),
		cfg:    cfg,
		domain: store.Bounds(),
		need:   need,
	}
	if cfg.Parallelism > 1 {
		// The calling goroutine counts as one worker; the semaphore
		// only guards the extra ones.
		b.sem = semaphore.NewWeighted(int64(cfg.Parallelism - 1))
	}

	root, err := b.build(ctx, store.Bounds().Clone(), 0)
	if err != nil {
		return nil, err
	}

	nodes, tiles := flatten(root)
	index, err := tile.NewIndex(store.Bounds().Clone(), nodes, tiles)
	if err != nil {
		return nil, err
	}

	return &Result{
		Index: index,
		Stats: Stats{
			Leaves:            len(tiles),
			MaxDepth:          int(b.maxDepth.Load()),
			Fits:              int(b.fits.Load()),
			GrowRounds:        int(b.growRounds.Load()),
			DegenerateRetries: int(b.degenRetries.Load()),
		},
	}, nil
}

type builder struct {
	store  *sample.Store
	engine *membership.Engine
	cfg    Config
	domain geom.Rect
	need   int
	sem    *semaphore.Weighted

	fits         atomic.Int64
	growRounds   atomic.Int64
	degenRetries atomic.Int64
	maxDepth     atomic.Int64
}

// buildNode is transient recursion state. Internal candidates and their
// fits are discarded; only the tree shape and the leaves survive.
type buildNode struct {
	axis  int32
	split float64
	left  *buildNode
	right *buildNode
	leaf  *tile.Tile
}

func (b *builder) build(ctx context.Context, real geom.Rect, depth int) (*buildNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d := int64(depth); d > b.maxDepth.Load() {
		b.maxDepth.Store(d)
	}

	state, err := b.growAndFit(ctx, real)
	if err != nil {
		return nil, err
	}

	if state.res.RSS <= b.cfg.ErrorThreshold || depth >= b.cfg.MaxDepth || b.atMinExtent(real) {
		return &buildNode{axis: tile.LeafNone, leaf: b.accept(real, depth, state)}, nil
	}

	axis := real.WidestAxis()
	at := real.Midpoint(axis)
	lo, hi := real.Split(axis, at)

	var (
		left, right *buildNode
		lerr, rerr  error
	)
	if b.sem != nil && b.sem.TryAcquire(1) {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer b.sem.Release(1)
			left, lerr = b.build(ctx, lo, depth+1)
		}()
		right, rerr = b.build(ctx, hi, depth+1)
		wg.Wait()
	} else {
		left, lerr = b.build(ctx, lo, depth+1)
		right, rerr = b.build(ctx, hi, depth+1)
	}
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}

	return &buildNode{axis: int32(axis), split: at, left: left, right: right}, nil
}

// growAndFit grows the candidate's virtual region until a non-degenerate
// fit succeeds, or fails once the whole domain cannot provide one.
func (b *builder) growAndFit(ctx context.Context, real geom.Rect) (*tileState, error) {
	st, err := b.grow(real)
	if err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := b.fit(st.members)
		if err == nil {
			st.res = res
			return st, nil
		}

		var degen *fit.ErrDegenerate
		if !errors.As(err, &degen) {
			return nil, err
		}

		// Rank deficiency is recovered locally by borrowing more
		// neighbors, until the virtual region saturates the domain.
		grown, ok := b.expandOnce(st.virtual)
		if !ok {
			return nil, &ErrDegenerate{Region: real.Clone(), Points: st.count(), cause: err}
		}
		b.degenRetries.Add(1)
		st.virtual = grown
		st.members = b.engine.Members(st.virtual)
	}
}

// accept runs the shrinker pass over a stopped candidate and freezes it
// into a leaf tile. IDs are assigned later, during flattening.
func (b *builder) accept(real geom.Rect, depth int, st *tileState) *tile.Tile {
	b.shrink(real, st)
	return &tile.Tile{
		Real:        real,
		Virtual:     st.virtual,
		Members:     st.members,
		MemberCount: st.count(),
		Plane:       st.res.Plane,
		RSS:         st.res.RSS,
		Depth:       depth,
	}
}

func (b *builder) atMinExtent(real geom.Rect) bool {
	for a := 0; a < real.Dim(); a++ {
		if real.Extent(a) > b.cfg.MinExtent {
			return false
		}
	}
	return true
}

func (b *builder) fit(members *roaring.Bitmap) (*fit.Result, error) {
	b.fits.Add(1)

	ids := members.ToArray()
	dim := b.store.Dim()
	coords := make([]float64, 0, len(ids)*dim)
	values := make([]float64, 0, len(ids))
	for _, id := range ids {
		coords = append(coords, b.store.Coord(int(id))...)
		values = append(values, b.store.Value(int(id)))
	}
	return fit.Fit(dim, coords, values)
}

// flatten walks the finished tree in preorder, producing the node arena and
// the ID-ordered leaf tiles. Preorder makes IDs a pure function of the
// partition shape, independent of build scheduling.
func flatten(root *buildNode) ([]tile.Node, []*tile.Tile) {
	var nodes []tile.Node
	var tiles []*tile.Tile

	var walk func(n *buildNode) int32
	walk = func(n *buildNode) int32 {
		idx := int32(len(nodes))
		nodes = append(nodes, tile.Node{})

		if n.leaf != nil {
			n.leaf.ID = uint32(len(tiles))
			tiles = append(tiles, n.leaf)
			nodes[idx] = tile.Node{Axis: tile.LeafNone, Leaf: int32(n.leaf.ID)}
			return idx
		}

		left := walk(n.left)
		right := walk(n.right)
		nodes[idx] = tile.Node{
			Axis:  n.axis,
			Split: n.split,
			Left:  left,
			Right: right,
			Leaf:  tile.LeafNone,
		}
		return idx
	}
	walk(root)

	return nodes, tiles
}
