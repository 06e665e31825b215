// Package tile defines the tiles of an accepted partition and the queryable
// index built over them.
package tile

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/tilefit/fit"
	"github.com/hupe1980/tilefit/geom"
)

// Tile is one leaf of the accepted partition: an exclusive real region, the
// (possibly larger) virtual region its fit was gathered from, the member
// sample set and the fitted plane. Tiles are immutable once accepted into
// an Index.
type Tile struct {
	// ID is the dense leaf identifier within the index.
	ID uint32

	// Real is the exclusive region this tile owns in the final partition.
	// The real regions of all tiles cover the domain exactly, without
	// overlap, under the [min, max) ownership convention.
	Real geom.Rect

	// Virtual is the region the fit was gathered from. It covers Real
	// componentwise and equals it when Real alone held enough points.
	Virtual geom.Rect

	// Members holds the indices of the samples inside Virtual.
	// May be nil for tiles reconstructed from a snapshot.
	Members *roaring.Bitmap

	// MemberCount is the cardinality of the member set. It is preserved
	// through serialization even though Members itself is not.
	MemberCount int

	// Plane is the fitted affine function for this tile.
	Plane fit.Plane

	// RSS is the residual sum of squares of the accepted fit.
	RSS float64

	// Depth is the recursion depth at which the tile was accepted.
	Depth int
}

// Evaluate applies the tile's plane to x.
func (t *Tile) Evaluate(x []float64) float64 { return t.Plane.Evaluate(x) }
