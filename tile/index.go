package tile

import (
	"fmt"

	"github.com/hupe1980/tilefit/geom"
)

// LeafNone marks a Node without a leaf reference.
const LeafNone = int32(-1)

// Node is one record of the partition-tree arena. Internal nodes carry the
// split axis and coordinate plus arena indices of their children; leaves
// reference a tile by ID. Only the tree shape survives partitioning; the
// transient per-node fit state of internal candidates does not.
type Node struct {
	// Axis is the split axis, or -1 for a leaf.
	Axis int32
	// Split is the split coordinate on Axis. The lower child owns
	// [min, Split), the upper child [Split, max).
	Split float64
	// Left and Right are arena indices of the children (internal nodes).
	Left  int32
	Right int32
	// Leaf is the tile ID for leaves, LeafNone otherwise.
	Leaf int32
}

// IsLeaf reports whether the node references a tile.
func (n Node) IsLeaf() bool { return n.Axis < 0 }

// ErrOutOfDomain indicates a query coordinate outside the bounding domain.
// It is per-call and recoverable; the index remains valid.
type ErrOutOfDomain struct {
	Coordinate []float64
	Axis       int
}

func (e *ErrOutOfDomain) Error() string {
	return fmt.Sprintf("coordinate %v outside domain on axis %d", e.Coordinate, e.Axis)
}

// ErrDimensionMismatch indicates a query of the wrong dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Index is the finished, read-only collection of leaf tiles plus the
// partition tree used for point location. It is safe for concurrent use.
type Index struct {
	bounds geom.Rect
	nodes  []Node
	tiles  []*Tile
}

// NewIndex assembles an index from a node arena (rooted at nodes[0]) and
// the leaf tiles it references.
func NewIndex(bounds geom.Rect, nodes []Node, tiles []*Tile) (*Index, error) {
	if len(nodes) == 0 || len(tiles) == 0 {
		return nil, fmt.Errorf("tile: empty index")
	}
	for i, n := range nodes {
		if n.IsLeaf() {
			if n.Leaf < 0 || int(n.Leaf) >= len(tiles) {
				return nil, fmt.Errorf("tile: node %d references unknown tile %d", i, n.Leaf)
			}
			continue
		}
		if int(n.Axis) >= bounds.Dim() {
			return nil, fmt.Errorf("tile: node %d splits unknown axis %d", i, n.Axis)
		}
		if n.Left <= 0 || int(n.Left) >= len(nodes) || n.Right <= 0 || int(n.Right) >= len(nodes) {
			return nil, fmt.Errorf("tile: node %d has invalid children (%d, %d)", i, n.Left, n.Right)
		}
	}
	return &Index{bounds: bounds, nodes: nodes, tiles: tiles}, nil
}

// Bounds returns the bounding domain of the index.
func (ix *Index) Bounds() geom.Rect { return ix.bounds }

// Dim returns the dimensionality of the index.
func (ix *Index) Dim() int { return ix.bounds.Dim() }

// Len returns the number of leaf tiles.
func (ix *Index) Len() int { return len(ix.tiles) }

// Tiles returns the leaf tiles in ID order.
// The returned slice is owned by the index and must not be modified.
func (ix *Index) Tiles() []*Tile { return ix.tiles }

// Tile returns the tile with the given ID.
func (ix *Index) Tile(id uint32) (*Tile, error) {
	if int(id) >= len(ix.tiles) {
		return nil, fmt.Errorf("tile: unknown tile %d", id)
	}
	return ix.tiles[id], nil
}

// Nodes returns the node arena, rooted at index 0.
// The returned slice is owned by the index and must not be modified.
func (ix *Index) Nodes() []Node { return ix.nodes }

// Locate returns the ID of the unique tile owning x. Ownership follows the
// [min, max) convention per axis; the outermost max edge of the domain is
// inclusive.
func (ix *Index) Locate(x []float64) (uint32, error) {
	if err := ix.checkQuery(x); err != nil {
		return 0, err
	}

	n := ix.nodes[0]
	for !n.IsLeaf() {
		if x[n.Axis] < n.Split {
			n = ix.nodes[n.Left]
		} else {
			n = ix.nodes[n.Right]
		}
	}
	return uint32(n.Leaf), nil
}

// Evaluate locates the tile owning x and applies its plane.
func (ix *Index) Evaluate(x []float64) (float64, error) {
	id, err := ix.Locate(x)
	if err != nil {
		return 0, err
	}
	return ix.tiles[id].Evaluate(x), nil
}

// checkQuery validates a query coordinate against the domain. Both edges
// are inclusive here: the outermost max edge belongs to the domain.
func (ix *Index) checkQuery(x []float64) error {
	if len(x) != ix.bounds.Dim() {
		return &ErrDimensionMismatch{Expected: ix.bounds.Dim(), Actual: len(x)}
	}
	for a := range x {
		if x[a] < ix.bounds.Min[a] || x[a] > ix.bounds.Max[a] {
			coord := make([]float64, len(x))
			copy(coord, x)
			return &ErrOutOfDomain{Coordinate: coord, Axis: a}
		}
	}
	return nil
}
