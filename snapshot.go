package tilefit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/tilefit/blobstore"
	"github.com/hupe1980/tilefit/fit"
	"github.com/hupe1980/tilefit/geom"
	"github.com/hupe1980/tilefit/persistence"
	"github.com/hupe1980/tilefit/tile"
)

// WriteSnapshot serializes the model to w in the binary snapshot format:
// a fixed 64-byte header followed by a checksummed, optionally compressed
// payload. The compression is taken from the save options.
//
// A round-trip through WriteSnapshot and ReadSnapshot reproduces the model
// exactly: every prediction of the loaded model is bitwise identical to
// the original's.
func (m *Model) WriteSnapshot(w io.Writer, compression persistence.Compression) (int64, error) {
	payload, err := m.encodePayload()
	if err != nil {
		return 0, err
	}

	stored, err := persistence.Compress(compression, payload)
	if err != nil {
		return 0, err
	}

	header := &persistence.FileHeader{
		Dimension:   uint32(m.index.Dim()),
		Compression: uint8(compression),
		LeafCount:   uint32(m.index.Len()),
		NodeCount:   uint32(len(m.index.Nodes())),
		SampleCount: m.samples,
		Fingerprint: m.fingerprint,
		PayloadSize: uint64(len(stored)),
		Checksum:    persistence.Checksum(stored),
	}

	bw := persistence.NewBinaryWriter(w)
	if err := bw.WriteHeader(header); err != nil {
		return 0, err
	}
	n, err := w.Write(stored)
	if err != nil {
		return 0, err
	}
	return 64 + int64(n), nil
}

// ReadSnapshot deserializes a model written by WriteSnapshot.
func ReadSnapshot(r io.Reader, optFns ...Option) (*Model, error) {
	o := applyOptions(optFns)

	br := persistence.NewBinaryReader(r)
	header, err := br.ReadHeader()
	if err != nil {
		return nil, err
	}

	stored := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, err
	}
	if persistence.Checksum(stored) != header.Checksum {
		return nil, persistence.ErrChecksum
	}

	payload, err := persistence.Decompress(persistence.Compression(header.Compression), stored)
	if err != nil {
		return nil, err
	}

	m, err := decodePayload(header, payload)
	if err != nil {
		return nil, err
	}
	m.codec = o.codec
	m.metrics = o.metricsCollector
	m.logger = o.logger
	return m, nil
}

// encodePayload renders the uncompressed payload: the build configuration,
// the bounding domain, the node arena, and the leaf tiles, all in
// little-endian order.
func (m *Model) encodePayload() ([]byte, error) {
	var buf bytes.Buffer
	bw := persistence.NewBinaryWriter(&buf)

	if err := bw.WriteFloat64(m.config.ErrorThreshold); err != nil {
		return nil, err
	}
	if err := bw.WriteFloat64(m.config.MinExtent); err != nil {
		return nil, err
	}
	if err := bw.WriteFloat64(m.growStep); err != nil {
		return nil, err
	}
	if err := bw.WriteUint32(uint32(m.config.MaxDepth)); err != nil {
		return nil, err
	}

	bounds := m.index.Bounds()
	if err := bw.WriteFloat64Slice(bounds.Min); err != nil {
		return nil, err
	}
	if err := bw.WriteFloat64Slice(bounds.Max); err != nil {
		return nil, err
	}

	for _, n := range m.index.Nodes() {
		if err := bw.WriteInt32(n.Axis); err != nil {
			return nil, err
		}
		if err := bw.WriteFloat64(n.Split); err != nil {
			return nil, err
		}
		for _, v := range [...]int32{n.Left, n.Right, n.Leaf} {
			if err := bw.WriteInt32(v); err != nil {
				return nil, err
			}
		}
	}

	for _, t := range m.index.Tiles() {
		for _, vec := range [][]float64{t.Real.Min, t.Real.Max, t.Virtual.Min, t.Virtual.Max, t.Plane.Gradient} {
			if err := bw.WriteFloat64Slice(vec); err != nil {
				return nil, err
			}
		}
		if err := bw.WriteFloat64(t.Plane.Intercept); err != nil {
			return nil, err
		}
		if err := bw.WriteFloat64(t.RSS); err != nil {
			return nil, err
		}
		if err := bw.WriteUint32(uint32(t.MemberCount)); err != nil {
			return nil, err
		}
		if err := bw.WriteUint32(uint32(t.Depth)); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func decodePayload(header *persistence.FileHeader, payload []byte) (*Model, error) {
	dim := int(header.Dimension)
	if dim < 1 {
		return nil, fmt.Errorf("tilefit: snapshot has invalid dimension %d", dim)
	}

	br := persistence.NewBinaryReader(bytes.NewReader(payload))

	var cfg Config
	var err error
	if cfg.ErrorThreshold, err = br.ReadFloat64(); err != nil {
		return nil, err
	}
	if cfg.MinExtent, err = br.ReadFloat64(); err != nil {
		return nil, err
	}
	growStep, err := br.ReadFloat64()
	if err != nil {
		return nil, err
	}
	maxDepth, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	cfg.MaxDepth = int(maxDepth)

	min, err := br.ReadFloat64Slice(dim)
	if err != nil {
		return nil, err
	}
	max, err := br.ReadFloat64Slice(dim)
	if err != nil {
		return nil, err
	}
	bounds, err := geom.NewRect(min, max)
	if err != nil {
		return nil, err
	}

	nodes := make([]tile.Node, header.NodeCount)
	for i := range nodes {
		n := tile.Node{}
		if n.Axis, err = br.ReadInt32(); err != nil {
			return nil, err
		}
		if n.Split, err = br.ReadFloat64(); err != nil {
			return nil, err
		}
		if n.Left, err = br.ReadInt32(); err != nil {
			return nil, err
		}
		if n.Right, err = br.ReadInt32(); err != nil {
			return nil, err
		}
		if n.Leaf, err = br.ReadInt32(); err != nil {
			return nil, err
		}
		nodes[i] = n
	}

	tiles := make([]*tile.Tile, header.LeafCount)
	deepest := 0
	for i := range tiles {
		t := &tile.Tile{ID: uint32(i)}

		realMin, err := br.ReadFloat64Slice(dim)
		if err != nil {
			return nil, err
		}
		realMax, err := br.ReadFloat64Slice(dim)
		if err != nil {
			return nil, err
		}
		virtMin, err := br.ReadFloat64Slice(dim)
		if err != nil {
			return nil, err
		}
		virtMax, err := br.ReadFloat64Slice(dim)
		if err != nil {
			return nil, err
		}
		t.Real = geom.Rect{Min: realMin, Max: realMax}
		t.Virtual = geom.Rect{Min: virtMin, Max: virtMax}

		gradient, err := br.ReadFloat64Slice(dim)
		if err != nil {
			return nil, err
		}
		intercept, err := br.ReadFloat64()
		if err != nil {
			return nil, err
		}
		t.Plane = fit.Plane{Gradient: gradient, Intercept: intercept}

		if t.RSS, err = br.ReadFloat64(); err != nil {
			return nil, err
		}
		count, err := br.ReadUint32()
		if err != nil {
			return nil, err
		}
		t.MemberCount = int(count)
		depth, err := br.ReadUint32()
		if err != nil {
			return nil, err
		}
		t.Depth = int(depth)
		if t.Depth > deepest {
			deepest = t.Depth
		}

		tiles[i] = t
	}

	index, err := tile.NewIndex(bounds, nodes, tiles)
	if err != nil {
		return nil, err
	}

	return &Model{
		index:       index,
		config:      cfg,
		growStep:    growStep,
		samples:     header.SampleCount,
		fingerprint: header.Fingerprint,
		stats: Stats{
			Leaves:   len(tiles),
			MaxDepth: deepest,
		},
	}, nil
}

// SaveToFile writes the model snapshot to filename atomically.
func (m *Model) SaveToFile(ctx context.Context, filename string, optFns ...Option) error {
	o := applyOptions(optFns)

	start := time.Now()
	var size int64
	err := persistence.SaveToFile(filename, func(w io.Writer) error {
		var werr error
		size, werr = m.WriteSnapshot(w, o.compression)
		return werr
	})

	m.logger.LogSnapshot(ctx, "save", filename, size, err)
	m.metrics.RecordSnapshot("save", size, time.Since(start), err)
	return err
}

// LoadFromFile reads a model snapshot written by SaveToFile.
func LoadFromFile(ctx context.Context, filename string, optFns ...Option) (*Model, error) {
	o := applyOptions(optFns)

	start := time.Now()
	var m *Model
	err := persistence.LoadFromFile(filename, func(r io.Reader) error {
		var rerr error
		m, rerr = ReadSnapshot(r, optFns...)
		return rerr
	})

	var size int64
	if m != nil {
		size = int64(len(m.index.Tiles()))
	}
	o.logger.LogSnapshot(ctx, "load", filename, size, err)
	o.metricsCollector.RecordSnapshot("load", size, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SaveToBlob writes the model snapshot to a blob store.
func (m *Model) SaveToBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) error {
	o := applyOptions(optFns)

	start := time.Now()
	var buf bytes.Buffer
	size, err := m.WriteSnapshot(&buf, o.compression)
	if err == nil {
		err = store.Put(ctx, name, buf.Bytes())
	}

	m.logger.LogSnapshot(ctx, "save", name, size, err)
	m.metrics.RecordSnapshot("save", size, time.Since(start), err)
	return err
}

// LoadFromBlob reads a model snapshot from a blob store.
func LoadFromBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Model, error) {
	o := applyOptions(optFns)

	start := time.Now()
	var m *Model
	b, err := store.Open(ctx, name)
	if err == nil {
		m, err = ReadSnapshot(blobstore.NewReader(b), optFns...)
		if cerr := b.Close(); err == nil {
			err = cerr
		}
	}

	o.logger.LogSnapshot(ctx, "load", name, 0, err)
	o.metricsCollector.RecordSnapshot("load", 0, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// exportModel is the JSON shape of a model export.
type exportModel struct {
	Dimension      int          `json:"dimension"`
	ErrorThreshold float64      `json:"error_threshold"`
	MaxDepth       int          `json:"max_depth"`
	MinExtent      float64      `json:"min_extent"`
	GrowStep       float64      `json:"grow_step"`
	Samples        uint64       `json:"samples"`
	Fingerprint    uint64       `json:"fingerprint"`
	DomainMin      []float64    `json:"domain_min"`
	DomainMax      []float64    `json:"domain_max"`
	Tiles          []exportTile `json:"tiles"`
}

type exportTile struct {
	ID          uint32    `json:"id"`
	RealMin     []float64 `json:"real_min"`
	RealMax     []float64 `json:"real_max"`
	VirtualMin  []float64 `json:"virtual_min"`
	VirtualMax  []float64 `json:"virtual_max"`
	Gradient    []float64 `json:"gradient"`
	Intercept   float64   `json:"intercept"`
	RSS         float64   `json:"rss"`
	MemberCount int       `json:"member_count"`
	Depth       int       `json:"depth"`
}

// ExportJSON renders the model with the configured codec for inspection
// and interchange. The export is lossless for tile geometry and planes but
// is not a snapshot; use WriteSnapshot for persistence.
func (m *Model) ExportJSON() ([]byte, error) {
	bounds := m.index.Bounds()
	out := exportModel{
		Dimension:      m.index.Dim(),
		ErrorThreshold: m.config.ErrorThreshold,
		MaxDepth:       m.config.MaxDepth,
		MinExtent:      m.config.MinExtent,
		GrowStep:       m.growStep,
		Samples:        m.samples,
		Fingerprint:    m.fingerprint,
		DomainMin:      bounds.Min,
		DomainMax:      bounds.Max,
		Tiles:          make([]exportTile, 0, m.index.Len()),
	}
	for _, t := range m.index.Tiles() {
		out.Tiles = append(out.Tiles, exportTile{
			ID:          t.ID,
			RealMin:     t.Real.Min,
			RealMax:     t.Real.Max,
			VirtualMin:  t.Virtual.Min,
			VirtualMax:  t.Virtual.Max,
			Gradient:    t.Plane.Gradient,
			Intercept:   t.Plane.Intercept,
			RSS:         t.RSS,
			MemberCount: t.MemberCount,
			Depth:       t.Depth,
		})
	}
	return m.codec.Marshal(out)
}
