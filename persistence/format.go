package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies tilefit snapshot files (ASCII: "TIL1").
	MagicNumber = 0x54494C31
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000
)

var (
	ErrInvalidMagic    = errors.New("invalid magic number")
	ErrInvalidVersion  = errors.New("unsupported version")
	ErrChecksum        = errors.New("payload checksum mismatch")
	ErrInvalidCompress = errors.New("unknown compression")
)

// Compression selects the payload compression of a snapshot.
type Compression uint8

const (
	// CompressionNone stores the payload raw.
	CompressionNone Compression = iota
	// CompressionZstd compresses the payload with zstd.
	CompressionZstd
	// CompressionLZ4 compresses the payload with lz4.
	CompressionLZ4
)

// String returns the canonical name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression resolves a compression by its canonical name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCompress, name)
	}
}

// FileHeader is the 64-byte header at the start of every snapshot file.
// All fields are little-endian.
type FileHeader struct {
	Magic       uint32 // 0x54494C31 ("TIL1")
	Version     uint32 // File format version
	Dimension   uint32 // Independent-variable dimensionality N
	Compression uint8  // Payload compression
	Padding1    [3]byte
	LeafCount   uint32 // Number of leaf tiles
	NodeCount   uint32 // Number of partition-tree nodes
	SampleCount uint64 // Samples the model was built from
	Fingerprint uint64 // xxhash digest of the source sample store
	PayloadSize uint64 // Stored (possibly compressed) payload bytes
	Checksum    uint32 // CRC32 of the stored payload
	Reserved    [12]byte
}
