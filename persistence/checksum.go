package persistence

import (
	"hash/crc32"
)

// Snapshot payloads carry a CRC32 (IEEE polynomial): fast, hardware
// accelerated, and good enough for detecting storage corruption. It is not
// cryptographically secure and does not detect tampering.

// CRC32Table is the IEEE polynomial table for checksum computation.
var CRC32Table = crc32.MakeTable(crc32.IEEE)

// Checksum computes the CRC32 checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, CRC32Table)
}
