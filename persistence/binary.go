package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"
)

// BinaryWriter writes snapshot sections in little-endian binary format.
type BinaryWriter struct {
	w         io.Writer
	byteOrder binary.ByteOrder
}

// NewBinaryWriter creates a new binary writer.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{
		w:         w,
		byteOrder: binary.LittleEndian, // Native on x86/ARM
	}
}

// WriteHeader writes the file header, stamping magic and version.
func (bw *BinaryWriter) WriteHeader(header *FileHeader) error {
	header.Magic = MagicNumber
	header.Version = Version
	return binary.Write(bw.w, bw.byteOrder, header)
}

// WriteUint32 writes a single uint32.
func (bw *BinaryWriter) WriteUint32(v uint32) error {
	return binary.Write(bw.w, bw.byteOrder, v)
}

// WriteFloat64 writes a single float64.
func (bw *BinaryWriter) WriteFloat64(v float64) error {
	return binary.Write(bw.w, bw.byteOrder, v)
}

// WriteInt32 writes a single int32.
func (bw *BinaryWriter) WriteInt32(v int32) error {
	return binary.Write(bw.w, bw.byteOrder, v)
}

// WriteFloat64Slice writes a float64 slice as raw bytes (zero-copy).
// Safety: validates alignment before the unsafe conversion.
func (bw *BinaryWriter) WriteFloat64Slice(vec []float64) error {
	if len(vec) == 0 {
		return nil
	}
	if err := validateFloat64SliceAlignment(vec); err != nil {
		return err
	}
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*8)
	_, err := bw.w.Write(byteSlice)
	return err
}

// WriteInt32Slice writes an int32 slice as raw bytes.
// Safety: validates alignment before the unsafe conversion.
func (bw *BinaryWriter) WriteInt32Slice(slice []int32) error {
	if len(slice) == 0 {
		return nil
	}
	if err := validateInt32SliceAlignment(slice); err != nil {
		return err
	}
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&slice[0])), len(slice)*4)
	_, err := bw.w.Write(byteSlice)
	return err
}

// BinaryReader reads snapshot sections from binary format.
type BinaryReader struct {
	r         io.Reader
	byteOrder binary.ByteOrder
}

// NewBinaryReader creates a new binary reader.
func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{
		r:         r,
		byteOrder: binary.LittleEndian,
	}
}

// ReadHeader reads and validates the file header.
func (br *BinaryReader) ReadHeader() (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(br.r, br.byteOrder, &header); err != nil {
		return nil, err
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	return &header, nil
}

// ReadUint32 reads a single uint32.
func (br *BinaryReader) ReadUint32() (uint32, error) {
	var v uint32
	err := binary.Read(br.r, br.byteOrder, &v)
	return v, err
}

// ReadFloat64 reads a single float64.
func (br *BinaryReader) ReadFloat64() (float64, error) {
	var v float64
	err := binary.Read(br.r, br.byteOrder, &v)
	return v, err
}

// ReadInt32 reads a single int32.
func (br *BinaryReader) ReadInt32() (int32, error) {
	var v int32
	err := binary.Read(br.r, br.byteOrder, &v)
	return v, err
}

// ReadFloat64Slice reads count float64 values.
func (br *BinaryReader) ReadFloat64Slice(count int) ([]float64, error) {
	if count == 0 {
		return nil, nil
	}
	vec := make([]float64, count)
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), count*8)
	if _, err := io.ReadFull(br.r, byteSlice); err != nil {
		return nil, err
	}
	return vec, nil
}

// ReadInt32Slice reads count int32 values.
func (br *BinaryReader) ReadInt32Slice(count int) ([]int32, error) {
	if count == 0 {
		return nil, nil
	}
	slice := make([]int32, count)
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&slice[0])), count*4)
	if _, err := io.ReadFull(br.r, byteSlice); err != nil {
		return nil, err
	}
	return slice, nil
}

// SaveToFile writes a snapshot to filename atomically: the content goes to
// a temp file in the same directory, is fsynced, then renamed over the
// target.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	// Match typical file permissions (best-effort).
	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}

// LoadFromFile reads a snapshot from filename.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return readFunc(bufio.NewReaderSize(f, 256*1024))
}
