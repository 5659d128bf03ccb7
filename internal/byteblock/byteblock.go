// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package byteblock assembles an account block in memory before it is
// appended to a storage file.
package byteblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bpowers/hotstore/internal/meta"
	"github.com/bpowers/hotstore/internal/ondisk"
)

// Format identifies how the bytes of an account block are encoded.
type Format uint16

const (
	// AlignedRaw blocks are stored as-is; the hot tier only uses this.
	AlignedRaw Format = 0
	// Lz4 and Zstd are the compressed formats of colder tiers.  They are
	// recognized in footers but this package doesn't produce them.
	Lz4  Format = 1
	Zstd Format = 2
)

var ErrUnknownFormat = errors.New("byteblock: unsupported block format")

func (f Format) String() string {
	switch f {
	case AlignedRaw:
		return "aligned-raw"
	case Lz4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Format(%d)", uint16(f))
	}
}

// Writer sequentially builds a single block.  The zero value is not
// usable; use NewWriter.
type Writer struct {
	format Format
	buf    bytes.Buffer
}

func NewWriter(format Format) *Writer {
	return &Writer{format: format}
}

// Write appends raw bytes to the block.
func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *Writer) WriteU64(v uint64) (int, error) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return w.buf.Write(b[:])
}

// WriteOptionalFields appends the present optional fields in their
// canonical order.
func (w *Writer) WriteOptionalFields(o meta.OptionalFields) (int, error) {
	n := 0
	if o.RentEpoch != nil {
		written, err := w.WriteU64(*o.RentEpoch)
		n += written
		if err != nil {
			return n, err
		}
	}
	if o.AccountHash != nil {
		written, err := w.buf.Write(o.AccountHash[:])
		n += written
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Len is the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Finish returns the encoded block.  The Writer may be reused afterwards.
func (w *Writer) Finish() ([]byte, error) {
	defer w.buf.Reset()

	if w.format != AlignedRaw {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, w.format)
	}
	return bytes.Clone(w.buf.Bytes()), nil
}

// ReadU64 reads a little-endian u64 at off within a decoded block.
func ReadU64(block []byte, off int) (uint64, bool) {
	if off < 0 {
		return 0, false
	}
	v, err := ondisk.U64(block, uint64(off))
	return v, err == nil
}

// ReadHash reads an account hash at off within a decoded block.
func ReadHash(block []byte, off int) (meta.Hash, bool) {
	var h meta.Hash
	if off < 0 {
		return h, false
	}
	b, err := ondisk.Slice(block, uint64(off), meta.HashSize)
	if err != nil {
		return h, false
	}
	copy(h[:], b)
	return h, true
}
