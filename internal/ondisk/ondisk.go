// Copyright 2021 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package ondisk reads fixed-layout little-endian values out of byte
// slices that are usually backed by a read-only mmap.  Every accessor
// is bounds checked and returns ErrOutOfBounds rather than panicking,
// as the bytes come from a file we don't trust.
package ondisk

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("ondisk: out of bounds")

// Slice returns b[off:off+n] without copying.
func Slice(b []byte, off, n uint64) ([]byte, error) {
	bLen := uint64(len(b))
	// written to avoid overflow in off+n
	if n > bLen || off > bLen-n {
		return nil, fmt.Errorf("%w: off %d + len %d beyond bounds (%d)", ErrOutOfBounds, off, n, bLen)
	}
	return b[off : off+n : off+n], nil
}

// U32 reads a little-endian uint32 at byte offset off.
func U32(b []byte, off uint64) (uint32, error) {
	s, err := Slice(b, off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

// U64 reads a little-endian uint64 at byte offset off.
func U64(b []byte, off uint64) (uint64, error) {
	s, err := Slice(b, off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

// U32Slice is a read-only view into a byte array as if it was []uint32
type U32Slice []byte

func (s U32Slice) Len() int {
	return len(s) / 4
}

func (s U32Slice) Get(i uint64) (uint32, error) {
	if i >= uint64(s.Len()) {
		return 0, fmt.Errorf("%w: element %d out of range (len %d)", ErrOutOfBounds, i, s.Len())
	}
	return binary.LittleEndian.Uint32(s[i*4 : i*4+4]), nil
}
