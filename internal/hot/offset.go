// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package hot implements the hot storage tier: a write-once,
// memory-mapped file of fixed-size account metas, each followed by the
// account's data and optional fields.
//
// A file is laid out as:
//
//	[meta + account block]... [index block] [owners block] [footer]
//
// Account blocks don't record their own length.  It is derived from the
// offset of the next account in the index block, or from the start of the
// index block for the last account.
package hot

import "math"

const (
	// Alignment is the byte alignment of every account meta.
	Alignment = 8

	// MaxOffset is the largest byte offset an Offset can hold.
	MaxOffset = math.MaxUint32 * Alignment
)

// Offset is the position of an account meta in a hot file, stored as a
// multiple of Alignment so that 32 bits can address 32 GiB.
type Offset uint32

// NewOffset encodes the byte offset raw.
func NewOffset(raw uint64) (Offset, error) {
	if raw > MaxOffset {
		return 0, &OffsetOutOfBoundsError{Offset: raw, Max: MaxOffset}
	}
	if raw%Alignment != 0 {
		return 0, &OffsetAlignmentError{Offset: raw, Alignment: Alignment}
	}
	return Offset(raw / Alignment), nil
}

// Bytes returns the byte offset o refers to.
func (o Offset) Bytes() uint64 {
	return uint64(o) * Alignment
}

// paddingFor returns the number of zero bytes needed after n bytes of
// data to reach the next Alignment boundary.
func paddingFor(n int) uint8 {
	return uint8((Alignment - n%Alignment) % Alignment)
}
