// Copyright 2021 The hotstore Authors and Caleb Spare. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import "math/bits"

// Bitset is an in-memory bitmap that is conceptually similar to []bool, but more memory efficient.
// It is indexed by uint32 so it can track owner indices directly.
type Bitset struct {
	bits   []uint64
	length uint32
}

func getOffsets(off uint32) (sliceOff uint32, bitOff uint64) {
	sliceOff = off / 64
	bitOff = uint64(off) % 64
	return
}

// Set sets the bit at position `off` to 1.
func (b *Bitset) Set(off uint32) {
	if off >= b.length {
		return
	}
	sliceOff, bitOff := getOffsets(off)
	u64 := &b.bits[sliceOff]
	*u64 |= 1 << bitOff
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, u64 := range b.bits {
		n += bits.OnesCount64(u64)
	}
	return n
}

// New returns a new in-memory bitset of length bits, all clear.
func New(length uint32) *Bitset {
	sliceLen := (uint64(length) + 63) / 64
	return &Bitset{
		bits:   make([]uint64, sliceLen),
		length: length,
	}
}
