// Copyright 2022 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package index reads and writes the index block of a storage file,
// which maps an account's ordinal to its address and to the encoded
// offset of its metadata record.
//
// The AddressesThenOffsets layout is:
//
//	┌──────────────────────────┐ IndexBlockOffset
//	│ address[0..count] (32B)  │
//	├──────────────────────────┤
//	│ offset[0..count]  (u32)  │
//	└──────────────────────────┘ <= OwnersBlockOffset
package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bpowers/hotstore/internal/address"
	"github.com/bpowers/hotstore/internal/footer"
	"github.com/bpowers/hotstore/internal/ondisk"
)

const offsetSize = 4

var (
	ErrUnknownFormat = errors.New("index: unknown index block format")
	ErrOutOfRange    = errors.New("index: ordinal out of range")
)

// Entry is one account's row in the index block.
type Entry struct {
	Address address.Address
	// Offset is the account's encoded (alignment-divided) offset.
	Offset uint32
}

// Size returns the number of bytes an index block of n entries occupies.
func Size(format footer.IndexBlockFormat, n int) (int, error) {
	if format != footer.AddressesThenOffsets {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	return n * (address.Size + offsetSize), nil
}

// Write appends the index block for entries to w, returning the number of
// bytes written.
func Write(w io.Writer, format footer.IndexBlockFormat, entries []Entry) (int, error) {
	if format != footer.AddressesThenOffsets {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}

	written := 0
	for i := range entries {
		n, err := w.Write(entries[i].Address[:])
		written += n
		if err != nil {
			return written, fmt.Errorf("write address %d: %w", i, err)
		}
	}
	var buf [offsetSize]byte
	for i := range entries {
		binary.LittleEndian.PutUint32(buf[:], entries[i].Offset)
		n, err := w.Write(buf[:])
		written += n
		if err != nil {
			return written, fmt.Errorf("write offset %d: %w", i, err)
		}
	}
	return written, nil
}

// region returns the bytes an index block may occupy: everything before
// the owners block.
func region(mapped []byte, f *footer.Footer, ordinal uint32) ([]byte, error) {
	if f.IndexBlockFormat != footer.AddressesThenOffsets {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f.IndexBlockFormat)
	}
	if ordinal >= f.AccountEntryCount {
		return nil, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, ordinal, f.AccountEntryCount)
	}
	limit := f.OwnersBlockOffset
	if limit > uint64(len(mapped)) {
		limit = uint64(len(mapped))
	}
	return mapped[:limit], nil
}

// AccountOffset returns the encoded offset of the account at ordinal.
func AccountOffset(mapped []byte, f *footer.Footer, ordinal uint32) (uint32, error) {
	r, err := region(mapped, f, ordinal)
	if err != nil {
		return 0, err
	}
	off := f.IndexBlockOffset +
		uint64(f.AccountEntryCount)*address.Size +
		uint64(ordinal)*offsetSize
	v, err := ondisk.U32(r, off)
	if err != nil {
		return 0, fmt.Errorf("account offset %d: %w", ordinal, err)
	}
	return v, nil
}

// AccountAddress returns the address of the account at ordinal.
func AccountAddress(mapped []byte, f *footer.Footer, ordinal uint32) (address.Address, error) {
	r, err := region(mapped, f, ordinal)
	if err != nil {
		return address.Address{}, err
	}
	off := f.IndexBlockOffset + uint64(ordinal)*address.Size
	b, err := ondisk.Slice(r, off, address.Size)
	if err != nil {
		return address.Address{}, fmt.Errorf("account address %d: %w", ordinal, err)
	}
	return address.Address(b), nil
}

// Offsets returns a view of every encoded offset in the index block.
func Offsets(mapped []byte, f *footer.Footer) (ondisk.U32Slice, error) {
	if f.IndexBlockFormat != footer.AddressesThenOffsets {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f.IndexBlockFormat)
	}
	limit := f.OwnersBlockOffset
	if limit > uint64(len(mapped)) {
		limit = uint64(len(mapped))
	}
	start := f.IndexBlockOffset + uint64(f.AccountEntryCount)*address.Size
	b, err := ondisk.Slice(mapped[:limit], start, uint64(f.AccountEntryCount)*offsetSize)
	if err != nil {
		return nil, fmt.Errorf("offsets: %w", err)
	}
	return ondisk.U32Slice(b), nil
}
