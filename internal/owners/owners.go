// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package owners reads and writes the owners block of a storage file.
// Many accounts share an owner, so each distinct owner address is
// stored once and accounts refer to it by a small integer index.
package owners

import (
	"errors"
	"fmt"
	"io"

	"github.com/bpowers/hotstore/internal/address"
	"github.com/bpowers/hotstore/internal/footer"
	"github.com/bpowers/hotstore/internal/ondisk"
)

var (
	ErrUnknownFormat = errors.New("owners: unknown owners block format")
	ErrOutOfRange    = errors.New("owners: owner index out of range")
)

// Table deduplicates owner addresses during a write pass, handing out
// indices in first-seen order.
type Table struct {
	addrs []address.Address
	index map[address.Address]uint32
}

func NewTable() *Table {
	return &Table{index: make(map[address.Address]uint32)}
}

// Lookup returns the index of owner if it has been inserted.
func (t *Table) Lookup(owner address.Address) (uint32, bool) {
	i, ok := t.index[owner]
	return i, ok
}

// Insert returns the index of owner, adding it if it hasn't been seen.
func (t *Table) Insert(owner address.Address) uint32 {
	if i, ok := t.Lookup(owner); ok {
		return i
	}
	i := uint32(len(t.addrs))
	t.addrs = append(t.addrs, owner)
	t.index[owner] = i
	return i
}

func (t *Table) Len() int {
	return len(t.addrs)
}

// Addresses returns the owners in index order.  The slice must not be
// modified.
func (t *Table) Addresses() []address.Address {
	return t.addrs
}

// Write appends the owners block for addrs to w, returning the number of
// bytes written.
func Write(w io.Writer, format footer.OwnersBlockFormat, addrs []address.Address) (int, error) {
	if format != footer.AddressesOnly {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	written := 0
	for i := range addrs {
		n, err := w.Write(addrs[i][:])
		written += n
		if err != nil {
			return written, fmt.Errorf("write owner %d: %w", i, err)
		}
	}
	return written, nil
}

// OwnerAddress returns the owner stored at index i.
func OwnerAddress(mapped []byte, f *footer.Footer, i uint32) (address.Address, error) {
	if f.OwnersBlockFormat != footer.AddressesOnly {
		return address.Address{}, fmt.Errorf("%w: %d", ErrUnknownFormat, f.OwnersBlockFormat)
	}
	if i >= f.OwnerCount {
		return address.Address{}, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, i, f.OwnerCount)
	}
	// the owners block never extends into the footer
	region := mapped[:footer.Start(len(mapped))]
	b, err := ondisk.Slice(region, f.OwnersBlockOffset+uint64(i)*address.Size, address.Size)
	if err != nil {
		return address.Address{}, fmt.Errorf("owner %d: %w", i, err)
	}
	return address.Address(b), nil
}
