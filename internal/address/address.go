// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package address defines the 32-byte account and owner address type
// stored in hot account files.
package address

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the encoded size of an Address in bytes.
const Size = 32

// Address identifies an account or an account owner.
type Address [Size]byte

// Zero is the all-zero address.
var Zero Address

// FromBytes copies b into an Address.  b must be exactly Size bytes.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("address: expected %d bytes, got %d", Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Parse decodes the base58 text form of an address.
func Parse(s string) (Address, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("base58.Decode(%q): %w", s, err)
	}
	return FromBytes(b)
}

// String returns the base58 text form of the address.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Compare orders addresses bytewise, returning -1, 0 or +1.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}
