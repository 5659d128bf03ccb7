// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package meta describes the optional fields that may trail an
// account's data inside an account block, and the flags word that
// records which of them are present.
//
// Optional fields are stored back-to-back in a fixed order:
//
//	┌────────────────────┐
//	│ rent epoch  (u64)  │  if HasRentEpoch
//	├────────────────────┤
//	│ account hash (32B) │  if HasAccountHash
//	└────────────────────┘
//
// so both their combined size and each field's position are a pure
// function of the flags.
package meta

const (
	flagRentEpoch   = 1 << 0
	flagAccountHash = 1 << 1
	flagExecutable  = 1 << 2

	// RentEpochSize is the encoded size of the rent epoch field.
	RentEpochSize = 8
	// HashSize is the encoded size of the account hash field.
	HashSize = 32
)

// Hash is the account hash optional field.
type Hash [HashSize]byte

// Flags is a 32-bit word describing boolean account properties and the
// presence of each optional field.  Bits 3-31 are reserved.
type Flags uint32

func (f Flags) HasRentEpoch() bool   { return f&flagRentEpoch != 0 }
func (f Flags) HasAccountHash() bool { return f&flagAccountHash != 0 }
func (f Flags) Executable() bool     { return f&flagExecutable != 0 }

func (f Flags) with(bit Flags, on bool) Flags {
	if on {
		return f | bit
	}
	return f &^ bit
}

func (f Flags) WithRentEpoch(on bool) Flags   { return f.with(flagRentEpoch, on) }
func (f Flags) WithAccountHash(on bool) Flags { return f.with(flagAccountHash, on) }
func (f Flags) WithExecutable(on bool) Flags  { return f.with(flagExecutable, on) }

// Reserved returns the bits that no known flag uses.
func (f Flags) Reserved() uint32 {
	return uint32(f &^ (flagRentEpoch | flagAccountHash | flagExecutable))
}

// OptionalFields holds the values of the optional fields of one account.
// A nil pointer means the field is absent.
type OptionalFields struct {
	RentEpoch   *uint64
	AccountHash *Hash
}

// Size returns the number of bytes the present fields occupy on disk.
func (o OptionalFields) Size() int {
	n := 0
	if o.RentEpoch != nil {
		n += RentEpochSize
	}
	if o.AccountHash != nil {
		n += HashSize
	}
	return n
}

// Flags returns flags with the presence bits for o set.
func (o OptionalFields) Flags() Flags {
	var f Flags
	return f.WithRentEpoch(o.RentEpoch != nil).WithAccountHash(o.AccountHash != nil)
}

// SizeFromFlags returns the combined size of the optional fields flags
// says are present.
func SizeFromFlags(f Flags) int {
	n := 0
	if f.HasRentEpoch() {
		n += RentEpochSize
	}
	if f.HasAccountHash() {
		n += HashSize
	}
	return n
}

// RentEpochOffset is the position of the rent epoch relative to the
// start of the optional fields.
func RentEpochOffset(Flags) int {
	return 0
}

// AccountHashOffset is the position of the account hash relative to the
// start of the optional fields.
func AccountHashOffset(f Flags) int {
	off := RentEpochOffset(f)
	if f.HasRentEpoch() {
		off += RentEpochSize
	}
	return off
}
