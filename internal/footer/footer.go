// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package footer encodes and decodes the fixed-size trailer at the end
// of every tiered account storage file.  The footer records where each
// block starts and which format each block uses, so readers only need
// to look at the last few bytes of a file to find everything else.
//
// The footer ends with a 24-byte tail that can be validated before
// anything else is trusted:
//
//	┌──────────────────────┐ len - Size
//	│ formats, counts,     │
//	│ block offsets,       │
//	│ addresses, checksum  │
//	├──────────────────────┤ len - 24
//	│ format version (u64) │
//	│ footer size    (u64) │
//	│ magic number   (u64) │
//	└──────────────────────┘ len
package footer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bpowers/hotstore/internal/address"
	"github.com/bpowers/hotstore/internal/byteblock"
)

const (
	MagicNumber   = 0x502A2AB5
	FormatVersion = 1
	// Size is the on-disk size of the footer, including its tail.
	Size     = 168
	tailSize = 8 + 8 + 8

	hashSize = 32
)

var ErrInvalidFooter = errors.New("invalid footer")

// AccountMetaFormat identifies the layout of per-account metadata records.
type AccountMetaFormat uint16

const (
	// Hot metadata records are the 16-byte hot-tier records.
	Hot AccountMetaFormat = 0
)

// OwnersBlockFormat identifies the layout of the owners block.
type OwnersBlockFormat uint16

const (
	// AddressesOnly stores each distinct owner address once, back-to-back.
	AddressesOnly OwnersBlockFormat = 0
)

// IndexBlockFormat identifies the layout of the index block.
type IndexBlockFormat uint16

const (
	// AddressesThenOffsets stores every account address, followed by every
	// account's encoded offset, both in ordinal order.
	AddressesThenOffsets IndexBlockFormat = 0
)

// Footer describes the blocks of a storage file.
type Footer struct {
	AccountMetaFormat  AccountMetaFormat
	OwnersBlockFormat  OwnersBlockFormat
	IndexBlockFormat   IndexBlockFormat
	AccountBlockFormat byteblock.Format

	AccountEntryCount    uint32
	AccountMetaEntrySize uint32
	AccountBlockSize     uint64

	OwnerCount     uint32
	OwnerEntrySize uint32

	IndexBlockOffset  uint64
	OwnersBlockOffset uint64

	MinAccountAddress address.Address
	MaxAccountAddress address.Address

	// Hash holds a checksum of the account blocks region; all-zero means
	// none was recorded.
	Hash [hashSize]byte

	FormatVersion uint64
	FooterSize    uint64
}

// New returns a footer with the version and size fields filled in.
func New() Footer {
	return Footer{
		FormatVersion: FormatVersion,
		FooterSize:    Size,
	}
}

// SetChecksum stores a 128-bit checksum in the first half of Hash.
func (f *Footer) SetChecksum(lo, hi uint64) {
	f.Hash = [hashSize]byte{}
	binary.LittleEndian.PutUint64(f.Hash[0:8], lo)
	binary.LittleEndian.PutUint64(f.Hash[8:16], hi)
}

// Checksum returns the recorded checksum, and false if none was recorded.
func (f *Footer) Checksum() (lo, hi uint64, ok bool) {
	if f.Hash == [hashSize]byte{} {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint64(f.Hash[0:8]), binary.LittleEndian.Uint64(f.Hash[8:16]), true
}

// MarshalTo encodes the footer into b, which must be at least Size bytes.
func (f *Footer) MarshalTo(b []byte) error {
	if len(b) < Size {
		return fmt.Errorf("footer buffer too short: %d < %d", len(b), Size)
	}
	b = b[:Size]

	binary.LittleEndian.PutUint16(b[0:], uint16(f.AccountMetaFormat))
	binary.LittleEndian.PutUint16(b[2:], uint16(f.OwnersBlockFormat))
	binary.LittleEndian.PutUint16(b[4:], uint16(f.IndexBlockFormat))
	binary.LittleEndian.PutUint16(b[6:], uint16(f.AccountBlockFormat))
	binary.LittleEndian.PutUint32(b[8:], f.AccountEntryCount)
	binary.LittleEndian.PutUint32(b[12:], f.AccountMetaEntrySize)
	binary.LittleEndian.PutUint64(b[16:], f.AccountBlockSize)
	binary.LittleEndian.PutUint32(b[24:], f.OwnerCount)
	binary.LittleEndian.PutUint32(b[28:], f.OwnerEntrySize)
	binary.LittleEndian.PutUint64(b[32:], f.IndexBlockOffset)
	binary.LittleEndian.PutUint64(b[40:], f.OwnersBlockOffset)
	copy(b[48:80], f.MinAccountAddress[:])
	copy(b[80:112], f.MaxAccountAddress[:])
	copy(b[112:144], f.Hash[:])
	binary.LittleEndian.PutUint64(b[144:], f.FormatVersion)
	binary.LittleEndian.PutUint64(b[152:], f.FooterSize)
	binary.LittleEndian.PutUint64(b[160:], MagicNumber)

	return nil
}

// WriteTo appends the encoded footer to w.
func (f *Footer) WriteTo(w io.Writer) (n int64, err error) {
	var buf [Size]byte
	if err = f.MarshalTo(buf[:]); err != nil {
		return 0, err
	}
	written, err := w.Write(buf[:])
	if err != nil {
		return int64(written), fmt.Errorf("write: %w", err)
	}
	return int64(written), nil
}

// UnmarshalBytes decodes a footer from exactly the Size bytes at the end
// of a file.
func (f *Footer) UnmarshalBytes(b []byte) error {
	if len(b) != Size {
		return fmt.Errorf("%w: footer is %d bytes, expected %d", ErrInvalidFooter, len(b), Size)
	}
	if err := checkTail(b); err != nil {
		return err
	}

	f.AccountMetaFormat = AccountMetaFormat(binary.LittleEndian.Uint16(b[0:]))
	f.OwnersBlockFormat = OwnersBlockFormat(binary.LittleEndian.Uint16(b[2:]))
	f.IndexBlockFormat = IndexBlockFormat(binary.LittleEndian.Uint16(b[4:]))
	f.AccountBlockFormat = byteblock.Format(binary.LittleEndian.Uint16(b[6:]))
	f.AccountEntryCount = binary.LittleEndian.Uint32(b[8:])
	f.AccountMetaEntrySize = binary.LittleEndian.Uint32(b[12:])
	f.AccountBlockSize = binary.LittleEndian.Uint64(b[16:])
	f.OwnerCount = binary.LittleEndian.Uint32(b[24:])
	f.OwnerEntrySize = binary.LittleEndian.Uint32(b[28:])
	f.IndexBlockOffset = binary.LittleEndian.Uint64(b[32:])
	f.OwnersBlockOffset = binary.LittleEndian.Uint64(b[40:])
	copy(f.MinAccountAddress[:], b[48:80])
	copy(f.MaxAccountAddress[:], b[80:112])
	copy(f.Hash[:], b[112:144])
	f.FormatVersion = binary.LittleEndian.Uint64(b[144:])
	f.FooterSize = binary.LittleEndian.Uint64(b[152:])

	return nil
}

func checkTail(b []byte) error {
	tail := b[len(b)-tailSize:]
	version := binary.LittleEndian.Uint64(tail[0:8])
	footerSize := binary.LittleEndian.Uint64(tail[8:16])
	magic := binary.LittleEndian.Uint64(tail[16:24])

	if magic != MagicNumber {
		return fmt.Errorf("%w: bad magic number (%x) -- not a tiered storage file or corrupted", ErrInvalidFooter, magic)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: this version of hotstore can only read v%d files; found v%d", ErrInvalidFooter, FormatVersion, version)
	}
	if footerSize != Size {
		return fmt.Errorf("%w: footer size %d, expected %d", ErrInvalidFooter, footerSize, Size)
	}
	return nil
}

// Decode reads the footer from the tail of a whole mapped file.
func Decode(mapped []byte) (Footer, error) {
	var f Footer
	if len(mapped) < Size {
		return f, fmt.Errorf("%w: file too short: %d < %d", ErrInvalidFooter, len(mapped), Size)
	}
	if err := f.UnmarshalBytes(mapped[len(mapped)-Size:]); err != nil {
		return Footer{}, err
	}
	return f, nil
}

// Start returns the offset at which the footer begins in a file of
// fileLen bytes.
func Start(fileLen int) uint64 {
	if fileLen < Size {
		return 0
	}
	return uint64(fileLen - Size)
}
