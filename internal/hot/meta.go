// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hot

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/bpowers/hotstore/internal/byteblock"
	"github.com/bpowers/hotstore/internal/meta"
	"github.com/bpowers/hotstore/internal/ondisk"
)

const (
	// MaxPadding is the most padding an account block can have.
	MaxPadding = Alignment - 1
	// MaxOwnerIndex is the largest owner index that fits in a meta.
	MaxOwnerIndex = 1<<29 - 1

	// MetaSize is the on-disk size of a Meta.
	MetaSize = 8 + 4 + 4

	paddingBits = 3
	paddingMask = 1<<paddingBits - 1

	balanceOff = 0
	packedOff  = 8
	flagsOff   = 12
)

// packedFields holds the padding length in its low 3 bits and the owner
// index in the high 29.
type packedFields uint32

func (p packedFields) padding() uint8 {
	return uint8(p & paddingMask)
}

func (p packedFields) ownerIndex() uint32 {
	return uint32(p >> paddingBits)
}

func (p *packedFields) setPadding(padding uint8) error {
	if padding > MaxPadding {
		return fmt.Errorf("%w: %d > %d", ErrPaddingTooLarge, padding, MaxPadding)
	}
	*p = *p&^paddingMask | packedFields(padding)
	return nil
}

func (p *packedFields) setOwnerIndex(i uint32) error {
	if i > MaxOwnerIndex {
		return fmt.Errorf("%w: %d > %d", ErrOwnerIndexTooLarge, i, MaxOwnerIndex)
	}
	*p = *p&paddingMask | packedFields(i)<<paddingBits
	return nil
}

// Meta is the fixed-size header in front of every account block.  It
// doesn't store the length of the account's data: that is derived from
// the size of the block.
type Meta struct {
	balance uint64
	packed  packedFields
	flags   meta.Flags
}

// the on-disk layout is load-bearing
var (
	_ [4]struct{}         = [unsafe.Sizeof(packedFields(0))]struct{}{}
	_ [MetaSize]struct{}  = [unsafe.Sizeof(Meta{})]struct{}{}
	_ [packedOff]struct{} = [unsafe.Offsetof(Meta{}.packed)]struct{}{}
	_ [flagsOff]struct{}  = [unsafe.Offsetof(Meta{}.flags)]struct{}{}
)

func NewMeta() Meta {
	return Meta{}
}

func (m Meta) WithBalance(balance uint64) Meta {
	m.balance = balance
	return m
}

func (m Meta) WithPadding(padding uint8) (Meta, error) {
	if err := m.packed.setPadding(padding); err != nil {
		return m, err
	}
	return m, nil
}

func (m Meta) WithOwnerIndex(i uint32) (Meta, error) {
	if err := m.packed.setOwnerIndex(i); err != nil {
		return m, err
	}
	return m, nil
}

func (m Meta) WithFlags(flags meta.Flags) Meta {
	m.flags = flags
	return m
}

// WithDataSize exists for parity with other storage tiers.  Hot metas
// never store a data size, so it returns m unchanged.
func (m Meta) WithDataSize(uint64) Meta {
	return m
}

func (m Meta) Balance() uint64 {
	return m.balance
}

func (m Meta) Padding() uint8 {
	return m.packed.padding()
}

func (m Meta) OwnerIndex() uint32 {
	return m.packed.ownerIndex()
}

func (m Meta) Flags() meta.Flags {
	return m.flags
}

// SupportsSharedAccountBlock reports whether several accounts can share
// one account block.  Never in the hot tier.
func (m Meta) SupportsSharedAccountBlock() bool {
	return false
}

// OptionalFieldsOffset returns where the optional fields start in block.
// A block too short for the fields its flags claim yields 0.
func (m Meta) OptionalFieldsOffset(block []byte) int {
	off := len(block) - meta.SizeFromFlags(m.flags)
	if off < 0 {
		return 0
	}
	return off
}

// DataSize returns the length of the account data in block.
func (m Meta) DataSize(block []byte) int {
	n := m.OptionalFieldsOffset(block) - int(m.Padding())
	if n < 0 {
		return 0
	}
	return n
}

// Data returns the account data in block.
func (m Meta) Data(block []byte) []byte {
	return block[:m.DataSize(block)]
}

// RentEpoch returns the rent epoch stored in block, if the flags say one
// is present.
func (m Meta) RentEpoch(block []byte) (uint64, bool) {
	if !m.flags.HasRentEpoch() {
		return 0, false
	}
	return byteblock.ReadU64(block, m.OptionalFieldsOffset(block)+meta.RentEpochOffset(m.flags))
}

// AccountHash returns the account hash stored in block, if the flags say
// one is present.
func (m Meta) AccountHash(block []byte) (meta.Hash, bool) {
	if !m.flags.HasAccountHash() {
		return meta.Hash{}, false
	}
	return byteblock.ReadHash(block, m.OptionalFieldsOffset(block)+meta.AccountHashOffset(m.flags))
}

// MarshalTo encodes m into the first MetaSize bytes of b.
func (m Meta) MarshalTo(b []byte) error {
	if len(b) < MetaSize {
		return fmt.Errorf("buffer too small: %d < %d", len(b), MetaSize)
	}
	binary.LittleEndian.PutUint64(b[balanceOff:], m.balance)
	binary.LittleEndian.PutUint32(b[packedOff:], uint32(m.packed))
	binary.LittleEndian.PutUint32(b[flagsOff:], uint32(m.flags))
	return nil
}

// decodeMeta reads the Meta at byte offset off in b.
func decodeMeta(b []byte, off uint64) (Meta, error) {
	buf, err := ondisk.Slice(b, off, MetaSize)
	if err != nil {
		return Meta{}, err
	}
	// bounds check elimination
	_ = buf[MetaSize-1]
	return Meta{
		balance: binary.LittleEndian.Uint64(buf[balanceOff:]),
		packed:  packedFields(binary.LittleEndian.Uint32(buf[packedOff:])),
		flags:   meta.Flags(binary.LittleEndian.Uint32(buf[flagsOff:])),
	}, nil
}
