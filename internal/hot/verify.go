// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hot

import (
	"fmt"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/hotstore/internal/address"
	"github.com/bpowers/hotstore/internal/bitset"
	"github.com/bpowers/hotstore/internal/footer"
	"github.com/bpowers/hotstore/internal/index"
	"github.com/bpowers/hotstore/internal/meta"
)

// VerifyReport summarizes a file that passed Verify.
type VerifyReport struct {
	Accounts            int
	ZeroBalanceAccounts int
	DataBytes           uint64
	Owners              int
	UnreferencedOwners  int
	// Checksummed is true if the footer recorded a checksum, and it matched.
	Checksummed bool
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
}

// Verify checks the whole file for consistency.  Lookups only check what
// they touch, so a damaged file otherwise goes unnoticed until the damaged
// account is read.
func (r *Reader) Verify() (VerifyReport, error) {
	f := &r.footer
	report := VerifyReport{
		Accounts: r.Len(),
		Owners:   int(f.OwnerCount),
	}

	if err := r.verifyLayout(); err != nil {
		return report, err
	}

	offsets, err := index.Offsets(r.data, f)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	referenced := bitset.New(f.OwnerCount)
	var prev uint64
	for i := uint32(0); i < f.AccountEntryCount; i++ {
		encoded, err := offsets.Get(uint64(i))
		if err != nil {
			return report, fmt.Errorf("%w: account %d offset: %w", ErrCorrupt, i, err)
		}
		off := Offset(encoded)
		if i > 0 && off.Bytes() <= prev {
			return report, corruptf("account %d at %d doesn't follow account %d at %d", i, off.Bytes(), i-1, prev)
		}
		prev = off.Bytes()

		m, err := r.MetaAt(off)
		if err != nil {
			return report, fmt.Errorf("%w: account %d: %w", ErrCorrupt, i, err)
		}
		if m.OwnerIndex() >= f.OwnerCount {
			return report, corruptf("account %d owner index %d >= owner count %d", i, m.OwnerIndex(), f.OwnerCount)
		}
		if reserved := m.Flags().Reserved(); reserved != 0 {
			return report, corruptf("account %d has reserved flag bits set (%#x)", i, reserved)
		}
		block, err := r.accountBlock(off, i)
		if err != nil {
			return report, fmt.Errorf("%w: account %d block: %w", ErrCorrupt, i, err)
		}
		if trailer := meta.SizeFromFlags(m.Flags()) + int(m.Padding()); trailer > len(block) {
			return report, corruptf("account %d block is %d bytes, too short for %d bytes of padding and optional fields", i, len(block), trailer)
		}

		referenced.Set(m.OwnerIndex())
		if m.Balance() == 0 {
			report.ZeroBalanceAccounts++
		}
		report.DataBytes += uint64(m.DataSize(block))
	}
	report.UnreferencedOwners = int(f.OwnerCount) - referenced.Count()

	if lo, hi, ok := f.Checksum(); ok {
		gotLo, gotHi := farm.Fingerprint128(r.data[:f.IndexBlockOffset])
		if gotLo != lo || gotHi != hi {
			return report, fmt.Errorf("%w: recorded %016x%016x, computed %016x%016x", ErrChecksumMismatch, hi, lo, gotHi, gotLo)
		}
		report.Checksummed = true
	}

	r.logger.Debug("verified hot file",
		"accounts", report.Accounts,
		"owners", report.Owners,
		"checksummed", report.Checksummed)

	return report, nil
}

// verifyLayout checks that the blocks named by the footer are in order
// and don't overlap.
func (r *Reader) verifyLayout() error {
	f := &r.footer
	footerStart := footer.Start(len(r.data))

	if f.IndexBlockOffset > f.OwnersBlockOffset {
		return corruptf("index block at %d starts after owners block at %d", f.IndexBlockOffset, f.OwnersBlockOffset)
	}
	if f.OwnersBlockOffset > footerStart {
		return corruptf("owners block at %d starts after footer at %d", f.OwnersBlockOffset, footerStart)
	}
	if f.IndexBlockOffset%Alignment != 0 {
		return corruptf("index block at %d is not %d-byte aligned", f.IndexBlockOffset, Alignment)
	}

	indexSize, err := index.Size(f.IndexBlockFormat, r.Len())
	if err != nil {
		return err
	}
	if indexEnd := f.IndexBlockOffset + uint64(indexSize); indexEnd > f.OwnersBlockOffset {
		return corruptf("index block ends at %d, past owners block at %d", indexEnd, f.OwnersBlockOffset)
	}
	if ownersEnd := f.OwnersBlockOffset + uint64(f.OwnerCount)*address.Size; ownersEnd > footerStart {
		return corruptf("owners block ends at %d, past footer at %d", ownersEnd, footerStart)
	}
	if f.AccountEntryCount == 0 && f.IndexBlockOffset != 0 {
		return corruptf("no accounts, but account region is %d bytes", f.IndexBlockOffset)
	}
	return nil
}
