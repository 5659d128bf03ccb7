// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hot

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bpowers/hotstore/internal/address"
	"github.com/bpowers/hotstore/internal/byteblock"
	"github.com/bpowers/hotstore/internal/datafile"
	"github.com/bpowers/hotstore/internal/footer"
	"github.com/bpowers/hotstore/internal/index"
	"github.com/bpowers/hotstore/internal/meta"
	"github.com/bpowers/hotstore/internal/ondisk"
	"github.com/bpowers/hotstore/internal/owners"
)

type readerOptions struct {
	logger *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

// WithLogger sets the logger used by a Reader.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		o.logger = logger
	}
}

// Reader provides random access to the accounts in a hot file.  It is
// safe for concurrent use; nothing about it changes after Open.
type Reader struct {
	m      *datafile.Mapping
	data   []byte
	footer footer.Footer
	logger *slog.Logger
}

// Open maps the hot file at path and reads its footer.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	o := readerOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m, err := datafile.Map(path)
	if err != nil {
		return nil, err
	}

	f, err := footer.Decode(m.Data())
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("footer.Decode(%s): %w", path, err)
	}
	if err := checkFormats(&f); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	o.logger.Debug("opened hot file",
		"path", path,
		"accounts", f.AccountEntryCount,
		"owners", f.OwnerCount,
		"size", m.Len())

	return &Reader{
		m:      m,
		data:   m.Data(),
		footer: f,
		logger: o.logger,
	}, nil
}

func checkFormats(f *footer.Footer) error {
	if f.AccountMetaFormat != footer.Hot {
		return fmt.Errorf("%w: account meta format %d", ErrUnsupportedFormat, f.AccountMetaFormat)
	}
	if f.AccountBlockFormat != byteblock.AlignedRaw {
		return fmt.Errorf("%w: account block format %s", ErrUnsupportedFormat, f.AccountBlockFormat)
	}
	if f.IndexBlockFormat != footer.AddressesThenOffsets {
		return fmt.Errorf("%w: index block format %d", ErrUnsupportedFormat, f.IndexBlockFormat)
	}
	if f.OwnersBlockFormat != footer.AddressesOnly {
		return fmt.Errorf("%w: owners block format %d", ErrUnsupportedFormat, f.OwnersBlockFormat)
	}
	return nil
}

// Footer returns a copy of the file's footer.
func (r *Reader) Footer() footer.Footer {
	return r.footer
}

// Len returns the number of accounts in the file.
func (r *Reader) Len() int {
	return int(r.footer.AccountEntryCount)
}

// MetaAt returns the account meta at off.  The whole meta must sit below
// the start of the index block.
func (r *Reader) MetaAt(off Offset) (Meta, error) {
	raw := off.Bytes()
	if raw+MetaSize > r.footer.IndexBlockOffset {
		return Meta{}, &MetaOutOfBoundsError{Offset: raw, Limit: r.footer.IndexBlockOffset}
	}
	m, err := decodeMeta(r.data, raw)
	if err != nil {
		return Meta{}, fmt.Errorf("meta at %d: %w", raw, err)
	}
	return m, nil
}

// AccountOffset returns the offset of the i'th account's meta.
func (r *Reader) AccountOffset(i uint32) (Offset, error) {
	off, err := index.AccountOffset(r.data, &r.footer, i)
	if err != nil {
		return 0, err
	}
	return Offset(off), nil
}

// AccountAddress returns the address of the i'th account.
func (r *Reader) AccountAddress(i uint32) (address.Address, error) {
	return index.AccountAddress(r.data, &r.footer, i)
}

// OwnerAddress returns the owner stored at ownerIndex in the owners block.
func (r *Reader) OwnerAddress(ownerIndex uint32) (address.Address, error) {
	return owners.OwnerAddress(r.data, &r.footer, ownerIndex)
}

// MatchAccountOwner returns the position in candidates of the owner of
// the account at off.  Accounts with a zero balance never match.  The
// returned error matches ErrNoMatch when nothing matched and
// ErrUnableToLoad when the account couldn't be read.
func (r *Reader) MatchAccountOwner(off Offset, candidates []address.Address) (int, error) {
	m, err := r.MetaAt(off)
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrUnableToLoad, err)
	}
	if m.Balance() == 0 {
		return -1, ErrNoMatch
	}

	owner, err := r.OwnerAddress(m.OwnerIndex())
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrUnableToLoad, err)
	}
	for i := range candidates {
		if candidates[i] == owner {
			return i, nil
		}
	}
	return -1, ErrNoMatch
}

// blockSize returns the length of the account block following the meta
// at off, the i'th account.  It ends where the next account starts, or at
// the index block for the last account.
func (r *Reader) blockSize(off Offset, i uint32) (uint64, error) {
	var end uint64
	if uint64(i)+1 == uint64(r.footer.AccountEntryCount) {
		end = r.footer.IndexBlockOffset
	} else {
		next, err := r.AccountOffset(i + 1)
		if err != nil {
			return 0, err
		}
		end = next.Bytes()
	}

	start := off.Bytes() + MetaSize
	if end < start {
		return 0, nil
	}
	return end - start, nil
}

func (r *Reader) accountBlock(off Offset, i uint32) ([]byte, error) {
	size, err := r.blockSize(off, i)
	if err != nil {
		return nil, err
	}
	return ondisk.Slice(r.data, off.Bytes()+MetaSize, size)
}

// AccountAt returns the i'th account along with the ordinal of the one
// after it.  ok is false once i reaches Len, so every account can be
// visited with:
//
//	for i, ok := uint32(0), true; ok; {
//		var acct Account
//		acct, i, ok, err = r.AccountAt(i)
//		...
//	}
func (r *Reader) AccountAt(i uint32) (acct Account, next uint32, ok bool, err error) {
	if i >= r.footer.AccountEntryCount {
		return Account{}, 0, false, nil
	}

	off, err := r.AccountOffset(i)
	if err != nil {
		return Account{}, 0, false, fmt.Errorf("account %d offset: %w", i, err)
	}
	m, err := r.MetaAt(off)
	if err != nil {
		return Account{}, 0, false, fmt.Errorf("account %d: %w", i, err)
	}
	addr, err := r.AccountAddress(i)
	if err != nil {
		return Account{}, 0, false, fmt.Errorf("account %d address: %w", i, err)
	}
	owner, err := r.OwnerAddress(m.OwnerIndex())
	if err != nil {
		return Account{}, 0, false, fmt.Errorf("account %d owner: %w", i, err)
	}
	block, err := r.accountBlock(off, i)
	if err != nil {
		return Account{}, 0, false, fmt.Errorf("account %d block: %w", i, err)
	}

	return Account{
		meta:    m,
		address: addr,
		owner:   owner,
		index:   i,
		block:   block,
	}, i + 1, true, nil
}

// All calls yield with every account in storage order, stopping early if
// yield returns false.
func (r *Reader) All(yield func(Account) bool) error {
	var i uint32
	for {
		acct, next, ok, err := r.AccountAt(i)
		if err != nil {
			return err
		}
		if !ok || !yield(acct) {
			return nil
		}
		i = next
	}
}

// Close unmaps the file.  Accounts and slices obtained from the Reader
// must not be used afterwards.
func (r *Reader) Close() error {
	return r.m.Close()
}

// Account is a read-only view of one account in a hot file.  Data points
// into the file's mapping.
type Account struct {
	meta    Meta
	address address.Address
	owner   address.Address
	index   uint32
	block   []byte
}

func (a Account) Address() address.Address { return a.address }
func (a Account) Owner() address.Address   { return a.owner }
func (a Account) Balance() uint64          { return a.meta.Balance() }
func (a Account) Data() []byte             { return a.meta.Data(a.block) }
func (a Account) Meta() Meta               { return a.meta }

// Index returns the account's ordinal in its file.
func (a Account) Index() uint32 {
	return a.index
}

func (a Account) Executable() bool {
	return a.meta.Flags().Executable()
}

func (a Account) RentEpoch() (uint64, bool) {
	return a.meta.RentEpoch(a.block)
}

func (a Account) AccountHash() (meta.Hash, bool) {
	return a.meta.AccountHash(a.block)
}
