// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hot

import (
	"errors"
	"fmt"
	"math"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/hotstore/internal/address"
	"github.com/bpowers/hotstore/internal/byteblock"
	"github.com/bpowers/hotstore/internal/datafile"
	"github.com/bpowers/hotstore/internal/footer"
	"github.com/bpowers/hotstore/internal/index"
	"github.com/bpowers/hotstore/internal/meta"
	"github.com/bpowers/hotstore/internal/owners"
)

// AccountEntry is an account to be appended by Writer.WriteAccount.
type AccountEntry struct {
	Address    address.Address
	Owner      address.Address
	Balance    uint64
	Executable bool
	Data       []byte
	Optional   meta.OptionalFields
}

// Writer creates a hot file.  Files are written once, front to back:
// accounts first, then Finish appends the index, owners and footer.
type Writer struct {
	path  string
	f     *datafile.Writer
	block *byteblock.Writer

	owners   *owners.Table
	entries  []index.Entry
	min, max address.Address
}

// NewWriter creates a hot file at path.  It fails if anything already
// exists at path.
func NewWriter(path string) (*Writer, error) {
	f, err := datafile.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{
		path:   path,
		f:      f,
		block:  byteblock.NewWriter(byteblock.AlignedRaw),
		owners: owners.NewTable(),
	}, nil
}

// Write implements io.Writer, appending p to the file.
func (w *Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// WriteBytes appends p to the file.
func (w *Writer) WriteBytes(p []byte) (int, error) {
	return w.f.Write(p)
}

// WriteMeta appends the encoded form of m to the file.
func (w *Writer) WriteMeta(m Meta) (int, error) {
	var buf [MetaSize]byte
	if err := m.MarshalTo(buf[:]); err != nil {
		return 0, err
	}
	return w.f.Write(buf[:])
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() uint64 {
	return w.f.Offset()
}

// WriteAccount appends acct's meta and account block, and remembers its
// address and owner for Finish.
func (w *Writer) WriteAccount(acct AccountEntry) (Offset, error) {
	if uint64(len(w.entries)) >= math.MaxUint32 {
		return 0, errors.New("too many accounts for one file")
	}
	off, err := NewOffset(w.f.Offset())
	if err != nil {
		return 0, err
	}

	padding := paddingFor(len(acct.Data))
	m := NewMeta().
		WithBalance(acct.Balance).
		WithFlags(acct.Optional.Flags().WithExecutable(acct.Executable))
	if m, err = m.WithPadding(padding); err != nil {
		return 0, err
	}
	ownerIndex, ok := w.owners.Lookup(acct.Owner)
	if !ok {
		ownerIndex = uint32(w.owners.Len())
	}
	if m, err = m.WithOwnerIndex(ownerIndex); err != nil {
		return 0, err
	}

	var zeros [Alignment]byte
	_, _ = w.block.Write(acct.Data)
	_, _ = w.block.Write(zeros[:padding])
	_, _ = w.block.WriteOptionalFields(acct.Optional)
	block, err := w.block.Finish()
	if err != nil {
		return 0, fmt.Errorf("account block: %w", err)
	}

	if _, err := w.WriteMeta(m); err != nil {
		return 0, err
	}
	if _, err := w.WriteBytes(block); err != nil {
		return 0, err
	}

	if len(w.entries) == 0 || acct.Address.Compare(w.min) < 0 {
		w.min = acct.Address
	}
	if len(w.entries) == 0 || acct.Address.Compare(w.max) > 0 {
		w.max = acct.Address
	}
	w.owners.Insert(acct.Owner)
	w.entries = append(w.entries, index.Entry{Address: acct.Address, Offset: uint32(off)})

	return off, nil
}

// Finish writes the index block, owners block and footer for the
// accounts appended with WriteAccount, then closes the file.
func (w *Writer) Finish() (footer.Footer, error) {
	f := footer.New()
	f.AccountEntryCount = uint32(len(w.entries))
	f.AccountMetaEntrySize = MetaSize
	f.OwnerCount = uint32(w.owners.Len())
	f.OwnerEntrySize = address.Size
	f.MinAccountAddress = w.min
	f.MaxAccountAddress = w.max

	lo, hi, err := w.checksum()
	if err != nil {
		return footer.Footer{}, err
	}
	f.SetChecksum(lo, hi)

	f.IndexBlockOffset = w.f.Offset()
	if _, err := index.Write(w, f.IndexBlockFormat, w.entries); err != nil {
		return footer.Footer{}, fmt.Errorf("index block: %w", err)
	}
	// owners start on an aligned boundary; the gap is zero-filled
	if pad := paddingFor(int(w.f.Offset())); pad > 0 {
		if _, err := w.f.WriteZeros(int(pad)); err != nil {
			return footer.Footer{}, err
		}
	}

	f.OwnersBlockOffset = w.f.Offset()
	if _, err := owners.Write(w, f.OwnersBlockFormat, w.owners.Addresses()); err != nil {
		return footer.Footer{}, fmt.Errorf("owners block: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return footer.Footer{}, fmt.Errorf("footer: %w", err)
	}

	if err := w.Close(); err != nil {
		return footer.Footer{}, err
	}
	return f, nil
}

// checksum fingerprints everything written so far, which Finish calls
// once the last account block has been appended.
func (w *Writer) checksum() (lo, hi uint64, err error) {
	if err := w.f.Flush(); err != nil {
		return 0, 0, err
	}
	m, err := datafile.Map(w.path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = m.Close() }()

	if uint64(m.Len()) != w.f.Offset() {
		return 0, 0, fmt.Errorf("%s: mapped %d bytes, wrote %d", w.path, m.Len(), w.f.Offset())
	}
	lo, hi = farm.Fingerprint128(m.Data())
	return lo, hi, nil
}

// Close flushes and closes the file without writing a footer.
func (w *Writer) Close() error {
	return w.f.Close()
}
