// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package hotstore builds and reads hot account storage files: immutable,
// memory-mapped files of accounts (an address, an owner, a balance and
// opaque data) optimized for random access.
package hotstore

import (
	"github.com/bpowers/hotstore/internal/address"
	"github.com/bpowers/hotstore/internal/footer"
	"github.com/bpowers/hotstore/internal/hot"
	"github.com/bpowers/hotstore/internal/meta"
)

type (
	// Address identifies an account or an owner.  Its text form is base58.
	Address = address.Address
	// Hash is an account hash, stored alongside an account when present.
	Hash = meta.Hash
	// Footer describes the layout of a hot file.
	Footer = footer.Footer
	// VerifyReport summarizes a file that passed Table.Verify.
	VerifyReport = hot.VerifyReport
)

var (
	ErrNoMatch          = hot.ErrNoMatch
	ErrUnableToLoad     = hot.ErrUnableToLoad
	ErrCorrupt          = hot.ErrCorrupt
	ErrChecksumMismatch = hot.ErrChecksumMismatch
)

// ParseAddress decodes the base58 text form of an address.
func ParseAddress(s string) (Address, error) {
	return address.Parse(s)
}

// Account is a single account.  Accounts returned by a Table share their
// Data with the table's memory map: it must not be modified, and is only
// valid until the Table is closed.
type Account struct {
	Address    Address
	Owner      Address
	Balance    uint64
	Executable bool

	// RentEpoch and Hash are optional; nil means absent.
	RentEpoch *uint64
	Hash      *Hash
	Data      []byte
}

func (a Account) entry() hot.AccountEntry {
	return hot.AccountEntry{
		Address:    a.Address,
		Owner:      a.Owner,
		Balance:    a.Balance,
		Executable: a.Executable,
		Data:       a.Data,
		Optional: meta.OptionalFields{
			RentEpoch:   a.RentEpoch,
			AccountHash: a.Hash,
		},
	}
}

func fromHot(acct hot.Account) Account {
	a := Account{
		Address:    acct.Address(),
		Owner:      acct.Owner(),
		Balance:    acct.Balance(),
		Executable: acct.Executable(),
		Data:       acct.Data(),
	}
	if epoch, ok := acct.RentEpoch(); ok {
		a.RentEpoch = &epoch
	}
	if hash, ok := acct.AccountHash(); ok {
		a.Hash = &hash
	}
	return a
}
