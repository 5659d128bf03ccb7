// Copyright 2021 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hotstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bpowers/hotstore/internal/hot"
)

var ErrOutOfRange = errors.New("account ordinal out of range")

// TableOption configures a Table.
type TableOption func(*tableOptions)

type tableOptions struct {
	logger *slog.Logger
}

// WithTableLogger sets an optional logger for the table.  If not provided,
// no logging output will be produced.
func WithTableLogger(logger *slog.Logger) TableOption {
	return func(opts *tableOptions) {
		opts.logger = logger
	}
}

// Table provides read-only access to a hot file.  It is safe for
// concurrent use.
type Table struct {
	r      *hot.Reader
	logger *slog.Logger

	byAddressOnce sync.Once
	byAddress     map[Address]uint32
	byAddressErr  error
}

// Open opens the hot file at path.
func Open(path string, opts ...TableOption) (*Table, error) {
	var options tableOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}

	r, err := hot.Open(path, hot.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}
	return &Table{
		r:      r,
		logger: options.logger,
	}, nil
}

// Len returns the number of accounts in the table.
func (t *Table) Len() int {
	return t.r.Len()
}

// Footer returns the table's footer.
func (t *Table) Footer() Footer {
	return t.r.Footer()
}

// At returns the i'th account in storage order.
func (t *Table) At(i int) (Account, error) {
	if i < 0 || i >= t.r.Len() {
		return Account{}, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	acct, _, _, err := t.r.AccountAt(uint32(i))
	if err != nil {
		return Account{}, err
	}
	return fromHot(acct), nil
}

// All calls fn with every account in storage order, stopping early if fn
// returns false.
func (t *Table) All(fn func(Account) bool) error {
	return t.r.All(func(acct hot.Account) bool {
		return fn(fromHot(acct))
	})
}

func (t *Table) buildAddressIndex() {
	byAddress := make(map[Address]uint32, t.r.Len())
	for i := 0; i < t.r.Len(); i++ {
		addr, err := t.r.AccountAddress(uint32(i))
		if err != nil {
			t.byAddressErr = fmt.Errorf("account %d address: %w", i, err)
			return
		}
		byAddress[addr] = uint32(i)
	}
	t.byAddress = byAddress
	t.logger.Debug("built address index", "accounts", len(byAddress))
}

// Get returns the account stored under addr.  The first call builds an
// in-memory map from address to ordinal.
func (t *Table) Get(addr Address) (Account, bool) {
	t.byAddressOnce.Do(t.buildAddressIndex)
	if t.byAddressErr != nil {
		t.logger.Warn("address index unavailable", "err", t.byAddressErr)
		return Account{}, false
	}

	i, ok := t.byAddress[addr]
	if !ok {
		return Account{}, false
	}
	acct, err := t.At(int(i))
	if err != nil {
		t.logger.Warn("couldn't load account", "address", addr, "err", err)
		return Account{}, false
	}
	return acct, true
}

// MatchOwners returns the position in candidates of the owner of the i'th
// account.  The error matches ErrNoMatch if the account has a zero balance
// or its owner isn't a candidate, and ErrUnableToLoad if the account
// couldn't be read.
func (t *Table) MatchOwners(i int, candidates []Address) (int, error) {
	if i < 0 || i >= t.r.Len() {
		return -1, fmt.Errorf("%w: %w: %d", ErrUnableToLoad, ErrOutOfRange, i)
	}
	off, err := t.r.AccountOffset(uint32(i))
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrUnableToLoad, err)
	}
	return t.r.MatchAccountOwner(off, candidates)
}

// Verify checks the whole table for corruption.
func (t *Table) Verify() (VerifyReport, error) {
	return t.r.Verify()
}

// Close releases the table's memory map.  Accounts returned by the table
// must not be used afterwards.
func (t *Table) Close() error {
	return t.r.Close()
}
