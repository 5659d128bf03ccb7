// Copyright 2021 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hotstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/bpowers/hotstore/internal/bytesutil"
)

var errFieldCount = errors.New("expected 5 fields: address:owner:balance:rentEpoch:data")

// ParseAccount parses the text form of an account:
//
//	address:owner:balance:rentEpoch:data
//
// with base58 addresses, decimal balance and rent epoch, and hex data.
// An empty rent epoch means the account has none.
func ParseAccount(line []byte) (Account, error) {
	var fields [5][]byte
	if !bytesutil.Fields(line, ':', fields[:]) {
		return Account{}, errFieldCount
	}

	var acct Account
	var err error
	if acct.Address, err = ParseAddress(string(fields[0])); err != nil {
		return Account{}, fmt.Errorf("address: %w", err)
	}
	if acct.Owner, err = ParseAddress(string(fields[1])); err != nil {
		return Account{}, fmt.Errorf("owner: %w", err)
	}
	if acct.Balance, err = strconv.ParseUint(string(fields[2]), 10, 64); err != nil {
		return Account{}, fmt.Errorf("balance: %w", err)
	}
	if len(fields[3]) > 0 {
		epoch, err := strconv.ParseUint(string(fields[3]), 10, 64)
		if err != nil {
			return Account{}, fmt.Errorf("rent epoch: %w", err)
		}
		acct.RentEpoch = &epoch
	}
	acct.Data = make([]byte, hex.DecodedLen(len(fields[4])))
	if _, err := hex.Decode(acct.Data, fields[4]); err != nil {
		return Account{}, fmt.Errorf("data: %w", err)
	}

	return acct, nil
}

// AppendText appends the text form of a to b, without a trailing newline.
func (a Account) AppendText(b []byte) []byte {
	b = append(b, a.Address.String()...)
	b = append(b, ':')
	b = append(b, a.Owner.String()...)
	b = append(b, ':')
	b = strconv.AppendUint(b, a.Balance, 10)
	b = append(b, ':')
	if a.RentEpoch != nil {
		b = strconv.AppendUint(b, *a.RentEpoch, 10)
	}
	b = append(b, ':')
	return append(b, hex.EncodeToString(a.Data)...)
}
