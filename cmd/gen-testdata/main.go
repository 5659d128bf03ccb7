// Copyright 2021 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata prints random accounts in the text form accepted by
// `hotstore build`.
package main

import (
	"bufio"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"os"

	"github.com/bpowers/hotstore"
)

const (
	nAccounts  = 1000000
	nOwners    = 64
	maxDataLen = 256
	hmacKey    = "d259c7f656caf7f1"
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	if _, err := crand.Read(seedBytes[:]); err != nil {
		panic(err)
	}
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

func main() {
	rng := newRand()
	h := hmac.New(sha256.New, []byte(hmacKey))

	newAddress := func() hotstore.Address {
		var buf [16]byte
		if _, err := rng.Read(buf[:]); err != nil {
			panic(err)
		}
		h.Reset()
		h.Write(buf[:])
		return hotstore.Address(h.Sum(nil))
	}

	owners := make([]hotstore.Address, nOwners)
	for i := range owners {
		owners[i] = newAddress()
	}

	w := bufio.NewWriter(os.Stdout)
	var line []byte
	for i := 0; i < nAccounts; i++ {
		acct := hotstore.Account{
			Address: newAddress(),
			Owner:   owners[rng.Intn(len(owners))],
			Balance: uint64(rng.Int63()),
			Data:    make([]byte, rng.Intn(maxDataLen)),
		}
		if rng.Intn(2) == 0 {
			epoch := uint64(rng.Intn(1000))
			acct.RentEpoch = &epoch
		}
		if _, err := rng.Read(acct.Data); err != nil {
			panic(err)
		}

		line = append(acct.AppendText(line[:0]), '\n')
		if _, err := w.Write(line); err != nil {
			panic(err)
		}
	}
	if err := w.Flush(); err != nil {
		panic(err)
	}
}
