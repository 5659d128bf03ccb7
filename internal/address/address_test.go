// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoundtrips(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = byte(i * 7)
	}
	parsed, err := Parse(a.String())
	require.NoError(t, err)
	require.Equal(t, a, parsed)

	// the zero address is 32 '1's in base58
	require.Equal(t, "11111111111111111111111111111111", Zero.String())
}

func TestParseErrors(t *testing.T) {
	// not base58
	_, err := Parse("0OIl")
	require.Error(t, err)

	// valid base58, wrong length
	_, err = Parse("abc")
	require.Error(t, err)

	_, err = FromBytes(make([]byte, Size+1))
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	a := Address{1}
	b := Address{2}
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
}
