// Copyright 2021 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ondisk

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlice(t *testing.T) {
	b := []byte{0, 1, 2, 3, 4, 5, 6, 7}

	s, err := Slice(b, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, s)
	// the returned slice must not be able to grow into the rest of b
	require.Equal(t, 3, cap(s))

	s, err = Slice(b, 8, 0)
	require.NoError(t, err)
	require.Empty(t, s)

	_, err = Slice(b, 6, 3)
	require.ErrorIs(t, err, ErrOutOfBounds)

	// off+n would overflow
	_, err = Slice(b, math.MaxUint64, 2)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = Slice(b, 1, math.MaxUint64)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestU32AndU64(t *testing.T) {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:], 0xdeadbeef)
	binary.LittleEndian.PutUint64(b[4:], 0x0123456789abcdef)

	v32, err := U32(b, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v32)

	v64, err := U64(b, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0123456789abcdef), v64)

	_, err = U32(b, 9)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = U64(b, 5)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestU32Slice(t *testing.T) {
	const n = 12
	b := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(i*2))
	}
	s := U32Slice(b)
	require.Equal(t, n, s.Len())
	for i := uint64(0); i < n; i++ {
		v, err := s.Get(i)
		require.NoError(t, err)
		require.Equal(t, uint32(i*2), v)
	}
	_, err := s.Get(n)
	require.ErrorIs(t, err, ErrOutOfBounds)
}
