// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package stream

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPath(t *testing.T) {
	assert.Equal(t, None, ForPath("accounts.txt"))
	assert.Equal(t, None, ForPath("accounts"))
	assert.Equal(t, Lz4, ForPath("/tmp/accounts.txt.lz4"))
	assert.Equal(t, Zstd, ForPath("accounts.zst"))
	assert.Equal(t, Zstd, ForPath("accounts.zstd"))
}

func TestRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 4096)
	rng.Read(random)

	for _, c := range []Compression{None, Lz4, Zstd} {
		for _, input := range [][]byte{
			[]byte("abc"),
			bytes.Repeat([]byte("hot accounts "), 300),
			random,
		} {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, c)
			require.NoError(t, err, c.String())
			_, err = w.Write(input)
			require.NoError(t, err, c.String())
			require.NoError(t, w.Close(), c.String())

			r, err := NewReader(&buf, c)
			require.NoError(t, err, c.String())
			got, err := io.ReadAll(r)
			require.NoError(t, err, c.String())
			require.NoError(t, r.Close())
			require.Equal(t, input, got, c.String())
		}
	}
}

func TestCompresses(t *testing.T) {
	input := bytes.Repeat([]byte{0}, 1<<16)
	for _, c := range []Compression{Lz4, Zstd} {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, c)
		require.NoError(t, err)
		_, err = w.Write(input)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Less(t, buf.Len(), len(input)/10, c.String())
	}
}

func TestCorruptInput(t *testing.T) {
	for _, c := range []Compression{Lz4, Zstd} {
		r, err := NewReader(bytes.NewReader([]byte("not a compressed frame")), c)
		if err != nil {
			continue
		}
		_, err = io.ReadAll(r)
		assert.Error(t, err, c.String())
	}
}

func TestUnknownCompression(t *testing.T) {
	_, err := NewReader(nil, Compression(99))
	assert.ErrorIs(t, err, ErrUnknownCompression)
	_, err = NewWriter(nil, Compression(99))
	assert.ErrorIs(t, err, ErrUnknownCompression)
}
