// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package byteblock

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/hotstore/internal/meta"
)

func TestWriterOptionalFields(t *testing.T) {
	epoch := uint64(7)
	hash := meta.Hash{9, 8, 7, 6}
	fields := meta.OptionalFields{RentEpoch: &epoch, AccountHash: &hash}

	w := NewWriter(AlignedRaw)
	data := bytes.Repeat([]byte{11}, 83)
	_, err := w.Write(data)
	require.NoError(t, err)
	_, err = w.Write(make([]byte, 5))
	require.NoError(t, err)
	n, err := w.WriteOptionalFields(fields)
	require.NoError(t, err)
	require.Equal(t, fields.Size(), n)
	require.Equal(t, 83+5+fields.Size(), w.Len())

	block, err := w.Finish()
	require.NoError(t, err)
	require.Equal(t, 0, w.Len())

	optOff := len(block) - meta.SizeFromFlags(fields.Flags())
	gotEpoch, ok := ReadU64(block, optOff+meta.RentEpochOffset(fields.Flags()))
	require.True(t, ok)
	require.Equal(t, epoch, gotEpoch)
	gotHash, ok := ReadHash(block, optOff+meta.AccountHashOffset(fields.Flags()))
	require.True(t, ok)
	require.Equal(t, hash, gotHash)

	_, ok = ReadU64(block, len(block)-4)
	assert.False(t, ok)
	_, ok = ReadHash(block, -1)
	assert.False(t, ok)
}

func TestFinishUnsupportedFormat(t *testing.T) {
	for _, format := range []Format{Lz4, Zstd, Format(99)} {
		w := NewWriter(format)
		_, err := w.Write([]byte("abc"))
		require.NoError(t, err)
		_, err = w.Finish()
		assert.ErrorIs(t, err, ErrUnknownFormat, format.String())
		assert.Equal(t, 0, w.Len())
	}
}

func TestFinishReuse(t *testing.T) {
	w := NewWriter(AlignedRaw)
	_, err := w.Write([]byte("first"))
	require.NoError(t, err)
	first, err := w.Finish()
	require.NoError(t, err)

	_, err = w.Write([]byte("second"))
	require.NoError(t, err)
	second, err := w.Finish()
	require.NoError(t, err)

	assert.Equal(t, []byte("first"), first)
	assert.Equal(t, []byte("second"), second)
}
