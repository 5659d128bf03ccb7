// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetRoundtrips(t *testing.T) {
	for _, raw := range []uint64{0, Alignment, 16, 4096, 1 << 32, MaxOffset - Alignment, MaxOffset} {
		off, err := NewOffset(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, off.Bytes())
	}

	off, err := NewOffset(MaxOffset)
	require.NoError(t, err)
	assert.Equal(t, Offset(0xffffffff), off)
}

func TestOffsetOutOfBounds(t *testing.T) {
	_, err := NewOffset(MaxOffset + Alignment)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOffsetOutOfBounds)
	assert.NotErrorIs(t, err, ErrOffsetMisaligned)

	var boundsErr *OffsetOutOfBoundsError
	require.True(t, errors.As(err, &boundsErr))
	assert.Equal(t, uint64(MaxOffset+Alignment), boundsErr.Offset)
	assert.Equal(t, uint64(MaxOffset), boundsErr.Max)
}

func TestOffsetAlignment(t *testing.T) {
	_, err := NewOffset(Alignment - 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOffsetMisaligned)
	assert.NotErrorIs(t, err, ErrOffsetOutOfBounds)

	var alignErr *OffsetAlignmentError
	require.True(t, errors.As(err, &alignErr))
	assert.Equal(t, uint64(Alignment-1), alignErr.Offset)
	assert.Equal(t, uint64(Alignment), alignErr.Alignment)

	// too big and misaligned reports the bound first
	_, err = NewOffset(MaxOffset + 1)
	assert.ErrorIs(t, err, ErrOffsetOutOfBounds)
}

func TestPaddingFor(t *testing.T) {
	for n, expected := range map[int]uint8{0: 0, 1: 7, 7: 1, 8: 0, 83: 5, 4095: 1} {
		assert.Equal(t, expected, paddingFor(n), "len %d", n)
	}
}
