// Copyright 2023 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	contents := []byte("some bytes on disk")
	require.NoError(t, os.WriteFile(path, contents, 0644))

	m, err := Map(path)
	require.NoError(t, err)
	assert.Equal(t, len(contents), m.Len())
	assert.Equal(t, contents, m.Data())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Data())
}

func TestMap_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	m, err := Map(path)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.Close())
}

func TestMap_Missing(t *testing.T) {
	_, err := Map(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
