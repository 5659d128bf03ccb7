// Copyright 2023 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"
	"os"
	"sync/atomic"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// Mapping is a read-only memory map of a whole storage file.
type Mapping struct {
	data     mmap.MMap
	isClosed atomic.Bool
}

// Map memory maps the file at path.  Lookups into storage files jump
// around, so the kernel is told not to bother with readahead.
func Map(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	if stats.Size() == 0 {
		// mmap(2) refuses zero-length mappings
		return &Mapping{}, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap.Map(%s): %w", path, err)
	}

	if err := unix.Madvise(data, syscall.MADV_RANDOM); err != nil {
		_ = data.Unmap()
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &Mapping{data: data}, nil
}

// Data returns the mapped file contents.  The slice is only valid until
// Close is called.
func (m *Mapping) Data() []byte {
	return m.data
}

func (m *Mapping) Len() int {
	return len(m.data)
}

func (m *Mapping) Close() error {
	if m.isClosed.Swap(true) {
		return nil
	}
	if m.data == nil {
		return nil
	}
	err := m.data.Unmap()
	m.data = nil
	return err
}
