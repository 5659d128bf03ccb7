// Copyright 2023 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

const (
	defaultBufferSize = 4 * 1024 * 1024
)

var ErrClosed = errors.New("datafile: writer closed")

type nopWriter struct{}

func (nopWriter) Write([]byte) (int, error) {
	return 0, io.EOF
}

// FileWriter is usually an *os.File, but specified as an interface for easier testing.
type FileWriter interface {
	io.Writer
	io.Closer
	Sync() error
}

// Writer appends to a storage file, tracking the number of bytes written
// so far.  Storage files are write-once: nothing is ever written at an
// earlier offset.
type Writer struct {
	f      FileWriter
	w      *bufio.Writer
	off    uint64
	closed atomic.Bool
}

// Create creates a new storage file at path.  It is an error for path to
// already exist, and the returned error will match fs.ErrExist.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", path, err)
	}
	return NewWriter(f), nil
}

func NewWriter(f FileWriter) *Writer {
	return &Writer{
		f: f,
		w: bufio.NewWriterSize(f, defaultBufferSize),
	}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrClosed
	}
	n, err := w.w.Write(p)
	w.off += uint64(n)
	if err != nil {
		return n, fmt.Errorf("bufio.Write: %w", err)
	}
	return n, nil
}

// WriteZeros appends n zero bytes.
func (w *Writer) WriteZeros(n int) (int, error) {
	var zeros [8]byte
	written := 0
	for written < n {
		chunk := n - written
		if chunk > len(zeros) {
			chunk = len(zeros)
		}
		m, err := w.Write(zeros[:chunk])
		written += m
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Offset returns the number of bytes written so far, which is the offset
// the next Write will land at.
func (w *Writer) Offset() uint64 {
	return w.off
}

// Flush writes any buffered data to the underlying file.
func (w *Writer) Flush() error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	return nil
}

// Close flushes buffered data, syncs and closes the underlying file.  It
// is safe to call more than once.
func (w *Writer) Close() error {
	if alreadyClosed := w.closed.Swap(true); alreadyClosed {
		return nil
	}

	defer func() {
		w.w.Reset(nopWriter{})
	}()
	defer func() {
		_ = w.f.Close()
	}()

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("f.Sync: %w", err)
	}
	return nil
}
