// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package stream wraps account-list files in the compression named by
// their extension: ".lz4" for an lz4 frame, ".zst" for a zstd frame, and
// anything else is plain text.
package stream

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the framing of an account-list stream.
type Compression int

const (
	None Compression = iota
	Lz4
	Zstd
)

var ErrUnknownCompression = errors.New("stream: unknown compression")

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Lz4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// ForPath picks the compression for path from its extension.
func ForPath(path string) Compression {
	switch filepath.Ext(path) {
	case ".lz4":
		return Lz4
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// NewReader returns a reader that decompresses r.  Closing it releases
// decoder state but does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Lz4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd.NewReader: %w", err)
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}

// NewWriter returns a writer that compresses into w.  Close must be
// called to flush the final frame; it does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopCloser{w}, nil
	case Lz4:
		return lz4.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd.NewWriter: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}
