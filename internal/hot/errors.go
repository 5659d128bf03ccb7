// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hot

import (
	"errors"
	"fmt"
)

var (
	ErrOffsetOutOfBounds  = errors.New("hot: offset out of bounds")
	ErrOffsetMisaligned   = errors.New("hot: offset misaligned")
	ErrPaddingTooLarge    = errors.New("hot: padding too large")
	ErrOwnerIndexTooLarge = errors.New("hot: owner index too large")
	ErrMetaOutOfBounds    = errors.New("hot: account meta out of bounds")
	ErrUnsupportedFormat  = errors.New("hot: unsupported file format")
	ErrChecksumMismatch   = errors.New("hot: checksum mismatch")
	ErrCorrupt            = errors.New("hot: corrupt file")

	// ErrNoMatch means the account's owner is not among the candidates, or
	// the account has a zero balance.
	ErrNoMatch = errors.New("hot: no matching owner")
	// ErrUnableToLoad means the account couldn't be read at all, as
	// opposed to being read and not matching.
	ErrUnableToLoad = errors.New("hot: unable to load account")
)

// OffsetOutOfBoundsError is returned when a byte offset is too large to
// be encoded as an Offset.
type OffsetOutOfBoundsError struct {
	Offset uint64
	Max    uint64
}

func (e *OffsetOutOfBoundsError) Error() string {
	return fmt.Sprintf("hot: offset %d exceeds maximum offset %d", e.Offset, e.Max)
}

func (e *OffsetOutOfBoundsError) Is(target error) bool {
	return target == ErrOffsetOutOfBounds
}

// OffsetAlignmentError is returned when a byte offset isn't a multiple of
// Alignment.
type OffsetAlignmentError struct {
	Offset    uint64
	Alignment uint64
}

func (e *OffsetAlignmentError) Error() string {
	return fmt.Sprintf("hot: offset %d is not a multiple of %d", e.Offset, e.Alignment)
}

func (e *OffsetAlignmentError) Is(target error) bool {
	return target == ErrOffsetMisaligned
}

// MetaOutOfBoundsError is returned when an account meta would extend past
// the end of the account region.
type MetaOutOfBoundsError struct {
	Offset uint64
	Limit  uint64
}

func (e *MetaOutOfBoundsError) Error() string {
	return fmt.Sprintf("hot: account meta at offset %d extends past index block at %d", e.Offset, e.Limit)
}

func (e *MetaOutOfBoundsError) Is(target error) bool {
	return target == ErrMetaOutOfBounds
}
