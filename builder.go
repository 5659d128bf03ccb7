// Copyright 2021 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hotstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/bpowers/hotstore/internal/hot"
)

var (
	ErrDuplicateAddress = errors.New("duplicate account addresses aren't supported")
	errFinalized        = errors.New("builder already finalized")
)

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger *slog.Logger
}

// WithBuilderLogger sets an optional logger for the builder to use for progress updates.
// If not provided, no logging output will be produced.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// Builder is used to construct an immutable hot file from accounts.
type Builder struct {
	resultPath string
	tmpPath    string
	w          *hot.Writer
	seen       map[Address]struct{}
	logger     *slog.Logger
}

// NewBuilder creates a Builder that writes a hot file to path.  Building
// happens once: path must not already exist, and the file only appears
// there once Finalize succeeds.
func NewBuilder(path string, opts ...BuilderOption) (*Builder, error) {
	var options builderOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}

	// we want to write to a new file and do an atomic rename when we're done on disk
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	if err := checkAbsent(path); err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "hotstore-builder.*.hot")
	if err != nil {
		return nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q containing %q): %w", dir, path, err)
	}
	tmpPath := f.Name()
	// hot.NewWriter insists on creating the file itself
	_ = f.Close()
	if err := os.Remove(tmpPath); err != nil {
		return nil, fmt.Errorf("os.Remove: %w", err)
	}

	w, err := hot.NewWriter(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("hot.NewWriter: %w", err)
	}
	return &Builder{
		resultPath: path,
		tmpPath:    tmpPath,
		w:          w,
		seen:       make(map[Address]struct{}),
		logger:     options.logger,
	}, nil
}

func checkAbsent(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("os.Stat: %w", err)
	}
	return nil
}

// Put appends an account to the file.  Accounts are stored, and
// enumerated by Table, in the order they are added.
func (b *Builder) Put(acct Account) error {
	if b.w == nil {
		return errFinalized
	}
	if _, ok := b.seen[acct.Address]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, acct.Address)
	}
	if _, err := b.w.WriteAccount(acct.entry()); err != nil {
		return fmt.Errorf("account %s: %w", acct.Address, err)
	}
	b.seen[acct.Address] = struct{}{}
	return nil
}

// Finalize writes the index, owners and footer, and moves the finished
// read-only file into place.  It never replaces a file that appeared at
// the target path after NewBuilder; that is an error matching fs.ErrExist.
func (b *Builder) Finalize() error {
	if b.w == nil {
		return errFinalized
	}
	w := b.w
	b.w = nil
	// we're done with this -- nil it so it can be GC'd earlier
	b.seen = nil

	f, err := w.Finish()
	if err != nil {
		_ = w.Close()
		_ = os.Remove(b.tmpPath)
		return fmt.Errorf("hot.Writer.Finish: %w", err)
	}
	// the temp file goes away whether or not it was linked into place
	defer func() {
		_ = os.Remove(b.tmpPath)
	}()

	// make the file read-only
	if err := os.Chmod(b.tmpPath, 0444); err != nil {
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	// unlike rename, link fails if resultPath was created since NewBuilder
	if err := os.Link(b.tmpPath, b.resultPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", b.resultPath, fs.ErrExist)
		}
		return fmt.Errorf("os.Link: %w", err)
	}

	size := f.OwnersBlockOffset + uint64(f.OwnerCount)*uint64(f.OwnerEntrySize) + f.FooterSize
	b.logger.Info("built hot file",
		"path", b.resultPath,
		"accounts", f.AccountEntryCount,
		"owners", f.OwnerCount,
		"size", humanize.IBytes(size))

	return nil
}

// Discard abandons the build, removing any partially written file.
func (b *Builder) Discard() error {
	if b.w == nil {
		return nil
	}
	_ = b.w.Close()
	b.w = nil
	b.seen = nil
	if err := os.Remove(b.tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
