// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/hotstore"
	"github.com/bpowers/hotstore/internal/stream"
)

const maxLineLen = 64 * 1024 * 1024

// runBuild reads accounts.txt, or .lz4/.zst compressed text, into a new
// hot file.
func runBuild(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]
	logger := newLogger()

	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	b, err := hotstore.NewBuilder(outPath, hotstore.WithBuilderLogger(logger))
	if err != nil {
		return err
	}

	r, err := stream.NewReader(bufio.NewReaderSize(f, 16*1024), stream.ForPath(inPath))
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineLen)
	for lineNo := 1; s.Scan(); lineNo++ {
		acct, err := hotstore.ParseAccount(s.Bytes())
		if err == nil {
			err = b.Put(acct)
		}
		if err != nil {
			_ = b.Discard()
			return fmt.Errorf("%s:%d: %w", inPath, lineNo, err)
		}
	}
	if err := s.Err(); err != nil {
		_ = b.Discard()
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	return b.Finalize()
}
