// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bpowers/hotstore"
	"github.com/bpowers/hotstore/internal/stream"
)

func runInspect(cmd *cobra.Command, args []string) error {
	table, err := hotstore.Open(args[0], hotstore.WithTableLogger(newLogger()))
	if err != nil {
		return err
	}
	defer func() {
		_ = table.Close()
	}()

	f := table.Footer()
	ownersSize := uint64(f.OwnerCount) * uint64(f.OwnerEntrySize)
	checksum := "none"
	if lo, hi, ok := f.Checksum(); ok {
		checksum = fmt.Sprintf("%016x%016x", hi, lo)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 3, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Accounts\t%s\n", humanize.Comma(int64(f.AccountEntryCount)))
	fmt.Fprintf(tw, "Account region\t%s\t[0, %d)\n", humanize.IBytes(f.IndexBlockOffset), f.IndexBlockOffset)
	fmt.Fprintf(tw, "Index block\t%s\t[%d, %d)\n", humanize.IBytes(f.OwnersBlockOffset-f.IndexBlockOffset), f.IndexBlockOffset, f.OwnersBlockOffset)
	fmt.Fprintf(tw, "Owners\t%s\t%s\n", humanize.Comma(int64(f.OwnerCount)), humanize.IBytes(ownersSize))
	fmt.Fprintf(tw, "Block format\t%d\n", f.AccountBlockFormat)
	fmt.Fprintf(tw, "Min address\t%s\n", f.MinAccountAddress)
	fmt.Fprintf(tw, "Max address\t%s\n", f.MaxAccountAddress)
	fmt.Fprintf(tw, "Checksum\t%s\n", checksum)
	fmt.Fprintf(tw, "Format version\t%d\n", f.FormatVersion)
	return tw.Flush()
}

func runDump(cmd *cobra.Command, args []string) (err error) {
	table, err := hotstore.Open(args[0], hotstore.WithTableLogger(newLogger()))
	if err != nil {
		return err
	}
	defer func() {
		_ = table.Close()
	}()

	out := cmd.OutOrStdout()
	compression := stream.None
	if flagDumpOutput != "" {
		var f *os.File
		f, err = os.OpenFile(flagDumpOutput, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
		}()
		out = f
		compression = stream.ForPath(flagDumpOutput)
	}

	w := bufio.NewWriter(out)
	zw, err := stream.NewWriter(w, compression)
	if err != nil {
		return err
	}
	var line []byte
	var writeErr error
	err = table.All(func(acct hotstore.Account) bool {
		line = append(acct.AppendText(line[:0]), '\n')
		_, writeErr = zw.Write(line)
		return writeErr == nil
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return w.Flush()
}
