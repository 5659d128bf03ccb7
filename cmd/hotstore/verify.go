// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bpowers/hotstore"
)

type verifyResult struct {
	report hotstore.VerifyReport
	err    error
}

func verifyFile(path string) (hotstore.VerifyReport, error) {
	table, err := hotstore.Open(path, hotstore.WithTableLogger(newLogger()))
	if err != nil {
		return hotstore.VerifyReport{}, err
	}
	defer func() {
		_ = table.Close()
	}()
	return table.Verify()
}

func runVerify(cmd *cobra.Command, args []string) error {
	results := make([]verifyResult, len(args))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			report, err := verifyFile(path)
			results[i] = verifyResult{report: report, err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 3, 4, 2, ' ', 0)
	for i, path := range args {
		r := results[i]
		if r.err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tFAIL\t%v\n", path, r.err)
			continue
		}
		checksum := "no checksum"
		if r.report.Checksummed {
			checksum = "checksum ok"
		}
		fmt.Fprintf(tw, "%s\tok\t%s accounts\t%s data\t%s owners\t%s\n",
			path,
			humanize.Comma(int64(r.report.Accounts)),
			humanize.IBytes(r.report.DataBytes),
			humanize.Comma(int64(r.report.Owners)),
			checksum)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed verification", failed, len(args))
	}
	return nil
}
