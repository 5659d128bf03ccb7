// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command hotstore builds, inspects and verifies hot account files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagVerbose    bool
	flagDumpOutput string
)

var cmd = &cobra.Command{
	Use:           "hotstore",
	Short:         "build, inspect and verify hot account storage files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var cmdBuild = &cobra.Command{
	Use:   "build [accounts.txt] [out.hot]",
	Short: "Build a hot file from address:owner:balance:rentEpoch:data lines (optionally .lz4 or .zst)",
	Args:  cobra.ExactArgs(2),
	RunE:  runBuild,
}

var cmdInspect = &cobra.Command{
	Use:   "inspect [file.hot]",
	Short: "Print a summary of a hot file's footer",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var cmdDump = &cobra.Command{
	Use:   "dump [file.hot]",
	Short: "Print every account in a hot file, one per line",
	Long:  "Print every account in a hot file, one per line.  With --output, write to a new file instead, compressed if it ends in .lz4 or .zst.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var cmdVerify = &cobra.Command{
	Use:   "verify [file.hot]...",
	Short: "Check hot files for corruption",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func init() {
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")
	cmdDump.Flags().StringVarP(&flagDumpOutput, "output", "o", "", "write to this new file instead of stdout")
	cmd.AddCommand(
		cmdBuild,
		cmdInspect,
		cmdDump,
		cmdVerify,
	)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
