// SPDX-License-Identifier: AGPL-3.0-or-later

/*

bqport - bqport deploys a tree of local SQL source files to a cloud data
warehouse as persistent remote resources, and reconciles remote state
with local state by removing orphaned remote resources.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package cli wires together bqport's root Cobra command and global CLI options.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bqport/internal/cli/commands"
)

// NewRootCommand constructs bqport's root Cobra command, wiring the
// push and bundle subcommands.
func NewRootCommand() *cobra.Command {
	version := os.Getenv("BQPORT_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "bqport",
		Short:         "bqport – deploy local SQL source to a data warehouse",
		Long:          "bqport deploys a tree of local SQL source files to a cloud data warehouse and reconciles remote state against what's on disk.",
		SilenceUsage:  true, // don't dump usage on user errors
		SilenceErrors: true, // centralize error printing in main()
	}

	// Global flags - registered in lexicographic order for deterministic help output.
	cmd.PersistentFlags().Bool("dry-run", false, "estimate cost without deploying")
	cmd.PersistentFlags().Bool("force", false, "skip the reconciliation confirmation prompt")
	cmd.PersistentFlags().String("format", "console", "progress output format: console (live task tree) or json (no live progress output)")
	cmd.PersistentFlags().StringArray("label", nil, "job label key:value (repeatable)")
	cmd.PersistentFlags().Int64("maximum_bytes_billed", 0, "cap bytes a query job may bill, 0 for unset")
	cmd.PersistentFlags().StringArray("parameter", nil, "query parameter name:type:value (repeatable)")
	cmd.PersistentFlags().String("root-path", "", "root directory scanned for SQL files")
	cmd.PersistentFlags().Int("threads", 0, "bounded worker-pool size")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose (debug-level) logging")

	// Version command – simple and explicit.
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of bqport",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bqport version %s\n", version)
		},
	})

	// Subcommands - keep registrations in lexicographic order by .Use
	// to ensure deterministic help output.
	cmd.AddCommand(commands.NewBundleCommand())
	cmd.AddCommand(commands.NewPushCommand())

	return cmd
}
