// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bqport/pkg/logging"
	"bqport/pkg/planner"
)

// NewBundleCommand builds the "bundle" subcommand: plan the dependency
// DAG across a tree of local SQL files and print the files in
// topological order, concatenated into one script. Unlike push, bundle
// never deploys anything — it exists to produce a reviewable artifact
// (a migration script, a CI diff) from the same ordering push uses.
func NewBundleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle [projects...]",
		Short: "Print local SQL source concatenated in dependency order",
		RunE:  runBundle,
	}
}

// noopDeployer satisfies planner.Deployer without ever touching a
// warehouse; bundle only needs the Plan's ordering and file bodies.
type noopDeployer struct{}

func (noopDeployer) Deploy(ctx context.Context, file planner.LocalFile) (string, error) {
	return "bundled, not deployed", nil
}

func runBundle(cmd *cobra.Command, args []string) error {
	if NewSQLParser == nil {
		return errNoSQLParser
	}

	cfg, err := loadConfigIfPresent()
	if err != nil {
		return err
	}

	flags, err := ResolveFlags(cmd, cfg)
	if err != nil {
		return err
	}

	ambientProject := ""
	if cfg != nil {
		ambientProject = cfg.Project
	}
	if NewWarehouseClient != nil {
		if client, err := NewWarehouseClient(ambientProject); err == nil {
			ambientProject = client.ProjectID()
		}
	}

	files, err := discoverFiles(flags.RootPath, ambientProject, args)
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}

	logger := logging.NewLogger(flags.Verbose)
	plnr := planner.New(ambientProject, NewSQLParser(), noopDeployer{}, logger)

	plan, err := plnr.Plan(context.Background(), files)
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, key := range plan.Order {
		node, ok := plan.Nodes[key]
		if !ok {
			continue
		}
		for _, file := range node.Files {
			fmt.Fprintf(out, "-- %s\n", file.Path)
			fmt.Fprintln(out, file.SQL)
		}
	}

	return nil
}
