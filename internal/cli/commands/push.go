// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bqport/pkg/config"
	"bqport/pkg/executor"
	"bqport/pkg/logging"
	"bqport/pkg/planner"
	"bqport/pkg/pool"
	"bqport/pkg/progress"
	"bqport/pkg/ratelimit"
	"bqport/pkg/reconcile"
	"bqport/pkg/resource"
)

// NewPushCommand builds the "push" subcommand: plan and deploy a tree
// of local SQL files, then reconcile remote datasets against what's on
// disk.
func NewPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push [projects...]",
		Short: "Deploy local SQL source to the warehouse and reconcile remote state",
		RunE:  runPush,
	}
}

func runPush(cmd *cobra.Command, args []string) error {
	if NewWarehouseClient == nil {
		return errNoWarehouseClient
	}
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

	logger := logging.NewLogger(flags.Verbose)

	var ambientProjectHint string
	if cfg != nil {
		ambientProjectHint = cfg.Project
	}
	client, err := NewWarehouseClient(ambientProjectHint)
	if err != nil {
		return fmt.Errorf("push: constructing warehouse client: %w", err)
	}
	ambientProject := client.ProjectID()

	files, err := discoverFiles(flags.RootPath, ambientProject, args)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}

	rateLimit := config.DefaultRateLimitPerMinute
	if cfg != nil && cfg.RateLimitPerMinute > 0 {
		rateLimit = cfg.RateLimitPerMinute
	}

	exec := &executor.Executor{
		Client:             client,
		Limiter:            ratelimit.New(rateLimit),
		Logger:             logger,
		AmbientProject:     ambientProject,
		DryRun:             flags.DryRun,
		Labels:             flags.Labels,
		Parameters:         flags.Parameters,
		MaximumBytesBilled: flags.MaximumBytesBilled,
	}

	plnr := planner.New(ambientProject, NewSQLParser(), exec, logger)
	ctx := context.Background()

	plan, err := plnr.Plan(ctx, files)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	logger.Debug("deployment plan generated", logging.NewField("namespaces", len(plan.Order)), logging.NewField("files", len(files)))

	workers := pool.New(flags.Threads)
	reporter := progress.New()

	tasks := allTasks(plan)

	reportDone := make(chan struct{})
	if flags.Format == "console" {
		go func() {
			reporter.Watch(ctx, tasks)
			close(reportDone)
		}()
	} else {
		close(reportDone)
	}

	if err := plan.Execute(ctx, workers); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	<-reportDone

	confirm := stdinConfirm(cmd)
	reconciler := reconcile.New(client, logger, ambientProject, flags.Force, flags.DryRun, confirm)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	for _, datasetID := range datasetIDs(files) {
		rPlan, err := reconciler.Plan(ctx, flags.RootPath, datasetID, paths)
		if err != nil {
			logger.Warn("reconcile planning failed", logging.NewField("dataset", datasetID.String()), logging.NewField("error", err.Error()))
			continue
		}
		if err := rPlan.Execute(ctx, workers, logger); err != nil {
			return fmt.Errorf("push: reconcile %s: %w", datasetID, err)
		}
	}

	return nil
}

func loadConfigIfPresent() (*config.Config, error) {
	path := config.DefaultConfigPath()
	exists, err := config.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking for %s: %w", path, err)
	}
	if !exists {
		return nil, nil
	}
	return config.Load(path)
}

func stdinConfirm(cmd *cobra.Command) reconcile.Prompt {
	return func(dataset resource.ID, kind resource.Kind, names []string) (bool, error) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: delete orphaned %s %v? [y/N] ", dataset, kind, names)
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, nil
		}
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y"), nil
	}
}
