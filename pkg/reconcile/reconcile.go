// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reconcile implements the Reconciliation Planner: diffing a
// dataset's remote inventory against local paths and scheduling
// deletion tasks for orphaned remote resources.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"bqport/pkg/logging"
	"bqport/pkg/pool"
	"bqport/pkg/resource"
	"bqport/pkg/task"
	"bqport/pkg/warehouse"
)

// Prompt asks the operator whether to proceed deleting the named
// residual resources of one kind in one dataset. It is invoked
// serially on the CLI's stdin, outside any task closure.
type Prompt func(dataset resource.ID, kind resource.Kind, names []string) (bool, error)

// Planner diffs one dataset's remote inventory against local paths.
type Planner struct {
	Client         warehouse.Client
	Logger         logging.Logger
	AmbientProject string
	Force          bool
	DryRun         bool
	Confirm        Prompt
}

// New creates a Planner.
func New(client warehouse.Client, logger logging.Logger, ambientProject string, force, dryRun bool, confirm Prompt) *Planner {
	return &Planner{Client: client, Logger: logger, AmbientProject: ambientProject, Force: force, DryRun: dryRun, Confirm: confirm}
}

// Plan is the output of one dataset's reconciliation pass.
type Plan struct {
	Tasks    []*task.Task
	failures int64
}

// Execute dispatches every deletion task through workers and, once all
// are terminal, logs the aggregate failure count per Decision D2.
func (p *Plan) Execute(ctx context.Context, workers *pool.Pool, logger logging.Logger) error {
	for _, t := range p.Tasks {
		t := t
		if err := workers.Go(ctx, func() { _ = t.Run(ctx) }); err != nil {
			return err
		}
	}
	workers.Wait()

	if failed := atomic.LoadInt64(&p.failures); failed > 0 {
		logger.Warn(fmt.Sprintf("reconcile: %d of %d deletions failed", failed, len(p.Tasks)))
	}
	return nil
}

// Plan implements §4.7: snapshot the dataset's remote routines, models,
// and tables; subtract every resource a local path accounts for;
// confirm (unless force/dry-run); and build one deletion Task per
// residual.
func (p *Planner) Plan(ctx context.Context, root string, datasetID resource.ID, localPaths []string) (*Plan, error) {
	ds := p.Client.Dataset(datasetID)

	tables, err := ds.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing tables in %s: %w", datasetID, err)
	}
	routines, err := ds.Routines(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing routines in %s: %w", datasetID, err)
	}
	models, err := ds.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing models in %s: %w", datasetID, err)
	}

	tableMap := indexByName(tables)
	routineMap := indexByName(routines)
	modelMap := indexByName(models)

	for _, path := range localPaths {
		id, err := resource.PathToID(path, root, p.AmbientProject)
		if err != nil {
			continue
		}
		if !id.SchemaID().Equal(datasetID) {
			continue
		}
		switch id.Kind {
		case resource.KindRoutine:
			delete(routineMap, id.Name)
		case resource.KindModel:
			delete(modelMap, id.Name)
		default:
			delete(tableMap, id.Name)
		}
	}

	plan := &Plan{}
	plan.Tasks = append(plan.Tasks, p.orphanTasks(ctx, datasetID, resource.KindRoutine, routineMap, plan)...)
	plan.Tasks = append(plan.Tasks, p.orphanTasks(ctx, datasetID, resource.KindModel, modelMap, plan)...)
	plan.Tasks = append(plan.Tasks, p.orphanTasks(ctx, datasetID, resource.KindTable, tableMap, plan)...)

	return plan, nil
}

func (p *Planner) orphanTasks(ctx context.Context, datasetID resource.ID, kind resource.Kind, residual map[string]warehouse.Resource, plan *Plan) []*task.Task {
	if len(residual) == 0 {
		return nil
	}

	names := make([]string, 0, len(residual))
	for name := range residual {
		names = append(names, name)
	}
	sort.Strings(names)

	if !p.Force && !p.DryRun {
		proceed, err := p.Confirm(datasetID, kind, names)
		if err != nil || !proceed {
			return nil
		}
	}

	tasks := make([]*task.Task, 0, len(names))
	for _, name := range names {
		res := residual[name]
		taskName := fmt.Sprintf("%s/%s/(DELETE)/%s/%s", datasetID.Project, datasetID.Dataset, kind, name)
		dryRun := p.DryRun
		failures := &plan.failures

		tasks = append(tasks, task.New(taskName, func(ctx context.Context) (string, error) {
			if dryRun {
				return "would delete (dry run)", nil
			}
			if err := res.Delete(ctx); err != nil {
				atomic.AddInt64(failures, 1)
				return "delete failed, swallowed", nil
			}
			return "deleted", nil
		}))
	}
	return tasks
}

func indexByName(resources []warehouse.Resource) map[string]warehouse.Resource {
	m := make(map[string]warehouse.Resource, len(resources))
	for _, r := range resources {
		m[r.ID().Name] = r
	}
	return m
}
