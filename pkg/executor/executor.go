// SPDX-License-Identifier: AGPL-3.0-or-later

// Package executor implements the Deploy Executor: submitting a query
// job per file to the warehouse, classifying the resulting job type,
// fetching the produced resource, and synchronizing metadata back to
// disk.
package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bqport/pkg/logging"
	"bqport/pkg/planner"
	"bqport/pkg/ratelimit"
	"bqport/pkg/resource"
	"bqport/pkg/warehouse"
)

// ErrUnsupportedStatement is returned when a completed job's
// statementType has no resolution rule, or names a statement this
// executor explicitly refuses to resolve (row access policies, models).
var ErrUnsupportedStatement = errors.New("executor: unsupported statement type")

// Executor deploys LocalFiles to a warehouse.Client. It implements
// planner.Deployer.
type Executor struct {
	Client             warehouse.Client
	Limiter            *ratelimit.Limiter
	Logger             logging.Logger
	AmbientProject     string
	DryRun             bool
	Labels             map[string]string
	Parameters         []warehouse.QueryParameter
	MaximumBytesBilled int64
}

// New creates an Executor.
func New(client warehouse.Client, limiter *ratelimit.Limiter, logger logging.Logger) *Executor {
	return &Executor{Client: client, Limiter: limiter, Logger: logger}
}

var _ planner.Deployer = (*Executor)(nil)

// Deploy submits file's SQL to the warehouse and resolves the produced
// resource, synchronizing its metadata back to disk when it is the
// file's own owning resource.
func (e *Executor) Deploy(ctx context.Context, file planner.LocalFile) (string, error) {
	if filepath.Base(file.Path) == "view.sql" {
		return e.deployView(ctx, file)
	}
	return e.deployQuery(ctx, file)
}

func (e *Executor) deployView(ctx context.Context, file planner.LocalFile) (string, error) {
	ns := file.Namespace
	viewQuery := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", resource.Normalize(ns, e.AmbientProject, false), file.SQL)

	if e.DryRun {
		meta, err := e.submit(ctx, warehouse.QueryJobConfig{Query: viewQuery, DryRun: true})
		if err != nil {
			return "", err
		}
		return formatEstimate(meta), nil
	}

	ds := e.Client.Dataset(ns.SchemaID())
	if err := e.wait(ctx); err != nil {
		return "", err
	}
	res, err := ds.Table(ns.Name).Get(ctx)
	if errors.Is(err, warehouse.ErrNotFound) {
		if err := e.wait(ctx); err != nil {
			return "", err
		}
		res, err = ds.CreateTable(ctx, ns.Name, file.SQL)
	}
	if err != nil {
		return "", fmt.Errorf("executor: creating view %s: %w", ns, err)
	}

	e.syncIfOwn(ctx, res, file)
	return "view deployed", nil
}

func (e *Executor) deployQuery(ctx context.Context, file planner.LocalFile) (string, error) {
	ns := file.Namespace
	cfg := warehouse.QueryJobConfig{
		Query:              file.SQL,
		Priority:           warehouse.PriorityBatch,
		Labels:             mergeLabels(e.Labels),
		JobIDPrefix:        fmt.Sprintf("bqport-%s_%s-%s-", ns.Dataset, ns.Name, uuid.NewString()),
		DryRun:             e.DryRun,
		MaximumBytesBilled: e.MaximumBytesBilled,
		Parameters:         e.Parameters,
	}

	if e.DryRun {
		meta, err := e.submit(ctx, cfg)
		if err != nil {
			return "", err
		}
		return formatEstimate(meta), nil
	}

	if err := e.wait(ctx); err != nil {
		return "", err
	}
	job, err := e.Client.CreateQueryJob(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("executor: submitting job for %s: %w", file.Path, err)
	}

	if err := e.wait(ctx); err != nil {
		return "", err
	}
	meta, err := job.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("executor: awaiting job for %s: %w", file.Path, err)
	}
	if meta.ErrorResult != nil {
		return "", fmt.Errorf("executor: job for %s failed: %s", file.Path, meta.ErrorResult.Message)
	}

	res, err := e.resolve(ctx, job.ID(), meta, ns)
	switch {
	case errors.Is(err, ErrUnsupportedStatement):
		return "", err
	case err != nil:
		e.Logger.Warn("metadata fetch failed after successful deploy", logging.NewField("file", file.Path), logging.NewField("error", err.Error()))
	case res != nil:
		e.syncIfOwn(ctx, res, file)
	}

	return formatResult(meta), nil
}

func (e *Executor) syncIfOwn(ctx context.Context, res warehouse.Resource, file planner.LocalFile) {
	if !res.ID().Equal(file.Namespace) {
		return
	}
	if err := e.wait(ctx); err != nil {
		return
	}
	if err := e.Client.SyncMetadata(ctx, res, filepath.Dir(file.Path), true); err != nil {
		e.Logger.Warn("metadata sync failed", logging.NewField("file", file.Path), logging.NewField("error", err.Error()))
	}
}

// resolve dispatches on meta.StatementType per the table in §4.6.
func (e *Executor) resolve(ctx context.Context, jobID string, meta warehouse.JobMetadata, ns resource.ID) (warehouse.Resource, error) {
	ds := e.Client.Dataset(ns.SchemaID())

	switch meta.StatementType {
	case "SCRIPT":
		return e.resolveScript(ctx, jobID, ds)

	case "CREATE_SCHEMA", "DROP_SCHEMA", "ALTER_SCHEMA":
		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		return ds.Get(ctx)

	case "CREATE_FUNCTION", "CREATE_TABLE_FUNCTION", "DROP_FUNCTION", "CREATE_PROCEDURE", "DROP_PROCEDURE":
		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		return ds.Routine(ns.Name).Get(ctx)

	case "CREATE_TABLE", "CREATE_VIEW", "CREATE_MATERIALIZED_VIEW", "CREATE_TABLE_AS_SELECT",
		"DROP_TABLE", "DROP_VIEW", "DROP_MATERIALIZED_VIEW", "ALTER_TABLE", "ALTER_VIEW",
		"INSERT", "UPDATE", "DELETE", "MERGE":
		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		return ds.Table(ns.Name).Get(ctx)

	case "CREATE_ROW_ACCESS_POLICY", "DROP_ROW_ACCESS_POLICY", "CREATE_MODEL", "EXPORT_MODEL":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStatement, meta.StatementType)

	default:
		return nil, fmt.Errorf("%w: statementType=%q statistics=%v", ErrUnsupportedStatement, meta.StatementType, meta.Statistics)
	}
}

// resolveScript enumerates jobID's child jobs and GETs the first DDL
// target that resolves, swallowing not-found.
func (e *Executor) resolveScript(ctx context.Context, jobID string, ds warehouse.Dataset) (warehouse.Resource, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	children, err := e.Client.ChildJobs(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("executor: listing child jobs for %s: %w", jobID, err)
	}

	for _, child := range children {
		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		meta, err := child.Metadata(ctx)
		if err != nil {
			continue
		}
		if meta.DDLTargetTable != nil {
			if err := e.wait(ctx); err != nil {
				return nil, err
			}
			if res, err := ds.Table(meta.DDLTargetTable.Name).Get(ctx); err == nil {
				return res, nil
			}
		}
		if meta.DDLTargetRoutine != nil {
			if err := e.wait(ctx); err != nil {
				return nil, err
			}
			if res, err := ds.Routine(meta.DDLTargetRoutine.Name).Get(ctx); err == nil {
				return res, nil
			}
		}
	}
	return nil, nil
}

func (e *Executor) submit(ctx context.Context, cfg warehouse.QueryJobConfig) (warehouse.JobMetadata, error) {
	if err := e.wait(ctx); err != nil {
		return warehouse.JobMetadata{}, err
	}
	job, err := e.Client.CreateQueryJob(ctx, cfg)
	if err != nil {
		return warehouse.JobMetadata{}, fmt.Errorf("executor: dry-run submit: %w", err)
	}
	return job.Metadata(ctx)
}

func (e *Executor) wait(ctx context.Context) error {
	if e.Limiter == nil {
		return nil
	}
	return e.Limiter.Wait(ctx)
}

func mergeLabels(user map[string]string) map[string]string {
	labels := map[string]string{"bqport": "true"}
	for k, v := range user {
		labels[k] = v
	}
	return labels
}

func formatEstimate(meta warehouse.JobMetadata) string {
	return fmt.Sprintf("estimated %d bytes", meta.EstimatedBytesProcessed)
}

func formatResult(meta warehouse.JobMetadata) string {
	if meta.TotalBytesProcessed == 0 && meta.EndTime.IsZero() {
		return "done"
	}
	elapsed := meta.EndTime.Sub(meta.CreationTime)
	if elapsed < 0 {
		elapsed = 0
	}
	return fmt.Sprintf("%d bytes, %s", meta.TotalBytesProcessed, elapsed.Round(time.Millisecond))
}
