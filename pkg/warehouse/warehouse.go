// SPDX-License-Identifier: AGPL-3.0-or-later

// Package warehouse declares the cloud data warehouse client bqport
// consumes. The concrete client (query submission, metadata fetch,
// resource delete against a real BigQuery-shaped API) is out of scope
// for bqport — it is a pluggable collaborator injected by the caller.
// See pkg/warehouse/fake for the in-memory double used by tests.
package warehouse

import (
	"context"
	"errors"
	"time"

	"bqport/pkg/resource"
)

// ErrNotFound is returned by Dataset/Table/Routine lookups when
// the resource does not exist remotely. Callers (notably the executor's
// SCRIPT child-job resolution) swallow this error deliberately.
var ErrNotFound = errors.New("warehouse: resource not found")

// Priority is a query job's scheduling priority.
type Priority string

const (
	PriorityInteractive Priority = "INTERACTIVE"
	PriorityBatch       Priority = "BATCH"
)

// QueryParameter is one bound query parameter.
type QueryParameter struct {
	Name  string // empty name means positional
	Type  string // type name as given, e.g. "INTEGER" or "STRING"
	Value any
}

// QueryJobConfig configures a submitted query job.
type QueryJobConfig struct {
	Query              string
	Priority           Priority
	Labels             map[string]string
	JobIDPrefix        string
	DryRun             bool
	MaximumBytesBilled int64
	Parameters         []QueryParameter
}

// JobError carries a terminal job's failure reason.
type JobError struct {
	Message string
}

// JobMetadata is the outcome of a completed (or dry-run) query job.
type JobMetadata struct {
	StatementType           string
	TotalBytesProcessed     int64
	TotalBytesBilled        int64
	EstimatedBytesProcessed int64
	CreationTime            time.Time
	EndTime                 time.Time
	ErrorResult             *JobError
	DDLTargetTable          *resource.ID
	DDLTargetRoutine        *resource.ID
	Statistics              map[string]string
}

// Job is a submitted (or in-flight) query job.
type Job interface {
	ID() string
	// Wait blocks until the job reaches a terminal state and returns
	// its metadata (the "promise()" of the consumed interface).
	Wait(ctx context.Context) (JobMetadata, error)
	// Metadata fetches the job's current metadata without waiting.
	Metadata(ctx context.Context) (JobMetadata, error)
}

// Resource is a single remote warehouse resource (table, routine, model,
// or dataset) identified by a resource.ID.
type Resource interface {
	ID() resource.ID
	Delete(ctx context.Context) error
}

// RoutineRef and TableRef resolve to a Resource or ErrNotFound.
type RoutineRef interface {
	Get(ctx context.Context) (Resource, error)
}

type TableRef interface {
	Get(ctx context.Context) (Resource, error)
}

// Dataset is a handle to one remote dataset (schema).
type Dataset interface {
	Get(ctx context.Context) (Resource, error)
	Exists(ctx context.Context) (bool, error)
	Routine(name string) RoutineRef
	Table(name string) TableRef
	CreateTable(ctx context.Context, name, viewQuery string) (Resource, error)
	Tables(ctx context.Context) ([]Resource, error)
	Routines(ctx context.Context) ([]Resource, error)
	Models(ctx context.Context) ([]Resource, error)
}

// Client is the warehouse RPC surface bqport's executor and reconciler
// consume.
type Client interface {
	ProjectID() string
	CreateQueryJob(ctx context.Context, cfg QueryJobConfig) (Job, error)
	ChildJobs(ctx context.Context, parentJobID string) ([]Job, error)
	Dataset(id resource.ID) Dataset
	// SyncMetadata mirrors res's labels/description/column descriptions
	// against the metadata.json sibling of dir. push=true writes remote
	// metadata to disk; push=false (pull direction) is not used by the
	// deploy executor, which only ever pushes.
	SyncMetadata(ctx context.Context, res Resource, dir string, push bool) error
}
