// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fake is an in-memory double of pkg/warehouse.Client for tests
// that exercise the planner, executor, and reconciler without a real
// warehouse backend.
package fake

import (
	"context"
	"fmt"
	"sync"

	"bqport/pkg/resource"
	"bqport/pkg/warehouse"
)

// JobResult is the scripted outcome for a query matching a Client's
// registered handler.
type JobResult struct {
	Metadata warehouse.JobMetadata
	Err      error
	Children []warehouse.JobMetadata // child jobs, for SCRIPT statements
}

// Handler decides the JobResult for a submitted query. Tests register
// one per expected query (or a catch-all keyed on "").
type Handler func(cfg warehouse.QueryJobConfig) JobResult

// Client is a scripted, in-memory warehouse.Client.
type Client struct {
	mu sync.Mutex

	projectID string
	handlers  map[string]Handler
	jobs      map[string]*job
	nextJobID int

	datasets map[string]*Dataset
}

// New creates an empty Client for the given ambient project.
func New(projectID string) *Client {
	return &Client{
		projectID: projectID,
		handlers:  make(map[string]Handler),
		jobs:      make(map[string]*job),
		datasets:  make(map[string]*Dataset),
	}
}

// Handle registers the result produced when a submitted query exactly
// matches query. Handle("", h) registers a catch-all used when no exact
// match is found.
func (c *Client) Handle(query string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[query] = h
}

// Dataset returns (creating if necessary) the named dataset's fake
// handle so tests can pre-seed its remote tables/routines/models.
func (c *Client) Dataset(id resource.ID) warehouse.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.Project + "." + id.Dataset
	ds, ok := c.datasets[key]
	if !ok {
		ds = &Dataset{id: resource.ID{Project: id.Project, Dataset: id.Dataset, Kind: resource.KindSchema}}
		c.datasets[key] = ds
	}
	return ds
}

func (c *Client) ProjectID() string { return c.projectID }

func (c *Client) CreateQueryJob(ctx context.Context, cfg warehouse.QueryJobConfig) (warehouse.Job, error) {
	c.mu.Lock()
	h, ok := c.handlers[cfg.Query]
	if !ok {
		h, ok = c.handlers[""]
	}
	c.nextJobID++
	id := fmt.Sprintf("%sjob%d", cfg.JobIDPrefix, c.nextJobID)
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("fake warehouse: no handler registered for query %q", cfg.Query)
	}

	result := h(cfg)
	j := &job{id: id, result: result}

	c.mu.Lock()
	c.jobs[id] = j
	for i, childMeta := range result.Children {
		childID := fmt.Sprintf("%s-child%d", id, i)
		c.jobs[childID] = &job{id: childID, result: JobResult{Metadata: childMeta}, parent: id}
	}
	c.mu.Unlock()

	return j, nil
}

func (c *Client) ChildJobs(ctx context.Context, parentJobID string) ([]warehouse.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []warehouse.Job
	for _, j := range c.jobs {
		if j.parent == parentJobID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (c *Client) SyncMetadata(ctx context.Context, res warehouse.Resource, dir string, push bool) error {
	return nil
}

type job struct {
	id     string
	parent string
	result JobResult
}

func (j *job) ID() string { return j.id }

func (j *job) Wait(ctx context.Context) (warehouse.JobMetadata, error) {
	return j.result.Metadata, j.result.Err
}

func (j *job) Metadata(ctx context.Context) (warehouse.JobMetadata, error) {
	return j.result.Metadata, j.result.Err
}

// Dataset is the fake's in-memory Dataset handle.
type Dataset struct {
	mu sync.Mutex

	id       resource.ID
	exists   bool
	tables   map[string]*Resource
	routines map[string]*Resource
	models   map[string]*Resource
}

func (d *Dataset) ensureMaps() {
	if d.tables == nil {
		d.tables = make(map[string]*Resource)
	}
	if d.routines == nil {
		d.routines = make(map[string]*Resource)
	}
	if d.models == nil {
		d.models = make(map[string]*Resource)
	}
}

// Seed marks the dataset as existing remotely and registers tables,
// routines, and models by name for lookup/diff in tests.
func (d *Dataset) Seed(tables, routines, models []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensureMaps()
	d.exists = true
	for _, name := range tables {
		d.tables[name] = &Resource{id: resource.ID{Project: d.id.Project, Dataset: d.id.Dataset, Name: name, Kind: resource.KindTable}}
	}
	for _, name := range routines {
		d.routines[name] = &Resource{id: resource.ID{Project: d.id.Project, Dataset: d.id.Dataset, Name: name, Kind: resource.KindRoutine}}
	}
	for _, name := range models {
		d.models[name] = &Resource{id: resource.ID{Project: d.id.Project, Dataset: d.id.Dataset, Name: name, Kind: resource.KindModel}}
	}
}

func (d *Dataset) Get(ctx context.Context) (warehouse.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.exists {
		return nil, warehouse.ErrNotFound
	}
	return &Resource{id: d.id}, nil
}

func (d *Dataset) Exists(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exists, nil
}

func (d *Dataset) Routine(name string) warehouse.RoutineRef {
	return refFunc(func(ctx context.Context) (warehouse.Resource, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.ensureMaps()
		if r, ok := d.routines[name]; ok {
			return r, nil
		}
		return nil, warehouse.ErrNotFound
	})
}

func (d *Dataset) Table(name string) warehouse.TableRef {
	return refFunc(func(ctx context.Context) (warehouse.Resource, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.ensureMaps()
		if r, ok := d.tables[name]; ok {
			return r, nil
		}
		return nil, warehouse.ErrNotFound
	})
}

func (d *Dataset) CreateTable(ctx context.Context, name, viewQuery string) (warehouse.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensureMaps()
	d.exists = true
	r := &Resource{id: resource.ID{Project: d.id.Project, Dataset: d.id.Dataset, Name: name, Kind: resource.KindView}}
	d.tables[name] = r
	return r, nil
}

func (d *Dataset) Tables(ctx context.Context) ([]warehouse.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return resourceValues(d.tables), nil
}

func (d *Dataset) Routines(ctx context.Context) ([]warehouse.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return resourceValues(d.routines), nil
}

func (d *Dataset) Models(ctx context.Context) ([]warehouse.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return resourceValues(d.models), nil
}

func resourceValues(m map[string]*Resource) []warehouse.Resource {
	out := make([]warehouse.Resource, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	return out
}

type refFunc func(ctx context.Context) (warehouse.Resource, error)

func (f refFunc) Get(ctx context.Context) (warehouse.Resource, error) { return f(ctx) }

// Resource is the fake's in-memory Resource.
type Resource struct {
	id      resource.ID
	Deleted bool
}

func (r *Resource) ID() resource.ID { return r.id }

func (r *Resource) Delete(ctx context.Context) error {
	r.Deleted = true
	return nil
}
