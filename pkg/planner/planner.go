// SPDX-License-Identifier: AGPL-3.0-or-later

// Package planner builds the global dependency DAG across a tree of SQL
// source files and attaches per-file tasks whose run condition depends
// on predecessor task completion.
package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"bqport/pkg/logging"
	"bqport/pkg/pool"
	"bqport/pkg/resource"
	"bqport/pkg/sqlanalyze"
	"bqport/pkg/sqlast"
	"bqport/pkg/task"
	"bqport/pkg/topo"
)

// Deployer is the Deploy Executor's consumed surface: given a file,
// deploy it and return a human-readable result message.
type Deployer interface {
	Deploy(ctx context.Context, file LocalFile) (string, error)
}

// Parser turns SQL text into the externally-supplied AST bqport's
// analyzer walks. The concrete SQL parser is out of scope; callers
// inject one (or pkg/sqlast/fake in tests).
type Parser func(sql string) (sqlast.Node, error)

// LocalFile is one discovered SQL file: its path, the resource identity
// its directory encodes, and its raw text.
type LocalFile struct {
	Path      string
	Namespace resource.ID
	SQL       string
}

// FileJob is a file paired with the dependency and destination
// identifiers the analyzer discovered for it.
type FileJob struct {
	File         LocalFile
	Deps         []string
	Destinations []string
}

// DagNode groups the ordered tasks belonging to one namespace. Files
// parallels Tasks index-for-index, so callers that need a file's
// source (the bundle command, which never executes tasks) can read it
// without re-running the planning pass.
type DagNode struct {
	Key   string
	Tasks []*task.Task
	Files []LocalFile
}

// Plan is the output of a single planning pass: a topological order of
// namespace keys, the DagNode for each, and any non-fatal warnings.
type Plan struct {
	Order    []string
	Nodes    map[string]*DagNode
	Warnings []string
}

// Execute dispatches every task in topological order through pool. Each
// task's own closure awaits its predecessors, so firing every task
// concurrently through the pool is safe: the closures themselves block
// until their dependencies are terminal.
func (p *Plan) Execute(ctx context.Context, workers *pool.Pool) error {
	for _, key := range p.Order {
		node, ok := p.Nodes[key]
		if !ok {
			continue
		}
		for _, t := range node.Tasks {
			t := t
			if err := workers.Go(ctx, func() { _ = t.Run(ctx) }); err != nil {
				return err
			}
		}
	}
	workers.Wait()
	return nil
}

// Planner builds Plans from a set of LocalFiles.
type Planner struct {
	AmbientProject string
	Parse          Parser
	Deploy         Deployer
	Logger         logging.Logger
}

// New creates a Planner.
func New(ambientProject string, parse Parser, deploy Deployer, logger logging.Logger) *Planner {
	return &Planner{AmbientProject: ambientProject, Parse: parse, Deploy: deploy, Logger: logger}
}

// Plan implements the deployment planning procedure in full: per-file
// namespace/dependency/destination extraction, relation-set
// construction, topological ordering into DagNodes, and predecessor-
// aware task closures.
func (p *Planner) Plan(ctx context.Context, files []LocalFile) (*Plan, error) {
	jobs := make([]FileJob, 0, len(files))
	filesByNamespace := make(map[string][]FileJob)

	for _, f := range files {
		root, err := p.Parse(f.SQL)
		if err != nil {
			return nil, fmt.Errorf("planner: parsing %s: %w", f.Path, err)
		}
		result := sqlanalyze.Analyze(root)

		namespaceKey := resource.Normalize(f.Namespace, p.AmbientProject, false)
		datasetKey := resource.Normalize(f.Namespace.SchemaID(), p.AmbientProject, true)

		destinations := make([]string, 0, len(result.Destinations))
		destinationSet := map[string]struct{}{}
		for _, d := range result.Destinations {
			norm := normalizeIdentifier(d.Identifier, p.AmbientProject)
			destinations = append(destinations, norm)
			destinationSet[norm] = struct{}{}
		}

		depSet := map[string]struct{}{datasetKey: {}}
		for _, r := range result.References {
			norm := normalizeIdentifier(r, p.AmbientProject)
			if _, isOwn := destinationSet[norm]; isOwn {
				continue // intra-file deps are suppressed
			}
			depSet[norm] = struct{}{}
		}
		delete(depSet, namespaceKey) // exclude self-reference

		deps := make([]string, 0, len(depSet))
		for d := range depSet {
			deps = append(deps, d)
		}
		sort.Strings(deps)
		sort.Strings(destinations)

		job := FileJob{File: f, Deps: deps, Destinations: destinations}
		jobs = append(jobs, job)
		filesByNamespace[namespaceKey] = append(filesByNamespace[namespaceKey], job)
	}

	for key, group := range filesByNamespace {
		filesByNamespace[key] = sortNamespaceFiles(group)
	}

	nodeSet := map[string]struct{}{}
	var edges []topo.Edge
	for _, job := range jobs {
		for _, d := range job.Destinations {
			nodeSet[d] = struct{}{}
			for _, s := range job.Deps {
				if s == d {
					continue
				}
				edges = append(edges, topo.Edge{From: d, To: s})
				nodeSet[s] = struct{}{}
			}
		}
	}
	for key := range filesByNamespace {
		nodeSet[key] = struct{}{}
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}

	order, err := topo.Sort(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	plan := &Plan{Nodes: make(map[string]*DagNode)}
	var warnings []string

	for _, key := range order {
		group, hasFiles := filesByNamespace[key]
		if !hasFiles {
			warnings = append(warnings, fmt.Sprintf("%s: no deployment files", key))
			continue
		}

		hasMatchingDestination := false
		for _, job := range group {
			for _, d := range job.Destinations {
				if d == key {
					hasMatchingDestination = true
				}
			}
		}
		if !hasMatchingDestination {
			warnings = append(warnings, fmt.Sprintf("%s: no DDL file but target directory found", key))
		}

		node := &DagNode{Key: key}
		for i, job := range group {
			taskName := taskNameFor(key, job.File.Path, len(group) > 1)
			node.Tasks = append(node.Tasks, p.newDeployTask(taskName, job, i, node, plan))
			node.Files = append(node.Files, job.File)
		}
		plan.Nodes[key] = node
		plan.Order = append(plan.Order, key)
	}

	plan.Warnings = warnings
	for _, w := range warnings {
		p.Logger.Warn(w)
	}
	return plan, nil
}

func (p *Planner) newDeployTask(name string, job FileJob, index int, node *DagNode, plan *Plan) *task.Task {
	return task.New(name, func(ctx context.Context) (string, error) {
		var predecessors []*task.Task
		for i := 0; i < index; i++ {
			predecessors = append(predecessors, node.Tasks[i])
		}
		for _, dep := range job.Deps {
			if depNode, ok := plan.Nodes[dep]; ok {
				predecessors = append(predecessors, depNode.Tasks...)
			}
		}

		var failedNames []string
		for _, pred := range predecessors {
			if err := pred.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				failedNames = append(failedNames, pred.Name)
			}
		}
		if len(failedNames) > 0 {
			return "", fmt.Errorf("suspended: parent failed: %s", strings.Join(failedNames, ", "))
		}

		return p.Deploy.Deploy(ctx, job.File)
	})
}

// sortNamespaceFiles orders files within a namespace per Decision D1:
// ddl.sql/view.sql first, then remaining files in lexicographic
// filename order.
func sortNamespaceFiles(files []FileJob) []FileJob {
	out := make([]FileJob, len(files))
	copy(out, files)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := filepath.Base(out[i].File.Path), filepath.Base(out[j].File.Path)
		pi, pj := schemaFilePriority(bi), schemaFilePriority(bj)
		if pi != pj {
			return pi < pj
		}
		return bi < bj
	})
	return out
}

func schemaFilePriority(base string) int {
	if base == "ddl.sql" || base == "view.sql" {
		return 0
	}
	return 1
}

// taskNameFor derives a progress-reporter task name from a namespace
// key, splitting on "." the way pkg/progress expects "/"-delimited
// names. When a namespace groups more than one file, the filename
// disambiguates tasks that would otherwise collide.
func taskNameFor(namespaceKey, path string, disambiguate bool) string {
	name := strings.ReplaceAll(namespaceKey, ".", "/")
	if disambiguate {
		return name + "/" + filepath.Base(path)
	}
	return name
}

// normalizeIdentifier renders a SQL-resolved identifier (1-3 dotted
// segments) as a canonical dotted string, padding a missing project
// with ambientProject. Per Decision D3, this is the only normalization
// applied — unlike path-derived identifiers, SQL references are never
// rewritten for an explicit @default segment (SQL text never contains
// one).
func normalizeIdentifier(text string, ambientProject string) string {
	parts := strings.Split(strings.TrimSpace(text), ".")
	switch len(parts) {
	case 1:
		return resource.Normalize(resource.ID{Name: parts[0]}, ambientProject, false)
	case 2:
		return resource.Normalize(resource.ID{Dataset: parts[0], Name: parts[1]}, ambientProject, false)
	default:
		project := strings.Join(parts[:len(parts)-2], ".")
		return resource.Normalize(resource.ID{Project: project, Dataset: parts[len(parts)-2], Name: parts[len(parts)-1]}, ambientProject, false)
	}
}
