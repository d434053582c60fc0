// SPDX-License-Identifier: AGPL-3.0-or-later
//
// bqport deploys a tree of local SQL files to a BigQuery-shaped warehouse
// and reconciles remote state against what's on disk.

// Package resource implements the bijection between on-disk paths and
// fully-qualified warehouse resource identifiers.
package resource

import "fmt"

// Kind identifies the class of warehouse resource an ID refers to.
type Kind string

const (
	KindSchema           Kind = "SCHEMA"
	KindTable            Kind = "TABLE"
	KindView             Kind = "VIEW"
	KindMaterializedView Kind = "MATERIALIZED_VIEW"
	KindRoutine          Kind = "ROUTINE"
	KindModel            Kind = "MODEL"
)

// ID is a fully-qualified warehouse resource identifier: project.dataset[.name].
type ID struct {
	Project string
	Dataset string
	Name    string // empty for a dataset-scoped ID
	Kind    Kind
}

// String renders the identifier as project.dataset[.name], the canonical
// DAG node key.
func (id ID) String() string {
	if id.Name == "" {
		return fmt.Sprintf("%s.%s", id.Project, id.Dataset)
	}
	return fmt.Sprintf("%s.%s.%s", id.Project, id.Dataset, id.Name)
}

// SchemaID returns the dataset-scoped identifier this ID belongs to,
// dropping any resource name.
func (id ID) SchemaID() ID {
	return ID{Project: id.Project, Dataset: id.Dataset, Kind: KindSchema}
}

// Equal reports whether two IDs refer to the same resource.
func (id ID) Equal(other ID) bool {
	return id.Project == other.Project && id.Dataset == other.Dataset && id.Name == other.Name
}
