// SPDX-License-Identifier: AGPL-3.0-or-later

package resource

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned when a path cannot be mapped to a resource identifier.
var ErrInvalidPath = errors.New("resource: invalid path")

// DefaultSegment is the path segment substituted with the client's ambient project.
const DefaultSegment = "@default"

// RoutinesSegment qualifies a resource as a routine (function or procedure).
const RoutinesSegment = "@routines"

// ModelsSegment qualifies a resource as a model.
const ModelsSegment = "@models"

// PathToID maps an on-disk path to a fully-qualified resource identifier.
//
// path must be rooted at root; the segment layout is:
//
//	<root>/<project-or-@default>/<dataset>/[<@routines|@models>/<name>|<name>]/<filename>.sql
func PathToID(path, root, ambientProject string) (ID, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %s is not under root %s", ErrInvalidPath, path, root)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return ID{}, fmt.Errorf("%w: %s is not under root %s", ErrInvalidPath, path, root)
	}

	segments := strings.Split(rel, "/")
	if len(segments) < 3 {
		return ID{}, fmt.Errorf("%w: %s has too few path segments", ErrInvalidPath, path)
	}

	project := segments[0]
	if project == DefaultSegment {
		if ambientProject == "" {
			return ID{}, fmt.Errorf("%w: %s uses @default but no ambient project was supplied", ErrInvalidPath, path)
		}
		project = ambientProject
	}
	if project == "" {
		return ID{}, fmt.Errorf("%w: %s has an empty project segment", ErrInvalidPath, path)
	}

	dataset := segments[1]
	if dataset == "" {
		return ID{}, fmt.Errorf("%w: %s has an empty dataset segment", ErrInvalidPath, path)
	}

	middle := segments[2 : len(segments)-1]

	switch {
	case len(middle) == 0:
		// <root>/<project>/<dataset>/<filename>.sql — targets the dataset itself.
		return ID{Project: project, Dataset: dataset, Kind: KindSchema}, nil

	case middle[0] == RoutinesSegment:
		if len(middle) < 2 || middle[1] == "" {
			return ID{}, fmt.Errorf("%w: %s is missing a routine name after @routines", ErrInvalidPath, path)
		}
		return ID{Project: project, Dataset: dataset, Name: middle[1], Kind: KindRoutine}, nil

	case middle[0] == ModelsSegment:
		if len(middle) < 2 || middle[1] == "" {
			return ID{}, fmt.Errorf("%w: %s is missing a model name after @models", ErrInvalidPath, path)
		}
		return ID{Project: project, Dataset: dataset, Name: middle[1], Kind: KindModel}, nil

	default:
		// <root>/<project>/<dataset>/<name>/<filename>.sql — table/view, kind
		// disambiguated later by the analyzer/executor (view.sql vs ddl.sql).
		return ID{Project: project, Dataset: dataset, Name: middle[0], Kind: KindTable}, nil
	}
}

// IDToPath is the inverse of PathToID for legal, fully-qualified ids: it
// reconstructs the directory that would hold the id's definition file.
// The caller appends the filename (ddl.sql, view.sql, metadata.json).
func IDToPath(id ID, root string) (string, error) {
	if id.Project == "" || id.Dataset == "" {
		return "", fmt.Errorf("%w: id %v is missing project or dataset", ErrInvalidPath, id)
	}

	switch id.Kind {
	case KindSchema:
		return filepath.Join(root, id.Project, id.Dataset), nil
	case KindRoutine:
		if id.Name == "" {
			return "", fmt.Errorf("%w: routine id %v has no name", ErrInvalidPath, id)
		}
		return filepath.Join(root, id.Project, id.Dataset, RoutinesSegment, id.Name), nil
	case KindModel:
		if id.Name == "" {
			return "", fmt.Errorf("%w: model id %v has no name", ErrInvalidPath, id)
		}
		return filepath.Join(root, id.Project, id.Dataset, ModelsSegment, id.Name), nil
	default:
		if id.Name == "" {
			return "", fmt.Errorf("%w: id %v has no name", ErrInvalidPath, id)
		}
		return filepath.Join(root, id.Project, id.Dataset, id.Name), nil
	}
}

// Normalize renders id as a canonical dotted identifier string. Missing
// project segments are padded with ambientProject; when schemaOnly is
// true the resource-name segment is dropped even if present.
func Normalize(id ID, ambientProject string, schemaOnly bool) string {
	project := id.Project
	if project == "" {
		project = ambientProject
	}

	if schemaOnly || id.Name == "" {
		return fmt.Sprintf("%s.%s", project, id.Dataset)
	}

	return fmt.Sprintf("%s.%s.%s", project, id.Dataset, id.Name)
}
