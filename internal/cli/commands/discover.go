// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bqport/pkg/planner"
	"bqport/pkg/resource"
)

// discoverFiles walks root for SQL source files, maps each to a
// resource identifier, and restricts the result to the given projects
// when non-empty (matching either the literal project segment or
// "@default" when the ambient project is named).
func discoverFiles(root, ambientProject string, projects []string) ([]planner.LocalFile, error) {
	var files []planner.LocalFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		id, err := resource.PathToID(path, root, ambientProject)
		if err != nil {
			return fmt.Errorf("discovering %s: %w", path, err)
		}
		if !projectSelected(id.Project, ambientProject, projects) {
			return nil
		}

		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		files = append(files, planner.LocalFile{Path: path, Namespace: id, SQL: string(body)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func projectSelected(project, ambientProject string, projects []string) bool {
	if len(projects) == 0 {
		return true
	}
	for _, p := range projects {
		if p == project || (p == resource.DefaultSegment && project == ambientProject) {
			return true
		}
	}
	return false
}

// datasetIDs returns the distinct dataset identifiers touched by files.
func datasetIDs(files []planner.LocalFile) []resource.ID {
	seen := map[string]resource.ID{}
	for _, f := range files {
		ds := f.Namespace.SchemaID()
		seen[ds.String()] = ds
	}
	out := make([]resource.ID, 0, len(seen))
	for _, id := range seen {
		out = append(out, id)
	}
	return out
}
