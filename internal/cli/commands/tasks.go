// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bqport/pkg/planner"
	"bqport/pkg/task"
)

// allTasks flattens a Plan's per-namespace tasks in topological order
// for the progress reporter, which sorts them by name when it renders.
func allTasks(plan *planner.Plan) []*task.Task {
	var out []*task.Task
	for _, key := range plan.Order {
		node, ok := plan.Nodes[key]
		if !ok {
			continue
		}
		out = append(out, node.Tasks...)
	}
	return out
}
