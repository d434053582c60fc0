// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"

	"bqport/pkg/planner"
	"bqport/pkg/warehouse"
)

// NewWarehouseClient and NewSQLParser are the production hooks for
// bqport's two out-of-scope collaborators: the warehouse client and the
// SQL parser. bqport itself ships neither implementation, only the
// interfaces they satisfy (pkg/warehouse, pkg/sqlast) and in-memory
// fakes for tests — a deployment embeds this binary with both vars set
// to its own concrete client and parser.
var (
	NewWarehouseClient func(projectID string) (warehouse.Client, error)
	NewSQLParser       func() planner.Parser
)

var errNoWarehouseClient = errors.New("bqport: no warehouse client wired into this build")
var errNoSQLParser = errors.New("bqport: no SQL parser wired into this build")
