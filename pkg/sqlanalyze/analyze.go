// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sqlanalyze classifies identifier nodes in a parsed SQL
// statement into the destinations a file creates and the resources it
// references, suppressing CTE-local names.
package sqlanalyze

import (
	"strings"

	"bqport/pkg/resource"
	"bqport/pkg/sqlast"
)

// Destination is a resource a file creates, drops, or alters.
type Destination struct {
	Identifier string
	Kind       resource.Kind
}

// Result is the outcome of analyzing one file's SQL text.
type Result struct {
	Destinations []Destination
	References   []string
}

const (
	typeSchemaStatement      = "schema_statement"
	typeTableStatement       = "table_statement"
	typeProcedureStatement   = "procedure_statement"
	typeFunctionStatement    = "function_statement"
	typeCreateModelStatement = "create_model_statement"
	typeFromItem             = "from_item"
	typeFunctionCall         = "function_call"
	typeCallStatement        = "call_statement"
	typeNonRecursiveCTE      = "non_recursive_cte"
)

// Analyze walks root and classifies every identifier node it finds per
// its parent construct, returning destinations and (CTE-suppressed)
// references.
func Analyze(root sqlast.Node) Result {
	var destinations []Destination
	var rawReferences []string
	cteLocal := map[string]struct{}{}

	sqlast.Walk(root, func(n sqlast.Node) {
		switch n.Type() {
		case typeSchemaStatement:
			if id := n.SchemaNameNode(); id != nil {
				destinations = append(destinations, Destination{Identifier: id.Text(), Kind: resource.KindSchema})
			}

		case typeTableStatement:
			if id := n.TableNameNode(); id != nil {
				destinations = append(destinations, Destination{Identifier: id.Text(), Kind: resource.KindTable})
			}

		case typeProcedureStatement, typeFunctionStatement:
			if id := n.RoutineNameNode(); id != nil {
				destinations = append(destinations, Destination{Identifier: id.Text(), Kind: resource.KindRoutine})
			}

		case typeCreateModelStatement:
			if id := n.ModelNameNode(); id != nil {
				destinations = append(destinations, Destination{Identifier: id.Text(), Kind: resource.KindModel})
			}

		case typeCallStatement:
			if id := n.RoutineNameNode(); id != nil {
				rawReferences = append(rawReferences, id.Text())
			}

		case typeFromItem:
			if id := n.TableNameNode(); id != nil {
				rawReferences = append(rawReferences, id.Text())
			}

		case typeFunctionCall:
			if id := n.FunctionNode(); id != nil {
				rawReferences = append(rawReferences, id.Text())
			}

		case typeNonRecursiveCTE:
			if id := n.AliasNameNode(); id != nil {
				cteLocal[id.Text()] = struct{}{}
			}

		default:
			if isCatchAllDestination(n.Type()) {
				if id := destinationNameNode(n); id != nil {
					destinations = append(destinations, Destination{Identifier: id.Text(), Kind: resource.KindTable})
				}
			}
		}
	})

	references := make([]string, 0, len(rawReferences))
	for _, ref := range rawReferences {
		if _, suppressed := cteLocal[strings.TrimSpace(ref)]; suppressed {
			continue
		}
		references = append(references, ref)
	}

	return Result{Destinations: destinations, References: references}
}

// isCatchAllDestination reports whether a node type is a top-level
// "*_statement" production not handled by one of the explicit cases
// above. This fallback is load-bearing: statements like INSERT, UPDATE,
// DELETE and MERGE land here and are treated as TABLE destinations
// (CREATE/ALTER/DROP TABLE and VIEW are table_statement, handled above).
func isCatchAllDestination(nodeType string) bool {
	if !strings.HasSuffix(nodeType, "_statement") {
		return false
	}
	switch nodeType {
	case typeSchemaStatement, typeTableStatement, typeProcedureStatement,
		typeFunctionStatement, typeCreateModelStatement, typeCallStatement:
		return false
	default:
		return true
	}
}

func destinationNameNode(n sqlast.Node) sqlast.Node {
	if id := n.TableNameNode(); id != nil {
		return id
	}
	if id := n.SchemaNameNode(); id != nil {
		return id
	}
	if id := n.RoutineNameNode(); id != nil {
		return id
	}
	if id := n.ModelNameNode(); id != nil {
		return id
	}
	return nil
}
