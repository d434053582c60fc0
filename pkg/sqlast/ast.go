// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sqlast declares the walkable SQL AST surface bqport consumes.
// The concrete parser that produces these trees is out of scope for
// bqport — it is a pluggable collaborator supplied by the caller, the
// way a `sqlast.Node` tree is handed to the analyzer in a real
// deployment. See pkg/sqlast/fake for a hand-built tree used only in
// tests.
package sqlast

// Node is one node of a parsed SQL statement's syntax tree.
type Node interface {
	// Type is the grammar production this node represents, e.g.
	// "table_statement", "from_item", "non_recursive_cte".
	Type() string

	// Parent is the enclosing node, or nil at the root.
	Parent() Node

	// Children are this node's child nodes in source order.
	Children() []Node

	// Text is the node's verbatim source text.
	Text() string

	// TableNameNode is the identifier node naming a table/view/materialized
	// view target, or nil if this node has none.
	TableNameNode() Node

	// RoutineNameNode is the identifier node naming a function/procedure
	// target, or nil if this node has none.
	RoutineNameNode() Node

	// SchemaNameNode is the identifier node naming a dataset/schema
	// target, or nil if this node has none.
	SchemaNameNode() Node

	// ModelNameNode is the identifier node naming a model target, or nil
	// if this node has none.
	ModelNameNode() Node

	// AliasNameNode is the identifier node naming a CTE or subquery
	// alias, or nil if this node has none.
	AliasNameNode() Node

	// FunctionNode is the identifier node naming a called function, or
	// nil if this node has none.
	FunctionNode() Node
}

// Walk visits node and every descendant in depth-first, pre-order.
func Walk(node Node, visit func(Node)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node.Children() {
		Walk(child, visit)
	}
}
