// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fake provides a hand-built sqlast.Node tree builder used only
// by the pkg/sqlanalyze and pkg/planner tests — it stands in for the
// production SQL parser bqport does not implement.
package fake

import "bqport/pkg/sqlast"

// Node is an in-memory sqlast.Node used to build test fixtures.
type Node struct {
	NodeType string
	NodeText string
	parent   *Node
	children []*Node

	tableName   *Node
	routineName *Node
	schemaName  *Node
	modelName   *Node
	aliasName   *Node
	function    *Node
}

var _ sqlast.Node = (*Node)(nil)

// New creates a root node of the given type and text.
func New(nodeType, text string) *Node {
	return &Node{NodeType: nodeType, NodeText: text}
}

// AddChild appends child to node's children and sets child's parent.
func (n *Node) AddChild(child *Node) *Node {
	child.parent = n
	n.children = append(n.children, child)
	return n
}

// WithTableName sets the node's table-name identifier.
func (n *Node) WithTableName(name *Node) *Node { n.tableName = name; return n }

// WithRoutineName sets the node's routine-name identifier.
func (n *Node) WithRoutineName(name *Node) *Node { n.routineName = name; return n }

// WithSchemaName sets the node's schema-name identifier.
func (n *Node) WithSchemaName(name *Node) *Node { n.schemaName = name; return n }

// WithModelName sets the node's model-name identifier.
func (n *Node) WithModelName(name *Node) *Node { n.modelName = name; return n }

// WithAliasName sets the node's alias-name identifier.
func (n *Node) WithAliasName(name *Node) *Node { n.aliasName = name; return n }

// WithFunction sets the node's called-function identifier.
func (n *Node) WithFunction(name *Node) *Node { n.function = name; return n }

func (n *Node) Type() string { return n.NodeType }
func (n *Node) Text() string { return n.NodeText }

func (n *Node) Parent() sqlast.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []sqlast.Node {
	out := make([]sqlast.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) TableNameNode() sqlast.Node   { return asNode(n.tableName) }
func (n *Node) RoutineNameNode() sqlast.Node { return asNode(n.routineName) }
func (n *Node) SchemaNameNode() sqlast.Node  { return asNode(n.schemaName) }
func (n *Node) ModelNameNode() sqlast.Node   { return asNode(n.modelName) }
func (n *Node) AliasNameNode() sqlast.Node   { return asNode(n.aliasName) }
func (n *Node) FunctionNode() sqlast.Node    { return asNode(n.function) }

func asNode(n *Node) sqlast.Node {
	if n == nil {
		return nil
	}
	return n
}
