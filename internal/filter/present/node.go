// Package present converts between expressions and the presentation tree a
// UI layer draws and edits. Render and Parse are pure and inverse to each
// other over canonical expressions.
package present

import (
	"fmt"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/filter/widget"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// NodeKind distinguishes groups from conditions.
type NodeKind string

const (
	KindGroup     NodeKind = "group"
	KindCondition NodeKind = "condition"
)

// Node is one element of the presentation tree.
//
// Negations counts the NOT toggles shown on the node. Nested negations are
// never cancelled: ["not", ["not", e]] shows two toggles.
type Node struct {
	Kind      NodeKind      `json:"kind" yaml:"kind"`
	Negations int           `json:"negations,omitempty" yaml:"negations,omitempty"`
	Operator  expr.Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Children  []*Node       `json:"children,omitempty" yaml:"children,omitempty"`

	FieldPath []string        `json:"field_path,omitempty" yaml:"field_path,omitempty"`
	Labels    []string        `json:"labels,omitempty" yaml:"labels,omitempty"`
	Lookup    string          `json:"lookup,omitempty" yaml:"lookup,omitempty"`
	Lookups   []string        `json:"lookups,omitempty" yaml:"lookups,omitempty"`
	Value     any             `json:"value" yaml:"value"`
	Widget    widget.Kind     `json:"widget,omitempty" yaml:"widget,omitempty"`
	Choices   []schema.Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Negated reports whether at least one NOT toggle is set.
func (n *Node) Negated() bool { return n.Negations > 0 }

// At returns the node addressed by path, using the same index paths as the
// editor operations.
func (n *Node) At(path types.IndexPath) (*Node, error) {
	cur := n
	for depth, idx := range path {
		if cur.Kind != KindGroup {
			return nil, fmt.Errorf("%w: node at %s is not a group", types.ErrInvalidPath, path[:depth])
		}
		if idx < 0 || idx >= len(cur.Children) {
			return nil, fmt.Errorf("%w: index %d at %s out of range (%d children)",
				types.ErrInvalidPath, idx, path[:depth], len(cur.Children))
		}
		cur = cur.Children[idx]
	}
	return cur, nil
}

// Walk visits every node depth-first, parents before children.
func (n *Node) Walk(fn func(path types.IndexPath, node *Node)) {
	var walk func(types.IndexPath, *Node)
	walk = func(p types.IndexPath, node *Node) {
		fn(p, node)
		for i, c := range node.Children {
			walk(p.Child(i), c)
		}
	}
	walk(nil, n)
}

// Resolver answers the schema questions rendering and parsing need.
type Resolver interface {
	Resolve(path []string) (*schema.FieldSpec, error)
	LookupsFor(f *schema.FieldSpec) ([]string, error)
	Labels(path []string) []string
}
