package present

import (
	"fmt"
	"slices"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/widget"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// Parse rebuilds an expression from a presentation tree, typically one a
// drag-and-drop layer has reordered. Condition values are coerced for the
// widget kind derived from the schema; the tree's own Widget field is not
// trusted.
func Parse(n *Node, r Resolver) (expr.Expression, error) {
	return parse(n, r, nil)
}

func parse(n *Node, r Resolver, at types.IndexPath) (expr.Expression, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: missing node at %s", types.ErrMalformedExpression, at)
	}
	if n.Negations < 0 {
		return nil, fmt.Errorf("%w: negative negation count at %s", types.ErrMalformedExpression, at)
	}

	var e expr.Expression
	switch n.Kind {
	case KindGroup:
		op := n.Operator
		if op == "" {
			op = expr.And
		}
		if !op.Valid() {
			return nil, fmt.Errorf("%w: unknown operator %q at %s", types.ErrMalformedExpression, n.Operator, at)
		}
		group := &expr.Combination{Operator: op}
		for i, c := range n.Children {
			child, err := parse(c, r, at.Child(i))
			if err != nil {
				return nil, err
			}
			group.Children = append(group.Children, child)
		}
		e = group

	case KindCondition:
		c, err := parseCondition(n, r, at)
		if err != nil {
			return nil, err
		}
		e = c

	default:
		return nil, fmt.Errorf("%w: unknown node kind %q at %s", types.ErrMalformedExpression, n.Kind, at)
	}
	return expr.Wrap(e, n.Negations), nil
}

func parseCondition(n *Node, r Resolver, at types.IndexPath) (*expr.Condition, error) {
	if len(n.FieldPath) == 0 {
		return &expr.Condition{Value: n.Value}, nil
	}
	if n.Lookup == "" {
		return nil, fmt.Errorf("%w: condition %v at %s has no lookup", types.ErrMalformedExpression, n.FieldPath, at)
	}
	fs, err := r.Resolve(n.FieldPath)
	if err != nil {
		return nil, fmt.Errorf("condition at %s: %w", at, err)
	}
	lookups, err := r.LookupsFor(fs)
	if err != nil {
		return nil, fmt.Errorf("condition at %s: %w", at, err)
	}
	if !slices.Contains(lookups, n.Lookup) {
		return nil, fmt.Errorf("%w: %q is not offered for %s (class %s) at %s",
			types.ErrUnknownLookup, n.Lookup, fs.Name, fs.Class, at)
	}
	value, err := widget.Coerce(widget.KindFor(fs, n.Lookup), n.Value)
	if err != nil {
		return nil, fmt.Errorf("condition at %s: %w", at, err)
	}
	return &expr.Condition{
		FieldPath: slices.Clone(n.FieldPath),
		Lookup:    n.Lookup,
		Value:     value,
	}, nil
}
