package present

import (
	"fmt"
	"slices"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/widget"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// Render builds the presentation tree for e. Every condition is resolved
// against the schema and its value coerced for its widget, so an expression
// that renders is known to be valid and the tree holds canonical values.
func Render(e expr.Expression, r Resolver) (*Node, error) {
	return render(e, r, nil)
}

// Normalize renders e and parses the tree back, returning the canonical
// expression alongside its tree. Normalize(Normalize(e)) == Normalize(e).
func Normalize(e expr.Expression, r Resolver) (expr.Expression, *Node, error) {
	tree, err := Render(e, r)
	if err != nil {
		return nil, nil, err
	}
	canon, err := Parse(tree, r)
	if err != nil {
		return nil, nil, err
	}
	return canon, tree, nil
}

func render(e expr.Expression, r Resolver, at types.IndexPath) (*Node, error) {
	// Peel one negation at a time; each becomes a toggle on the node
	// rendered from what is inside.
	if neg, ok := e.(*expr.Negation); ok {
		if neg.Inner == nil {
			return nil, fmt.Errorf("%w: empty negation at %s", types.ErrMalformedExpression, at)
		}
		n, err := render(neg.Inner, r, at)
		if err != nil {
			return nil, err
		}
		n.Negations++
		return n, nil
	}

	switch v := e.(type) {
	case *expr.Condition:
		return renderCondition(v, r, at)
	case *expr.Combination:
		if !v.Operator.Valid() {
			return nil, fmt.Errorf("%w: unknown operator %q at %s", types.ErrMalformedExpression, v.Operator, at)
		}
		n := &Node{Kind: KindGroup, Operator: v.Operator, Children: make([]*Node, 0, len(v.Children))}
		for i, c := range v.Children {
			child, err := render(c, r, at.Child(i))
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: unexpected node %T at %s", types.ErrMalformedExpression, e, at)
}

func renderCondition(c *expr.Condition, r Resolver, at types.IndexPath) (*Node, error) {
	if c.Draft() {
		return &Node{Kind: KindCondition, Value: c.Value, Widget: widget.Text}, nil
	}
	if c.Lookup == "" {
		return nil, fmt.Errorf("%w: condition %v at %s has no lookup", types.ErrMalformedExpression, c.FieldPath, at)
	}
	if _, ok := c.Value.(expr.FunctionCall); ok {
		return nil, fmt.Errorf("%w: function call value of %s at %s", types.ErrUnsupportedValueType, c.Field(), at)
	}

	fs, err := r.Resolve(c.FieldPath)
	if err != nil {
		return nil, fmt.Errorf("condition at %s: %w", at, err)
	}
	lookups, err := r.LookupsFor(fs)
	if err != nil {
		return nil, fmt.Errorf("condition at %s: %w", at, err)
	}
	if !slices.Contains(lookups, c.Lookup) {
		return nil, fmt.Errorf("%w: %q is not offered for %s (class %s) at %s",
			types.ErrUnknownLookup, c.Lookup, fs.Name, fs.Class, at)
	}

	kind := widget.KindFor(fs, c.Lookup)
	value, err := widget.Coerce(kind, c.Value)
	if err != nil {
		return nil, fmt.Errorf("condition %s at %s: %w", c.Field(), at, err)
	}
	n := &Node{
		Kind:      KindCondition,
		FieldPath: slices.Clone(c.FieldPath),
		Labels:    r.Labels(c.FieldPath),
		Lookup:    c.Lookup,
		Lookups:   slices.Clone(lookups),
		Value:     value,
		Widget:    kind,
	}
	if kind == widget.Choice {
		n.Choices = slices.Clone(fs.Choices)
	}
	return n, nil
}
