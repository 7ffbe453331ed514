package expr

import (
	"fmt"
	"slices"

	"github.com/matthewbaird/filtereditor/internal/types"
)

// At returns the expression stored at path, negation wrappers included.
func At(root Expression, path types.IndexPath) (Expression, error) {
	cur := root
	for depth, idx := range path {
		group, err := groupAt(cur, path[:depth])
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(group.Children) {
			return nil, fmt.Errorf("%w: index %d at %s out of range (%d children)",
				types.ErrInvalidPath, idx, path[:depth], len(group.Children))
		}
		cur = group.Children[idx]
	}
	return cur, nil
}

func groupAt(e Expression, at types.IndexPath) (*Combination, error) {
	inner, _ := Unwrap(e)
	group, ok := inner.(*Combination)
	if !ok {
		return nil, fmt.Errorf("%w: node at %s is not a group", types.ErrInvalidPath, at)
	}
	return group, nil
}

// Update returns a copy of root in which the node at path has been replaced
// by fn's result. Only the nodes along path are copied; root itself is
// never modified. Negation wrappers of every ancestor are preserved.
func Update(root Expression, path types.IndexPath, fn func(Expression) (Expression, error)) (Expression, error) {
	return update(root, path, nil, fn)
}

func update(node Expression, rest, walked types.IndexPath, fn func(Expression) (Expression, error)) (Expression, error) {
	if len(rest) == 0 {
		return fn(node)
	}
	inner, negations := Unwrap(node)
	group, ok := inner.(*Combination)
	if !ok {
		return nil, fmt.Errorf("%w: node at %s is not a group", types.ErrInvalidPath, walked)
	}
	idx := rest[0]
	if idx < 0 || idx >= len(group.Children) {
		return nil, fmt.Errorf("%w: index %d at %s out of range (%d children)",
			types.ErrInvalidPath, idx, walked, len(group.Children))
	}
	child, err := update(group.Children[idx], rest[1:], walked.Child(idx), fn)
	if err != nil {
		return nil, err
	}
	children := slices.Clone(group.Children)
	children[idx] = child
	return Wrap(&Combination{Operator: group.Operator, Children: children}, negations), nil
}
