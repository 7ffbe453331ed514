// Package editor owns one filter expression and applies the structural
// edits a UI issues against it. Every operation addresses its target with
// an index path, builds the new tree aside, validates it by rendering, and
// only then commits and notifies the change callback.
//
// An Editor is not safe for concurrent use. Callers dispatch one operation
// at a time.
package editor

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/present"
	"github.com/matthewbaird/filtereditor/internal/filter/widget"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// ChangeFunc receives the wire form of the filter after every committed
// operation.
type ChangeFunc func(filter []any)

// Option configures an Editor.
type Option func(*Editor)

// WithOnChange sets the change callback.
func WithOnChange(fn ChangeFunc) Option {
	return func(e *Editor) { e.onChange = fn }
}

// WithLogger sets the logger used for operation traces.
func WithLogger(l logr.Logger) Option {
	return func(e *Editor) { e.log = l }
}

// Editor holds the expression being edited and its rendered presentation.
type Editor struct {
	resolver present.Resolver
	root     expr.Expression
	tree     *present.Node
	onChange ChangeFunc
	log      logr.Logger
}

// New creates an editor over initial, or over the empty AND when initial
// is nil. An initial expression that does not render fails construction.
func New(r present.Resolver, initial expr.Expression, opts ...Option) (*Editor, error) {
	e := &Editor{resolver: r, log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	if initial == nil {
		initial = expr.Empty()
	}
	root, tree, err := present.Normalize(initial, r)
	if err != nil {
		return nil, fmt.Errorf("initial filter: %w", err)
	}
	e.root, e.tree = root, tree
	return e, nil
}

// NewFromWire is New for a decoded wire value; nil means the empty AND.
func NewFromWire(r present.Resolver, raw any, opts ...Option) (*Editor, error) {
	if raw == nil {
		return New(r, nil, opts...)
	}
	initial, err := expr.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("initial filter: %w", err)
	}
	return New(r, initial, opts...)
}

// Expression returns a copy of the current expression, drafts included.
func (e *Editor) Expression() expr.Expression { return expr.Clone(e.root) }

// Value returns the current wire form. Draft conditions are left out.
func (e *Editor) Value() []any { return expr.Encode(e.root) }

// Tree returns the current presentation tree. It is rebuilt after every
// operation and must be treated as read-only; edits go through the editor.
func (e *Editor) Tree() *present.Node { return e.tree }

// AddCondition appends a draft condition to the group at parent. The draft
// has no field yet; SetField picks one and sets the first offered lookup.
func (e *Editor) AddCondition(parent types.IndexPath) error {
	return e.apply("add_condition", parent, func(slot expr.Expression) (expr.Expression, error) {
		return withGroup(slot, parent, func(g *expr.Combination) (expr.Expression, error) {
			g.Children = append(g.Children, &expr.Condition{Value: ""})
			return g, nil
		})
	})
}

// AddGroup appends an empty group with the given operator to the group at
// parent.
func (e *Editor) AddGroup(parent types.IndexPath, op expr.Operator) error {
	if !op.Valid() {
		return fmt.Errorf("add_group: %w: unknown operator %q", types.ErrMalformedExpression, op)
	}
	return e.apply("add_group", parent, func(slot expr.Expression) (expr.Expression, error) {
		return withGroup(slot, parent, func(g *expr.Combination) (expr.Expression, error) {
			g.Children = append(g.Children, &expr.Combination{Operator: op})
			return g, nil
		})
	})
}

// DeleteNode removes the node at path from its group. A group left without
// children is replaced, negations included, by the empty AND; the collapse
// does not propagate further up.
func (e *Editor) DeleteNode(path types.IndexPath) error {
	parent, ok := path.Parent()
	if !ok {
		return fmt.Errorf("delete: %w: the root cannot be deleted", types.ErrInvalidPath)
	}
	idx := path.Last()
	return e.apply("delete", parent, func(slot expr.Expression) (expr.Expression, error) {
		inner, negations := expr.Unwrap(slot)
		g, ok := inner.(*expr.Combination)
		if !ok {
			return nil, fmt.Errorf("%w: node at %s is not a group", types.ErrInvalidPath, parent)
		}
		if idx < 0 || idx >= len(g.Children) {
			return nil, fmt.Errorf("%w: index %d at %s out of range (%d children)",
				types.ErrInvalidPath, idx, parent, len(g.Children))
		}
		children := slices.Delete(slices.Clone(g.Children), idx, idx+1)
		if len(children) == 0 {
			return expr.Empty(), nil
		}
		return expr.Wrap(&expr.Combination{Operator: g.Operator, Children: children}, negations), nil
	})
}

// ToggleNegation flips the node at path between negated and plain. The
// choice goes by parity: an odd number of wrappers loses one, an even number
// (zero included) gains one, so applying it twice restores the tree.
func (e *Editor) ToggleNegation(path types.IndexPath) error {
	return e.apply("toggle_not", path, func(slot expr.Expression) (expr.Expression, error) {
		inner, negations := expr.Unwrap(slot)
		if negations%2 == 1 {
			return expr.Wrap(inner, negations-1), nil
		}
		return expr.Wrap(inner, negations+1), nil
	})
}

// ChangeOperator sets the operator of the group at path. Children and
// negation are untouched.
func (e *Editor) ChangeOperator(path types.IndexPath, op expr.Operator) error {
	if !op.Valid() {
		return fmt.Errorf("change_operator: %w: unknown operator %q", types.ErrMalformedExpression, op)
	}
	return e.apply("change_operator", path, func(slot expr.Expression) (expr.Expression, error) {
		return withGroup(slot, path, func(g *expr.Combination) (expr.Expression, error) {
			g.Operator = op
			return g, nil
		})
	})
}

// SetField points the condition at path to a new field. The lookup becomes
// the first one offered for the field and the value is reset.
func (e *Editor) SetField(path types.IndexPath, fieldPath []string) error {
	fs, err := e.resolver.Resolve(fieldPath)
	if err != nil {
		return fmt.Errorf("set_field: %w", err)
	}
	lookups, err := e.resolver.LookupsFor(fs)
	if err != nil {
		return fmt.Errorf("set_field: %w", err)
	}
	lookup := lookups[0]
	return e.apply("set_field", path, func(slot expr.Expression) (expr.Expression, error) {
		return withCondition(slot, path, func(c *expr.Condition) error {
			c.FieldPath = slices.Clone(fieldPath)
			c.Lookup = lookup
			c.Value = widget.Default(widget.KindFor(fs, lookup))
			return nil
		})
	})
}

// SetLookup changes the lookup of the condition at path. The value is kept
// when the widget kind stays the same and reset otherwise.
func (e *Editor) SetLookup(path types.IndexPath, lookup string) error {
	return e.apply("set_lookup", path, func(slot expr.Expression) (expr.Expression, error) {
		return withCondition(slot, path, func(c *expr.Condition) error {
			if c.Draft() {
				return fmt.Errorf("%w: condition at %s has no field yet", types.ErrInvalidPath, path)
			}
			fs, err := e.resolver.Resolve(c.FieldPath)
			if err != nil {
				return err
			}
			lookups, err := e.resolver.LookupsFor(fs)
			if err != nil {
				return err
			}
			if !slices.Contains(lookups, lookup) {
				return fmt.Errorf("%w: %q is not offered for %s (class %s)",
					types.ErrUnknownLookup, lookup, fs.Name, fs.Class)
			}
			if widget.KindFor(fs, c.Lookup) != widget.KindFor(fs, lookup) {
				c.Value = widget.Default(widget.KindFor(fs, lookup))
			}
			c.Lookup = lookup
			return nil
		})
	})
}

// SetValue stores raw input as the value of the condition at path, coerced
// for the condition's widget kind.
func (e *Editor) SetValue(path types.IndexPath, raw any) error {
	return e.apply("set_value", path, func(slot expr.Expression) (expr.Expression, error) {
		return withCondition(slot, path, func(c *expr.Condition) error {
			if c.Draft() {
				return fmt.Errorf("%w: condition at %s has no field yet", types.ErrInvalidPath, path)
			}
			fs, err := e.resolver.Resolve(c.FieldPath)
			if err != nil {
				return err
			}
			v, err := widget.Coerce(widget.KindFor(fs, c.Lookup), raw)
			if err != nil {
				return err
			}
			c.Value = v
			return nil
		})
	})
}

// Replace rebuilds the expression from a presentation tree, as reported by
// a drag-and-drop layer after reordering.
func (e *Editor) Replace(tree *present.Node) error {
	next, err := present.Parse(tree, e.resolver)
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return e.commit("replace", next)
}

// Reset replaces the whole expression, e.g. when a client loads a saved
// filter.
func (e *Editor) Reset(next expr.Expression) error {
	if next == nil {
		next = expr.Empty()
	}
	return e.commit("reset", expr.Clone(next))
}

func (e *Editor) apply(op string, path types.IndexPath, fn func(expr.Expression) (expr.Expression, error)) error {
	next, err := expr.Update(e.root, path, fn)
	if err != nil {
		return fmt.Errorf("%s at %s: %w", op, path, err)
	}
	return e.commit(op, next)
}

// commit normalizes next and swaps it in. On failure the previous tree
// stays.
func (e *Editor) commit(op string, next expr.Expression) error {
	next, tree, err := present.Normalize(next, e.resolver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.root, e.tree = next, tree
	e.log.V(1).Info("filter updated", "op", op, "filter", expr.String(next))
	if e.onChange != nil {
		e.onChange(e.Value())
	}
	return nil
}

// withGroup applies fn to a copy of the group in slot, keeping the slot's
// negation wrappers.
func withGroup(slot expr.Expression, at types.IndexPath, fn func(*expr.Combination) (expr.Expression, error)) (expr.Expression, error) {
	inner, negations := expr.Unwrap(slot)
	g, ok := inner.(*expr.Combination)
	if !ok {
		return nil, fmt.Errorf("%w: node at %s is not a group", types.ErrInvalidPath, at)
	}
	cp := &expr.Combination{Operator: g.Operator, Children: slices.Clone(g.Children)}
	out, err := fn(cp)
	if err != nil {
		return nil, err
	}
	return expr.Wrap(out, negations), nil
}

// withCondition applies fn to a copy of the condition in slot, keeping the
// slot's negation wrappers.
func withCondition(slot expr.Expression, at types.IndexPath, fn func(*expr.Condition) error) (expr.Expression, error) {
	inner, negations := expr.Unwrap(slot)
	c, ok := inner.(*expr.Condition)
	if !ok {
		return nil, fmt.Errorf("%w: node at %s is not a condition", types.ErrInvalidPath, at)
	}
	cp := &expr.Condition{FieldPath: slices.Clone(c.FieldPath), Lookup: c.Lookup, Value: c.Value}
	if err := fn(cp); err != nil {
		return nil, err
	}
	return expr.Wrap(cp, negations), nil
}
