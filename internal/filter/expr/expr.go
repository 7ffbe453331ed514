// Package expr defines the boolean filter expression tree and its lispy
// wire form:
//
//	["and"|"or"|"xor", expr...]
//	["not", expr]
//	["=", "seg1__seg2__lookup", value]
package expr

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/matthewbaird/filtereditor/internal/types"
)

// Operator combines the children of a group.
type Operator string

const (
	And Operator = "and"
	Or  Operator = "or"
	Xor Operator = "xor"
)

// Operators lists the combination operators in menu order.
var Operators = []Operator{And, Or, Xor}

// Valid reports whether o is a known combination operator.
func (o Operator) Valid() bool {
	switch o {
	case And, Or, Xor:
		return true
	}
	return false
}

// ParseOperator converts a wire tag into an Operator.
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.ToLower(s))
	if !op.Valid() {
		return "", fmt.Errorf("%w: unknown operator %q", types.ErrMalformedExpression, s)
	}
	return op, nil
}

// Wire tags for the non-combination variants.
const (
	TagCondition = "="
	TagNot       = "not"
)

// Expression is any node in a filter tree.
type Expression interface {
	exprNode()
}

// Condition compares one field, reached through FieldPath, to Value using
// Lookup. A condition with no FieldPath is a draft: it was inserted by the
// editor but no field has been picked yet, and it is left out of the wire
// form.
type Condition struct {
	FieldPath []string
	Lookup    string
	Value     any // string, float64, bool, or FunctionCall
}

// FunctionCall is a reserved value shape (a list headed by a string tag).
// It survives decoding and encoding but is never evaluated.
type FunctionCall struct {
	Name string
	Args []any
}

// Negation inverts exactly one inner expression.
type Negation struct {
	Inner Expression
}

// Combination joins zero or more children with one operator. An empty AND
// is the canonical "no filter".
type Combination struct {
	Operator Operator
	Children []Expression
}

func (*Condition) exprNode()   {}
func (*Negation) exprNode()    {}
func (*Combination) exprNode() {}

// Draft reports whether the condition still lacks a field.
func (c *Condition) Draft() bool { return len(c.FieldPath) == 0 }

// Field returns the joined "path__lookup" string used on the wire.
func (c *Condition) Field() string {
	parts := append(slices.Clone(c.FieldPath), c.Lookup)
	return strings.Join(parts, types.PathSeparator)
}

// Empty returns the canonical empty AND group.
func Empty() *Combination {
	return &Combination{Operator: And}
}

// NewNegation wraps exactly one operand.
func NewNegation(operands ...Expression) (*Negation, error) {
	if len(operands) != 1 {
		return nil, fmt.Errorf("%w: negation takes exactly one operand, got %d",
			types.ErrMalformedExpression, len(operands))
	}
	if operands[0] == nil {
		return nil, fmt.Errorf("%w: negation of nil", types.ErrMalformedExpression)
	}
	return &Negation{Inner: operands[0]}, nil
}

// Unwrap strips every Negation wrapper from e and reports how many there
// were.
func Unwrap(e Expression) (Expression, int) {
	n := 0
	for {
		neg, ok := e.(*Negation)
		if !ok {
			return e, n
		}
		e = neg.Inner
		n++
	}
}

// Wrap nests e inside n negations.
func Wrap(e Expression, n int) Expression {
	for range n {
		e = &Negation{Inner: e}
	}
	return e
}

// Clone returns a deep copy of e.
func Clone(e Expression) Expression {
	switch v := e.(type) {
	case *Condition:
		return &Condition{
			FieldPath: slices.Clone(v.FieldPath),
			Lookup:    v.Lookup,
			Value:     cloneValue(v.Value),
		}
	case *Negation:
		return &Negation{Inner: Clone(v.Inner)}
	case *Combination:
		out := &Combination{Operator: v.Operator}
		if v.Children != nil {
			out.Children = make([]Expression, len(v.Children))
			for i, c := range v.Children {
				out.Children[i] = Clone(c)
			}
		}
		return out
	}
	return nil
}

func cloneValue(v any) any {
	if fc, ok := v.(FunctionCall); ok {
		return FunctionCall{Name: fc.Name, Args: slices.Clone(fc.Args)}
	}
	return v
}

// Equal reports whether a and b are structurally identical, draft
// conditions included.
func Equal(a, b Expression) bool {
	switch x := a.(type) {
	case *Condition:
		y, ok := b.(*Condition)
		return ok && slices.Equal(x.FieldPath, y.FieldPath) &&
			x.Lookup == y.Lookup && valuesEqual(x.Value, y.Value)
	case *Negation:
		y, ok := b.(*Negation)
		return ok && Equal(x.Inner, y.Inner)
	case *Combination:
		y, ok := b.(*Combination)
		if !ok || x.Operator != y.Operator || len(x.Children) != len(y.Children) {
			return false
		}
		for i := range x.Children {
			if !Equal(x.Children[i], y.Children[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	return false
}

func valuesEqual(a, b any) bool {
	fa, aok := a.(FunctionCall)
	fb, bok := b.(FunctionCall)
	if aok || bok {
		if !aok || !bok || fa.Name != fb.Name || len(fa.Args) != len(fb.Args) {
			return false
		}
		return len(fa.Args) == 0 || reflect.DeepEqual(fa.Args, fb.Args)
	}
	return reflect.DeepEqual(a, b)
}
