package expr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/matthewbaird/filtereditor/internal/types"
)

// IsCondition reports whether raw has the shape ["=", "field__lookup", value].
func IsCondition(raw any) bool {
	list, ok := raw.([]any)
	if !ok || len(list) != 3 || list[0] != TagCondition {
		return false
	}
	field, ok := list[1].(string)
	if !ok || field == "" {
		return false
	}
	return isValue(list[2])
}

// IsNegation reports whether raw has the shape ["not", expr].
func IsNegation(raw any) bool {
	list, ok := raw.([]any)
	return ok && len(list) == 2 && list[0] == TagNot && IsExpression(list[1])
}

// IsCombination reports whether raw has the shape [op, expr...] with op one
// of and, or, xor.
func IsCombination(raw any) bool {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	tag, ok := list[0].(string)
	if !ok || !Operator(tag).Valid() {
		return false
	}
	for _, child := range list[1:] {
		if !IsExpression(child) {
			return false
		}
	}
	return true
}

// IsExpression is the union of the three shape checks.
func IsExpression(raw any) bool {
	return IsCondition(raw) || IsNegation(raw) || IsCombination(raw)
}

func isValue(v any) bool {
	switch v := v.(type) {
	case string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number, FunctionCall:
		return true
	case []any:
		if len(v) == 0 {
			return false
		}
		_, ok := v[0].(string)
		return ok
	}
	return false
}

// ParseJSON decodes a wire-form expression from JSON text.
func ParseJSON(data []byte) (Expression, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedExpression, err)
	}
	return Decode(raw)
}

// Decode converts a decoded wire value ([]any trees as produced by
// encoding/json) into an Expression.
func Decode(raw any) (Expression, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: expected a non-empty list, got %T", types.ErrMalformedExpression, raw)
	}
	tag, ok := list[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected a string tag, got %T", types.ErrMalformedExpression, list[0])
	}

	switch {
	case tag == TagCondition:
		return decodeCondition(list)
	case tag == TagNot:
		if len(list) != 2 {
			return nil, fmt.Errorf("%w: negation takes exactly one operand, got %d",
				types.ErrMalformedExpression, len(list)-1)
		}
		inner, err := Decode(list[1])
		if err != nil {
			return nil, err
		}
		return NewNegation(inner)
	case Operator(tag).Valid():
		group := &Combination{Operator: Operator(tag)}
		for i, child := range list[1:] {
			e, err := Decode(child)
			if err != nil {
				return nil, fmt.Errorf("child %d of %s: %w", i, tag, err)
			}
			group.Children = append(group.Children, e)
		}
		return group, nil
	}
	return nil, fmt.Errorf("%w: unknown tag %q", types.ErrMalformedExpression, tag)
}

func decodeCondition(list []any) (*Condition, error) {
	if !IsCondition(list) {
		return nil, fmt.Errorf("%w: condition must be [\"=\", field, value], got %v",
			types.ErrMalformedExpression, list)
	}
	path, lookup, err := SplitField(list[1].(string))
	if err != nil {
		return nil, err
	}
	value, err := decodeValue(list[2])
	if err != nil {
		return nil, err
	}
	return &Condition{FieldPath: path, Lookup: lookup, Value: value}, nil
}

// SplitField splits "seg1__seg2__lookup" into the field path and lookup. At
// least one field segment and a lookup are required.
func SplitField(field string) ([]string, string, error) {
	segs := strings.Split(field, types.PathSeparator)
	if len(segs) < 2 {
		return nil, "", fmt.Errorf("%w: %q needs a field and a lookup", types.ErrMalformedExpression, field)
	}
	for _, s := range segs {
		if s == "" {
			return nil, "", fmt.Errorf("%w: empty segment in %q", types.ErrMalformedExpression, field)
		}
	}
	return segs[:len(segs)-1], segs[len(segs)-1], nil
}

func decodeValue(v any) (any, error) {
	switch v := v.(type) {
	case string, bool, FunctionCall:
		return v, nil
	case []any:
		return FunctionCall{Name: v[0].(string), Args: v[1:]}, nil
	}
	// Numbers are normalised to float64 so that values built in Go compare
	// equal to values decoded from JSON.
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedExpression, err)
	}
	return f, nil
}
