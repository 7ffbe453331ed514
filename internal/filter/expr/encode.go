package expr

import (
	"encoding/json"
	"slices"
)

// Encode converts e to its wire form. Draft conditions (and negations of
// them) are left out; a draft at the root encodes as the empty AND.
func Encode(e Expression) []any {
	out, ok := encode(e)
	if !ok {
		return []any{string(And)}
	}
	return out
}

func encode(e Expression) ([]any, bool) {
	switch v := e.(type) {
	case *Condition:
		if v.Draft() {
			return nil, false
		}
		return []any{TagCondition, v.Field(), encodeValue(v.Value)}, true
	case *Negation:
		inner, ok := encode(v.Inner)
		if !ok {
			return nil, false
		}
		return []any{TagNot, inner}, true
	case *Combination:
		out := make([]any, 1, len(v.Children)+1)
		out[0] = string(v.Operator)
		for _, c := range v.Children {
			if child, ok := encode(c); ok {
				out = append(out, child)
			}
		}
		return out, true
	}
	return nil, false
}

func encodeValue(v any) any {
	if fc, ok := v.(FunctionCall); ok {
		return append([]any{fc.Name}, slices.Clone(fc.Args)...)
	}
	return v
}

// Marshal returns the JSON wire form of e.
func Marshal(e Expression) ([]byte, error) {
	return json.Marshal(Encode(e))
}

// String renders e as compact JSON, for logs and error messages.
func String(e Expression) string {
	b, err := Marshal(e)
	if err != nil {
		return "<invalid>"
	}
	return string(b)
}
