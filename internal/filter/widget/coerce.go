package widget

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// Coerce converts raw input into the value stored for a widget kind:
// Number parses to float64, Boolean reads checkbox state, DateTime is
// normalised to RFC 3339, and every other kind keeps the value as given.
// An empty string means nothing was entered yet and is kept as is.
func Coerce(k Kind, raw any) (any, error) {
	switch raw.(type) {
	case expr.FunctionCall, []any, map[string]any:
		return nil, fmt.Errorf("%w: %T", types.ErrUnsupportedValueType, raw)
	case nil:
		return Default(k), nil
	}

	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" && k != Boolean {
			return "", nil
		}
		if k == Number || k == DateTime {
			raw = s
		}
	}

	switch k {
	case Number:
		if _, isBool := raw.(bool); isBool {
			return nil, fmt.Errorf("%w: %v is not a number", types.ErrCoercionFailed, raw)
		}
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", types.ErrCoercionFailed, fmt.Sprint(raw))
		}
		return f, nil

	case Boolean:
		if s, ok := raw.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "", "off":
				return false, nil
			case "on":
				return true, nil
			}
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", types.ErrCoercionFailed, fmt.Sprint(raw))
		}
		return b, nil

	case DateTime:
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a timestamp", types.ErrCoercionFailed, fmt.Sprint(raw))
		}
		return t.Format(time.RFC3339Nano), nil
	}
	return raw, nil
}
