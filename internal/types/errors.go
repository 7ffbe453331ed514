package types

import "errors"

// Expression and resolution errors.
var (
	// ErrMalformedExpression is a structural shape violation: wrong arity,
	// wrong tag, or a condition field without a lookup.
	ErrMalformedExpression = errors.New("malformed expression")

	// ErrUnknownModel means a path segment names neither a field nor a
	// related model.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownField means the final path segment is not a field.
	ErrUnknownField = errors.New("unknown field")

	// ErrWrongPathShape means a relation appears where a field belongs or
	// the other way round, or a model is revisited within one path.
	ErrWrongPathShape = errors.New("wrong path shape")

	// ErrUnsupportedValueType is raised for function-call values, which are
	// recognised but never evaluated.
	ErrUnsupportedValueType = errors.New("unsupported value type")
)

// Schema and editing errors.
var (
	ErrNoLookups       = errors.New("field offers no lookups")
	ErrUnknownLookup   = errors.New("unknown lookup")
	ErrInvalidPath     = errors.New("invalid index path")
	ErrCoercionFailed  = errors.New("value coercion failed")
	ErrMalformedSchema = errors.New("malformed schema document")
)

// ErrorCode maps an error to the stable code reported over HTTP and the
// websocket protocol.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedExpression):
		return "malformed_expression"
	case errors.Is(err, ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, ErrUnknownField):
		return "unknown_field"
	case errors.Is(err, ErrWrongPathShape):
		return "wrong_path_shape"
	case errors.Is(err, ErrUnsupportedValueType):
		return "unsupported_value_type"
	case errors.Is(err, ErrNoLookups):
		return "no_lookups"
	case errors.Is(err, ErrUnknownLookup):
		return "unknown_lookup"
	case errors.Is(err, ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, ErrCoercionFailed):
		return "coercion_failed"
	case errors.Is(err, ErrMalformedSchema):
		return "malformed_schema"
	default:
		return "internal"
	}
}
