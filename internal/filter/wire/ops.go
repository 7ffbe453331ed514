package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matthewbaird/filtereditor/internal/filter/editor"
	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/types"
)

var (
	// ErrInvalidData reports a payload that does not decode for its type.
	ErrInvalidData = errors.New("invalid message data")
	// ErrUnknownType reports a message type with no editing operation.
	ErrUnknownType = errors.New("unknown message type")
)

// EditFunc applies one editing operation.
type EditFunc func(*editor.Editor) error

// IsEdit reports whether typ names an editing operation.
func IsEdit(typ string) bool {
	switch typ {
	case TypeAddCondition, TypeAddGroup, TypeDelete, TypeToggleNot, TypeChangeOperator,
		TypeSetField, TypeSetLookup, TypeSetValue, TypeReplace:
		return true
	}
	return false
}

// EditOp decodes the payload of an editing message into the index path it
// addresses and the editor call that applies it. An empty payload decodes
// as the zero value.
func EditOp(typ string, data json.RawMessage) (types.IndexPath, EditFunc, error) {
	switch typ {
	case TypeAddCondition, TypeDelete, TypeToggleNot:
		var d PathData
		if err := decodeData(typ, data, &d); err != nil {
			return nil, nil, err
		}
		path := d.Path
		switch typ {
		case TypeAddCondition:
			return path, func(ed *editor.Editor) error { return ed.AddCondition(path) }, nil
		case TypeDelete:
			return path, func(ed *editor.Editor) error { return ed.DeleteNode(path) }, nil
		default:
			return path, func(ed *editor.Editor) error { return ed.ToggleNegation(path) }, nil
		}

	case TypeAddGroup, TypeChangeOperator:
		var d OperatorData
		if err := decodeData(typ, data, &d); err != nil {
			return nil, nil, err
		}
		op, err := expr.ParseOperator(d.Operator)
		if err != nil {
			return nil, nil, err
		}
		path := d.Path
		if typ == TypeAddGroup {
			return path, func(ed *editor.Editor) error { return ed.AddGroup(path, op) }, nil
		}
		return path, func(ed *editor.Editor) error { return ed.ChangeOperator(path, op) }, nil

	case TypeSetField:
		var d FieldData
		if err := decodeData(typ, data, &d); err != nil {
			return nil, nil, err
		}
		return d.Path, func(ed *editor.Editor) error { return ed.SetField(d.Path, d.FieldPath) }, nil

	case TypeSetLookup:
		var d LookupData
		if err := decodeData(typ, data, &d); err != nil {
			return nil, nil, err
		}
		return d.Path, func(ed *editor.Editor) error { return ed.SetLookup(d.Path, d.Lookup) }, nil

	case TypeSetValue:
		var d ValueData
		if err := decodeData(typ, data, &d); err != nil {
			return nil, nil, err
		}
		return d.Path, func(ed *editor.Editor) error { return ed.SetValue(d.Path, d.Value) }, nil

	case TypeReplace:
		var d ReplaceData
		if err := decodeData(typ, data, &d); err != nil {
			return nil, nil, err
		}
		return nil, func(ed *editor.Editor) error { return ed.Replace(d.Tree) }, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
}

func decodeData(typ string, data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidData, typ, err)
	}
	return nil
}

// ErrorCode maps an error from EditOp or an editing operation to the code
// sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidData):
		return CodeInvalidData
	case errors.Is(err, ErrUnknownType):
		return CodeUnknownType
	}
	return types.ErrorCode(err)
}
