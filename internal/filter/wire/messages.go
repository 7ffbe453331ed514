// Package wire defines the WebSocket protocol for remote filter editing.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/filtereditor/internal/filter/autocomplete"
	"github.com/matthewbaird/filtereditor/internal/filter/present"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// Client message types.
const (
	TypeOpen           = "open"
	TypeAddCondition   = "add_condition"
	TypeAddGroup       = "add_group"
	TypeDelete         = "delete"
	TypeToggleNot      = "toggle_not"
	TypeChangeOperator = "change_operator"
	TypeSetField       = "set_field"
	TypeSetLookup      = "set_lookup"
	TypeSetValue       = "set_value"
	TypeReplace        = "replace"
	TypeComplete       = "complete"
	TypeCatalog        = "catalog"
	TypePing           = "ping"
)

// Server message types.
const (
	TypeSession     = "session"
	TypeTree        = "tree"
	TypeCompletions = "completions"
	TypeError       = "error"
	TypePong        = "pong"
)

// Protocol-level error codes. Editing failures use types.ErrorCode.
const (
	CodeUnknownType = "unknown_type"
	CodeInvalidData = "invalid_data"
	CodeNoSession   = "no_session"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"` // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// OpenData starts a session. Root defaults to the server's root model and
// Filter to the empty filter.
type OpenData struct {
	Root   string          `json:"root,omitempty"`
	Filter json.RawMessage `json:"filter,omitempty"`
}

// PathData addresses a node. A missing path is the root.
type PathData struct {
	Path types.IndexPath `json:"path"`
}

// OperatorData is the payload for "add_group" and "change_operator".
type OperatorData struct {
	Path     types.IndexPath `json:"path"`
	Operator string          `json:"operator"`
}

// FieldData is the payload for "set_field".
type FieldData struct {
	Path      types.IndexPath `json:"path"`
	FieldPath []string        `json:"field_path"`
}

// LookupData is the payload for "set_lookup".
type LookupData struct {
	Path   types.IndexPath `json:"path"`
	Lookup string          `json:"lookup"`
}

// ValueData is the payload for "set_value".
type ValueData struct {
	Path  types.IndexPath `json:"path"`
	Value any             `json:"value"`
}

// ReplaceData is the payload for "replace".
type ReplaceData struct {
	Tree *present.Node `json:"tree"`
}

// CompleteData is the payload for "complete". A missing cursor means the
// end of Text.
type CompleteData struct {
	Text   string `json:"text"`
	Cursor *int   `json:"cursor,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
	RootModel string `json:"root_model"`
}

// TreeData carries the filter after a change, in both forms.
type TreeData struct {
	Filter []any         `json:"filter"`
	Tree   *present.Node `json:"tree"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CompletionsData carries autocomplete suggestions.
type CompletionsData struct {
	Items []autocomplete.CompletionItem `json:"items"`
}

// CatalogData carries the field picker tree.
type CatalogData struct {
	Entries []schema.CatalogEntry `json:"entries"`
}
