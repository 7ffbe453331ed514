package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/filtereditor/internal/types"
)

// Event types.
const (
	TypeSessionOpened     = "session_opened"
	TypeFilterChanged     = "filter_changed"
	TypeOperationRejected = "operation_rejected"
	TypeSessionClosed     = "session_closed"
)

// DomainEvent carries the canonical shape of every editor event.
type DomainEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	SessionID  string          `json:"session_id"`
	Op         string          `json:"op,omitempty"`
	Path       string          `json:"path,omitempty"`
	Summary    string          `json:"summary"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Filter     json.RawMessage `json:"filter,omitempty"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewSessionOpened records a session starting on rootModel with its initial
// wire-form filter.
func NewSessionOpened(sessionID, rootModel string, filter []any) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeSessionOpened,
		OccurredAt: time.Now().UTC(),
		SessionID:  sessionID,
		Summary:    fmt.Sprintf("Session %s opened on %s", short(sessionID), rootModel),
		Filter:     mustJSON(filter),
	}
}

// NewFilterChanged records a committed edit and the filter it produced.
func NewFilterChanged(sessionID, op string, path types.IndexPath, filter []any) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeFilterChanged,
		OccurredAt: time.Now().UTC(),
		SessionID:  sessionID,
		Op:         op,
		Path:       path.String(),
		Summary:    fmt.Sprintf("%s at %s", op, path),
		Filter:     mustJSON(filter),
	}
}

// NewOperationRejected records an edit that failed validation. The filter is
// unchanged so none is attached.
func NewOperationRejected(sessionID, op string, path types.IndexPath, err error) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeOperationRejected,
		OccurredAt: time.Now().UTC(),
		SessionID:  sessionID,
		Op:         op,
		Path:       path.String(),
		Summary:    err.Error(),
		ErrorCode:  types.ErrorCode(err),
	}
}

// NewSessionClosed records a session ending. reason is "closed" when the
// client hung up and "expired" when the janitor removed it.
func NewSessionClosed(sessionID, reason string) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeSessionClosed,
		OccurredAt: time.Now().UTC(),
		SessionID:  sessionID,
		Summary:    fmt.Sprintf("Session %s %s", short(sessionID), reason),
	}
}
