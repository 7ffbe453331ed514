package activity

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one recorded editor event, indexed by session.
type Entry struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	SessionID  string          `json:"session_id"`
	Op         string          `json:"op,omitempty"`
	Path       string          `json:"path,omitempty"`
	Summary    string          `json:"summary"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Filter     json.RawMessage `json:"filter,omitempty"`
}

// Store is the interface for reading and writing activity entries.
type Store interface {
	// WriteEntries appends entries.
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryBySession returns a session's entries, newest first.
	QueryBySession(ctx context.Context, sessionID string, opts QueryOptions) (entries []Entry, nextCursor string, totalCount int, err error)

	// Search matches summaries case-insensitively across sessions.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []Entry, totalCount int, err error)
}
