// Package session manages filter editing sessions: one editor per client
// connection, its history of committed filters, and idle expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/matthewbaird/filtereditor/internal/event"
	"github.com/matthewbaird/filtereditor/internal/filter/editor"
	"github.com/matthewbaird/filtereditor/internal/filter/present"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// ErrNotFound is returned by Lookup for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// MaxHistory bounds the committed filters a session keeps.
const MaxHistory = 100

// Session holds per-connection editor state.
type Session struct {
	ID           string    `json:"id"`
	RootModel    string    `json:"root_model"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	mu      sync.Mutex
	scope   *schema.Scope
	editor  *editor.Editor
	history [][]any
	changed bool
}

// touch updates the last activity timestamp. Callers hold s.mu.
func (s *Session) touch() {
	s.LastActiveAt = time.Now()
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.LastActiveAt) > timeout
}

// Scope is the schema view the session edits against.
func (s *Session) Scope() *schema.Scope { return s.scope }

// Snapshot returns the current wire-form filter and presentation tree.
func (s *Session) Snapshot() ([]any, *present.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Value(), s.editor.Tree()
}

// History returns the committed filters, oldest first.
func (s *Session) History() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) addHistory(filter []any) {
	s.history = append(s.history, filter)
	if len(s.history) > MaxHistory {
		s.history = s.history[len(s.history)-MaxHistory:]
	}
	s.changed = true
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	schema      *schema.Schema
	defaultRoot string
	recorder    event.Recorder
	maxAge      time.Duration
	idleTimeout time.Duration
	log         logr.Logger
}

// Options configures a Manager.
type Options struct {
	Schema      *schema.Schema
	DefaultRoot string
	Recorder    event.Recorder
	MaxAge      time.Duration
	IdleTimeout time.Duration
	Logger      logr.Logger
}

// NewManager creates a session manager. A nil Recorder discards events.
func NewManager(opts Options) *Manager {
	rec := opts.Recorder
	if rec == nil {
		rec = event.Discard{}
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		schema:      opts.Schema,
		defaultRoot: opts.DefaultRoot,
		recorder:    rec,
		maxAge:      opts.MaxAge,
		idleTimeout: opts.IdleTimeout,
		log:         opts.Logger.WithName("session"),
	}
}

// Create opens a session editing initial against root. An empty root means
// the manager's default; a nil initial means the empty filter.
func (m *Manager) Create(ctx context.Context, root string, initial any) (*Session, error) {
	if root == "" {
		root = m.defaultRoot
	}
	scope, err := schema.NewScope(m.schema, root)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		RootModel:    root,
		CreatedAt:    now,
		LastActiveAt: now,
		scope:        scope,
	}
	if initial == nil {
		initial = []any{"and"}
	}
	ed, err := editor.NewFromWire(scope, initial,
		editor.WithOnChange(s.addHistory),
		editor.WithLogger(m.log.WithValues("session", s.ID)),
	)
	if err != nil {
		return nil, err
	}
	s.editor = ed

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.record(ctx, event.NewSessionOpened(s.ID, root, ed.Value()))
	return s, nil
}

// Do runs fn against the session's editor under the session lock and
// records the outcome: a filter_changed event when fn committed, an
// operation_rejected event when it failed. A session that was removed or
// has expired fails with ErrNotFound and records nothing.
func (m *Manager) Do(ctx context.Context, s *Session, op string, path types.IndexPath, fn func(*editor.Editor) error) error {
	if _, err := m.Lookup(ctx, s.ID); err != nil {
		return err
	}
	s.mu.Lock()
	s.touch()
	s.changed = false
	err := fn(s.editor)
	changed := s.changed
	value := s.editor.Value()
	s.mu.Unlock()

	switch {
	case err != nil:
		m.record(ctx, event.NewOperationRejected(s.ID, op, path, err))
	case changed:
		m.record(ctx, event.NewFilterChanged(s.ID, op, path, value))
	}
	return err
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
		m.Remove(ctx, id, "expired")
		return nil
	}
	return s
}

// Remove deletes a session. reason is recorded on the session_closed event.
func (m *Manager) Remove(ctx context.Context, id, reason string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.record(ctx, event.NewSessionClosed(id, reason))
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions and reports how many it
// removed.
func (m *Manager) Cleanup(ctx context.Context) int {
	m.mu.Lock()
	var removed []string
	for id, s := range m.sessions {
		if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	m.mu.Unlock()

	for _, id := range removed {
		m.record(ctx, event.NewSessionClosed(id, "expired"))
	}
	return len(removed)
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Cleanup(ctx); n > 0 {
					m.log.V(1).Info("expired sessions removed", "count", n)
				}
			}
		}
	}()
}

func (m *Manager) record(ctx context.Context, evt event.DomainEvent) {
	if err := m.recorder.Record(ctx, evt); err != nil {
		m.log.Error(err, "record event", "type", evt.EventType, "session", evt.SessionID)
	}
}

// Lookup is Get with an error for the missing case.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, error) {
	if s := m.Get(ctx, id); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}
