package activity

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory slice. When maxEntries is
// positive the oldest entries are discarded once it is exceeded. Entries
// with equal timestamps come back newest-written first.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
}

// NewMemoryStore creates a new empty MemoryStore. maxEntries <= 0 means
// unbounded.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{maxEntries: maxEntries}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		drop := len(s.entries) - s.maxEntries
		s.entries = append([]Entry(nil), s.entries[drop:]...)
	}
	return nil
}

// Len reports how many entries are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) QueryBySession(_ context.Context, sessionID string, opts QueryOptions) ([]Entry, string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cursorTime time.Time
	hasCursor := false
	if opts.Cursor != "" {
		if t, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			cursorTime, hasCursor = t, true
		}
	}

	var matched []Entry
	for _, e := range slices.Backward(s.entries) {
		if e.SessionID != sessionID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.EventTypes) > 0 && !slices.Contains(opts.EventTypes, e.EventType) {
			continue
		}
		if hasCursor && !e.OccurredAt.Before(cursorTime) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	totalCount := len(matched)
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var nextCursor string
	if len(matched) > limit {
		matched = matched[:limit]
		nextCursor = matched[len(matched)-1].OccurredAt.Format(time.RFC3339Nano)
	}

	return matched, nextCursor, totalCount, nil
}

func (s *MemoryStore) Search(_ context.Context, query string, opts SearchOptions) ([]Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var matched []Entry
	for _, e := range slices.Backward(s.entries) {
		if !strings.Contains(strings.ToLower(e.Summary), q) {
			continue
		}
		if opts.SessionID != "" && e.SessionID != opts.SessionID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if len(opts.EventTypes) > 0 && !slices.Contains(opts.EventTypes, e.EventType) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	totalCount := len(matched)
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, totalCount, nil
}
