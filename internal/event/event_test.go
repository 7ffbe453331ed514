package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/filtereditor/internal/activity"
	"github.com/matthewbaird/filtereditor/internal/types"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, evt DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func TestConstructors(t *testing.T) {
	opened := NewSessionOpened("0123456789abcdef", "person", []any{"and"})
	assert.Equal(t, TypeSessionOpened, opened.EventType)
	assert.Equal(t, "Session 01234567 opened on person", opened.Summary)
	assert.JSONEq(t, `["and"]`, string(opened.Filter))
	assert.NotEmpty(t, opened.ID)

	changed := NewFilterChanged("s", "toggle_not", types.IndexPath{0, 1}, []any{"and", []any{"not", []any{"=", "a__b", 1}}})
	assert.Equal(t, "toggle_not at /0/1", changed.Summary)
	assert.Equal(t, "/0/1", changed.Path)

	rejected := NewOperationRejected("s", "set_field", types.IndexPath{0}, fmt.Errorf("wrap: %w", types.ErrUnknownField))
	assert.Equal(t, "unknown_field", rejected.ErrorCode)
	assert.Nil(t, rejected.Filter)

	closed := NewSessionClosed("abc", "expired")
	assert.Equal(t, "Session abc expired", closed.Summary)

	assert.NotEqual(t, opened.ID, changed.ID)
}

func TestActivityRecorder(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore(0)
	pub := &capturePublisher{}

	rec := NewActivityRecorder(store)
	rec.SetPublisher(pub)

	evt := NewFilterChanged("s1", "add_group", types.IndexPath{}, []any{"and", []any{"or"}})
	require.NoError(t, rec.Record(ctx, evt))

	entries, _, total, err := store.QueryBySession(ctx, "s1", activity.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, evt.ID, entries[0].EventID)
	assert.Equal(t, "add_group", entries[0].Op)

	var filter []any
	require.NoError(t, json.Unmarshal(entries[0].Filter, &filter))
	assert.Equal(t, []any{"and", []any{"or"}}, filter)

	require.Len(t, pub.events, 1)
	assert.Equal(t, evt.ID, pub.events[0].ID)
}

func TestDiscard(t *testing.T) {
	var r Recorder = Discard{}
	assert.NoError(t, r.Record(context.Background(), NewSessionClosed("s", "closed")))
}
