package session

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/filtereditor/internal/activity"
	"github.com/matthewbaird/filtereditor/internal/event"
	"github.com/matthewbaird/filtereditor/internal/filter/editor"
	"github.com/matthewbaird/filtereditor/internal/filter/filtertest"
	"github.com/matthewbaird/filtereditor/internal/types"
)

func newManager(t *testing.T, idle time.Duration) (*Manager, *activity.MemoryStore) {
	t.Helper()
	store := activity.NewMemoryStore(0)
	m := NewManager(Options{
		Schema:      filtertest.Schema(),
		DefaultRoot: filtertest.RootModel,
		Recorder:    event.NewActivityRecorder(store),
		MaxAge:      time.Hour,
		IdleTimeout: idle,
		Logger:      logr.Discard(),
	})
	return m, store
}

func eventTypes(t *testing.T, store *activity.MemoryStore, id string) []string {
	t.Helper()
	entries, _, _, err := store.QueryBySession(context.Background(), id, activity.QueryOptions{})
	require.NoError(t, err)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e.EventType
	}
	return out
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, time.Hour)

	s, err := m.Create(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, filtertest.RootModel, s.RootModel)
	assert.Equal(t, 1, m.Len())

	filter, tree := s.Snapshot()
	assert.Equal(t, []any{"and"}, filter)
	assert.NotNil(t, tree)
	assert.Equal(t, []string{event.TypeSessionOpened}, eventTypes(t, store, s.ID))

	s2, err := m.Create(ctx, "company", []any{"=", "size__gt", 10})
	require.NoError(t, err)
	filter, _ = s2.Snapshot()
	assert.Equal(t, []any{"=", "size__gt", float64(10)}, filter)
	assert.NotEqual(t, s.ID, s2.ID)
}

func TestManager_CreateErrors(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, time.Hour)

	_, err := m.Create(ctx, "starship", nil)
	assert.ErrorIs(t, err, types.ErrUnknownModel)

	_, err = m.Create(ctx, "", []any{"=", "height__gt", 1})
	assert.ErrorIs(t, err, types.ErrUnknownField)
	assert.Equal(t, 0, m.Len())
}

func TestManager_Do(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, time.Hour)
	s, err := m.Create(ctx, "", nil)
	require.NoError(t, err)

	require.NoError(t, m.Do(ctx, s, "add_condition", nil, func(ed *editor.Editor) error {
		return ed.AddCondition(nil)
	}))
	require.NoError(t, m.Do(ctx, s, "set_field", types.IndexPath{0}, func(ed *editor.Editor) error {
		return ed.SetField(types.IndexPath{0}, []string{"age"})
	}))
	err = m.Do(ctx, s, "set_field", types.IndexPath{0}, func(ed *editor.Editor) error {
		return ed.SetField(types.IndexPath{0}, []string{"height"})
	})
	assert.ErrorIs(t, err, types.ErrUnknownField)

	filter, _ := s.Snapshot()
	assert.Equal(t, []any{"and", []any{"=", "age__exact", ""}}, filter)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, []any{"and"}, history[0], "a draft condition is not on the wire")
	assert.Equal(t, filter, history[1])

	assert.Equal(t, []string{
		event.TypeSessionOpened,
		event.TypeFilterChanged,
		event.TypeFilterChanged,
		event.TypeOperationRejected,
	}, eventTypes(t, store, s.ID))
}

func TestManager_DoWithoutChange(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, time.Hour)
	s, err := m.Create(ctx, "", nil)
	require.NoError(t, err)

	require.NoError(t, m.Do(ctx, s, "noop", nil, func(*editor.Editor) error { return nil }))
	assert.Equal(t, []string{event.TypeSessionOpened}, eventTypes(t, store, s.ID))
}

func TestManager_GetAndRemove(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, time.Hour)
	s, err := m.Create(ctx, "", nil)
	require.NoError(t, err)

	assert.Same(t, s, m.Get(ctx, s.ID))
	got, err := m.Lookup(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	m.Remove(ctx, s.ID, "closed")
	m.Remove(ctx, s.ID, "closed")
	assert.Nil(t, m.Get(ctx, s.ID))
	_, err = m.Lookup(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{event.TypeSessionOpened, event.TypeSessionClosed}, eventTypes(t, store, s.ID))
}

func TestManager_Cleanup(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, time.Millisecond)
	s, err := m.Create(ctx, "", nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, m.Cleanup(ctx))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Cleanup(ctx))

	entries, _, _, err := store.QueryBySession(ctx, s.ID, activity.QueryOptions{EventTypes: []string{event.TypeSessionClosed}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Summary, "expired")
}

func TestManager_GetExpiresIdle(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, time.Millisecond)
	s, err := m.Create(ctx, "", nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, m.Get(ctx, s.ID))
	assert.Equal(t, 0, m.Len())
}

func TestManager_DoOnExpiredSession(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, time.Millisecond)
	s, err := m.Create(ctx, "", nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	err = m.Do(ctx, s, "add_condition", nil, func(ed *editor.Editor) error {
		return ed.AddGroup(nil, "or")
	})
	assert.ErrorIs(t, err, ErrNotFound)

	filter, _ := s.Snapshot()
	assert.Equal(t, []any{"and"}, filter)
	assert.Equal(t, []string{event.TypeSessionOpened, event.TypeSessionClosed}, eventTypes(t, store, s.ID))
}

func TestManager_Janitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m, _ := newManager(t, time.Millisecond)
	_, err := m.Create(ctx, "", nil)
	require.NoError(t, err)

	m.StartJanitor(ctx, 2*time.Millisecond)
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}
