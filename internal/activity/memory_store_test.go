package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testEntry(sessionID, eventType, summary string, minutes int) Entry {
	return Entry{
		EventID:    "evt-" + summary,
		EventType:  eventType,
		OccurredAt: base.Add(time.Duration(minutes) * time.Minute),
		SessionID:  sessionID,
		Summary:    summary,
	}
}

func TestMemoryStore_WriteAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	require.NoError(t, store.WriteEntries(ctx, []Entry{
		testEntry("s1", "filter_changed", "add_condition at /", 1),
		testEntry("s1", "filter_changed", "set_field at /0", 2),
		testEntry("s2", "filter_changed", "add_group at /", 3),
	}))

	results, cursor, total, err := store.QueryBySession(ctx, "s1", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, cursor)
	require.Len(t, results, 2)
	assert.Equal(t, "set_field at /0", results[0].Summary, "newest first")
}

func TestMemoryStore_QueryBySession_FilterType(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	_ = store.WriteEntries(ctx, []Entry{
		testEntry("s1", "filter_changed", "toggle_not at /0", 1),
		testEntry("s1", "operation_rejected", "unknown field", 2),
	})

	results, _, total, err := store.QueryBySession(ctx, "s1", QueryOptions{EventTypes: []string{"operation_rejected"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "unknown field", results[0].Summary)
}

func TestMemoryStore_QueryBySession_TimeWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	_ = store.WriteEntries(ctx, []Entry{
		testEntry("s1", "filter_changed", "old", 1),
		testEntry("s1", "filter_changed", "mid", 10),
		testEntry("s1", "filter_changed", "new", 20),
	})

	since := base.Add(5 * time.Minute)
	until := base.Add(15 * time.Minute)
	results, _, total, err := store.QueryBySession(ctx, "s1", QueryOptions{Since: &since, Until: &until})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "mid", results[0].Summary)
}

func TestMemoryStore_Pagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	for i := 0; i < 5; i++ {
		_ = store.WriteEntries(ctx, []Entry{testEntry("s1", "filter_changed", string(rune('a'+i)), i)})
	}

	page1, cursor, total, err := store.QueryBySession(ctx, "s1", QueryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "e", page1[0].Summary)
	require.NotEmpty(t, cursor)

	page2, _, _, err := store.QueryBySession(ctx, "s1", QueryOptions{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "c", page2[0].Summary)
	assert.Equal(t, "b", page2[1].Summary)
}

func TestMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	_ = store.WriteEntries(ctx, []Entry{
		testEntry("s1", "filter_changed", "Set_Field at /0", 1),
		testEntry("s2", "filter_changed", "set_field at /1", 2),
		testEntry("s2", "filter_changed", "delete at /1", 3),
	})

	results, total, err := store.Search(ctx, "SET_FIELD", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, results, 2)

	results, total, err = store.Search(ctx, "set_field", SearchOptions{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "s1", results[0].SessionID)
}

func TestMemoryStore_Retention(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)
	_ = store.WriteEntries(ctx, []Entry{
		testEntry("s1", "filter_changed", "first", 1),
		testEntry("s1", "filter_changed", "second", 2),
		testEntry("s1", "filter_changed", "third", 3),
	})

	assert.Equal(t, 2, store.Len())
	results, _, _, err := store.QueryBySession(ctx, "s1", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, "third", results[0].Summary)
	assert.Equal(t, "second", results[1].Summary)
}
