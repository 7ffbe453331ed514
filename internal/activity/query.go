// Package activity keeps the per-session history of editor events so a
// client can see how a filter evolved.
package activity

import "time"

// QueryOptions controls filtering and pagination for session history queries.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	EventTypes []string // empty means all
	Limit      int      // default 100, max 500
	Cursor     string   // occurred_at of the last entry of the previous page
}

// SearchOptions controls filtering for summary search.
type SearchOptions struct {
	SessionID  string
	Since      *time.Time
	EventTypes []string
	Limit      int // default 20
}

// DefaultQueryOptions returns QueryOptions covering the last day.
func DefaultQueryOptions() QueryOptions {
	dayAgo := time.Now().Add(-24 * time.Hour)
	return QueryOptions{
		Since: &dayAgo,
		Limit: 100,
	}
}

// DefaultSearchOptions returns SearchOptions with sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit: 20,
	}
}
