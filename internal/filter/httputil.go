package filter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/matthewbaird/filtereditor/internal/activity"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(log logr.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "writeJSON encode")
	}
}

// writeError writes a structured JSON error response.
func writeError(log logr.Logger, w http.ResponseWriter, status int, code, message string) {
	writeJSON(log, w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// filterErrorToHTTP maps editing errors to HTTP responses. Structural
// problems are the client's fault (400); schema mismatches are well-formed
// but unprocessable (422).
func filterErrorToHTTP(log logr.Logger, w http.ResponseWriter, err error) {
	code := types.ErrorCode(err)
	switch {
	case errors.Is(err, types.ErrMalformedExpression), errors.Is(err, types.ErrInvalidPath):
		writeError(log, w, http.StatusBadRequest, code, err.Error())
	case code != "internal":
		writeError(log, w, http.StatusUnprocessableEntity, code, err.Error())
	default:
		log.Error(err, "internal error")
		writeError(log, w, http.StatusInternalServerError, code, "internal server error")
	}
}

// parseActivityQuery reads since, until, types, limit and cursor from the
// query string.
func parseActivityQuery(r *http.Request) activity.QueryOptions {
	opts := activity.DefaultQueryOptions()
	q := r.URL.Query()
	if s := q.Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			opts.Since = &t
		}
	}
	if u := q.Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			opts.Until = &t
		}
	}
	if ts := q.Get("types"); ts != "" {
		opts.EventTypes = strings.Split(ts, ",")
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			opts.Limit = min(n, 500)
		}
	}
	opts.Cursor = q.Get("cursor")
	return opts
}

// parseSearchQuery reads session, types, since and limit for an activity
// search.
func parseSearchQuery(r *http.Request) activity.SearchOptions {
	opts := activity.DefaultSearchOptions()
	q := r.URL.Query()
	opts.SessionID = q.Get("session")
	if s := q.Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			opts.Since = &t
		}
	}
	if ts := q.Get("types"); ts != "" {
		opts.EventTypes = strings.Split(ts, ",")
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			opts.Limit = min(n, 100)
		}
	}
	return opts
}
