// Package filter exposes the filter editor over HTTP: a WebSocket endpoint
// for interactive sessions and REST endpoints for one-shot tooling.
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"

	"github.com/matthewbaird/filtereditor/internal/activity"
	"github.com/matthewbaird/filtereditor/internal/eventbus"
	"github.com/matthewbaird/filtereditor/internal/filter/autocomplete"
	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/present"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/filter/session"
	"github.com/matthewbaird/filtereditor/internal/filter/wire"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// Deps are the collaborators the routes are built on.
type Deps struct {
	Schema      *schema.Schema
	DefaultRoot string
	Sessions    *session.Manager
	Activity    activity.Store
	Stats       *eventbus.StatsConsumer
	Logger      logr.Logger
}

var errInvalidBody = errors.New("invalid request body")

type api struct {
	Deps
	log logr.Logger
}

// RenderRequest is the body of POST /render and /validate.
type RenderRequest struct {
	Root   string          `json:"root,omitempty"`
	Filter json.RawMessage `json:"filter"`
}

// ParseRequest is the body of POST /parse.
type ParseRequest struct {
	Root string        `json:"root,omitempty"`
	Tree *present.Node `json:"tree"`
}

// TreeResponse carries a filter in both forms.
type TreeResponse struct {
	Filter []any         `json:"filter"`
	Tree   *present.Node `json:"tree,omitempty"`
}

// ValidateResponse reports whether a filter renders against the schema.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// SessionResponse describes a live session.
type SessionResponse struct {
	ID        string        `json:"id"`
	RootModel string        `json:"root_model"`
	Filter    []any         `json:"filter"`
	Tree      *present.Node `json:"tree"`
	History   [][]any       `json:"history"`
}

// RegisterRoutes registers filter editor HTTP and WebSocket routes on the
// given router.
func RegisterRoutes(r chi.Router, deps Deps) {
	a := &api{Deps: deps, log: deps.Logger.WithName("http")}
	wsHandler := wire.NewHandler(deps.Sessions, deps.Logger)

	r.Route("/api/filter", func(r chi.Router) {
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Get("/catalog", a.handleCatalog)
		r.Get("/complete", a.handleComplete)
		r.Post("/render", a.handleRender)
		r.Post("/parse", a.handleParse)
		r.Post("/validate", a.handleValidate)
		r.Get("/stats", a.handleStats)
		r.Get("/activity", a.handleSearchActivity)

		r.Post("/sessions", a.handleCreateSession)
		r.Get("/sessions/{id}", a.handleGetSession)
		r.Delete("/sessions/{id}", a.handleDeleteSession)
		r.Post("/sessions/{id}/ops", a.handleSessionOp)
		r.Get("/sessions/{id}/activity", a.handleSessionActivity)
	})
}

// scope binds the schema to root, or to the default root when root is
// empty.
func (a *api) scope(w http.ResponseWriter, root string) (*schema.Scope, bool) {
	if root == "" {
		root = a.DefaultRoot
	}
	sc, err := schema.NewScope(a.Schema, root)
	if err != nil {
		filterErrorToHTTP(a.log, w, err)
		return nil, false
	}
	return sc, true
}

// GET /api/filter/catalog?root=
func (a *api) handleCatalog(w http.ResponseWriter, r *http.Request) {
	sc, ok := a.scope(w, r.URL.Query().Get("root"))
	if !ok {
		return
	}
	writeJSON(a.log, w, http.StatusOK, sc.Catalog())
}

// GET /api/filter/complete?text=&cursor=&root=
func (a *api) handleComplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sc, ok := a.scope(w, q.Get("root"))
	if !ok {
		return
	}
	cursor := -1
	if c := q.Get("cursor"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			writeError(a.log, w, http.StatusBadRequest, "invalid_data", "cursor must be an integer")
			return
		}
		cursor = n
	}
	items := autocomplete.New(sc).Complete(q.Get("text"), cursor)
	if items == nil {
		items = []autocomplete.CompletionItem{}
	}
	writeJSON(a.log, w, http.StatusOK, wire.CompletionsData{Items: items})
}

// renderRequest decodes a RenderRequest and normalizes its filter.
func (a *api) renderRequest(r *http.Request) (expr.Expression, *present.Node, error) {
	var req RenderRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	sc, err := schema.NewScope(a.Schema, a.rootOr(req.Root))
	if err != nil {
		return nil, nil, err
	}
	e, err := expr.ParseJSON(req.Filter)
	if err != nil {
		return nil, nil, err
	}
	return present.Normalize(e, sc)
}

func (a *api) rootOr(root string) string {
	if root == "" {
		return a.DefaultRoot
	}
	return root
}

// POST /api/filter/render
func (a *api) handleRender(w http.ResponseWriter, r *http.Request) {
	e, tree, err := a.renderRequest(r)
	if err != nil {
		a.requestError(w, err)
		return
	}
	writeJSON(a.log, w, http.StatusOK, TreeResponse{Filter: expr.Encode(e), Tree: tree})
}

// POST /api/filter/validate answers 200 either way; the body says whether
// the filter is valid.
func (a *api) handleValidate(w http.ResponseWriter, r *http.Request) {
	_, _, err := a.renderRequest(r)
	if err != nil {
		if errors.Is(err, errInvalidBody) {
			writeError(a.log, w, http.StatusBadRequest, "invalid_data", err.Error())
			return
		}
		writeJSON(a.log, w, http.StatusOK, ValidateResponse{Code: types.ErrorCode(err), Error: err.Error()})
		return
	}
	writeJSON(a.log, w, http.StatusOK, ValidateResponse{Valid: true})
}

// POST /api/filter/parse
func (a *api) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.log, w, http.StatusBadRequest, "invalid_data", err.Error())
		return
	}
	sc, ok := a.scope(w, req.Root)
	if !ok {
		return
	}
	e, err := present.Parse(req.Tree, sc)
	if err != nil {
		filterErrorToHTTP(a.log, w, err)
		return
	}
	writeJSON(a.log, w, http.StatusOK, TreeResponse{Filter: expr.Encode(e)})
}

// GET /api/filter/stats
func (a *api) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(a.log, w, http.StatusOK, a.Stats.Snapshot())
}

// POST /api/filter/sessions creates a session without a WebSocket. Such
// clients edit it through POST /sessions/{id}/ops.
func (a *api) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(a.log, w, http.StatusBadRequest, "invalid_data", err.Error())
			return
		}
	}
	var initial any
	if len(req.Filter) > 0 {
		if err := json.Unmarshal(req.Filter, &initial); err != nil {
			writeError(a.log, w, http.StatusBadRequest, "invalid_data", err.Error())
			return
		}
	}
	sess, err := a.Sessions.Create(r.Context(), req.Root, initial)
	if err != nil {
		filterErrorToHTTP(a.log, w, err)
		return
	}
	writeJSON(a.log, w, http.StatusCreated, sessionResponse(sess))
}

// GET /api/filter/sessions/{id}
func (a *api) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(a.log, w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeJSON(a.log, w, http.StatusOK, sessionResponse(sess))
}

// DELETE /api/filter/sessions/{id}
func (a *api) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.Sessions.Lookup(r.Context(), id); err != nil {
		writeError(a.log, w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	a.Sessions.Remove(r.Context(), id, "closed")
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/filter/sessions/{id}/ops applies one editing operation. The body
// is a WebSocket editing message, {"type": "toggle_not", "data": {...}}, and
// the answer is the session after the operation.
func (a *api) handleSessionOp(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(a.log, w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	var msg wire.ClientMessage
	if err := decodeJSON(r, &msg); err != nil {
		writeError(a.log, w, http.StatusBadRequest, "invalid_data", err.Error())
		return
	}
	if !wire.IsEdit(msg.Type) {
		writeError(a.log, w, http.StatusBadRequest, wire.CodeUnknownType, fmt.Sprintf("unknown operation: %q", msg.Type))
		return
	}
	path, fn, err := wire.EditOp(msg.Type, msg.Data)
	if err != nil {
		if errors.Is(err, wire.ErrInvalidData) {
			writeError(a.log, w, http.StatusBadRequest, wire.CodeInvalidData, err.Error())
			return
		}
		filterErrorToHTTP(a.log, w, err)
		return
	}
	if err := a.Sessions.Do(r.Context(), sess, msg.Type, path, fn); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(a.log, w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		filterErrorToHTTP(a.log, w, err)
		return
	}
	writeJSON(a.log, w, http.StatusOK, sessionResponse(sess))
}

// GET /api/filter/sessions/{id}/activity returns a session's event history,
// newest first. Closed sessions keep their history.
func (a *api) handleSessionActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, nextCursor, totalCount, err := a.Activity.QueryBySession(r.Context(), id, parseActivityQuery(r))
	if err != nil {
		writeError(a.log, w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}

	resp := struct {
		Activities []activity.Entry `json:"activities"`
		NextCursor string           `json:"next_cursor,omitempty"`
		TotalCount int              `json:"total_count"`
	}{entries, nextCursor, totalCount}
	writeJSON(a.log, w, http.StatusOK, resp)
}

// GET /api/filter/activity?q=&session=&types=&since=&limit= searches event
// summaries across sessions, newest first.
func (a *api) handleSearchActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(a.log, w, http.StatusBadRequest, "invalid_data", "q is required")
		return
	}
	entries, totalCount, err := a.Activity.Search(r.Context(), q, parseSearchQuery(r))
	if err != nil {
		writeError(a.log, w, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}

	resp := struct {
		Activities []activity.Entry `json:"activities"`
		TotalCount int              `json:"total_count"`
	}{entries, totalCount}
	writeJSON(a.log, w, http.StatusOK, resp)
}

func sessionResponse(sess *session.Session) SessionResponse {
	filter, tree := sess.Snapshot()
	return SessionResponse{
		ID:        sess.ID,
		RootModel: sess.RootModel,
		Filter:    filter,
		Tree:      tree,
		History:   sess.History(),
	}
}

// requestError answers a failed render request: an undecodable body is 400,
// anything else goes through filterErrorToHTTP.
func (a *api) requestError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidBody) {
		writeError(a.log, w, http.StatusBadRequest, "invalid_data", err.Error())
		return
	}
	filterErrorToHTTP(a.log, w, err)
}
