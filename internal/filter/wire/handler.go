package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-logr/logr"

	"github.com/matthewbaird/filtereditor/internal/filter/autocomplete"
	"github.com/matthewbaird/filtereditor/internal/filter/session"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// Handler manages WebSocket connections for filter editing. Each connection
// owns at most one session at a time.
type Handler struct {
	sessions *session.Manager
	log      logr.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager, log logr.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		log:      log.WithName("wire"),
	}
}

// conn is the per-connection state.
type conn struct {
	ws       *websocket.Conn
	sess     *session.Session
	complete *autocomplete.Engine
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error(err, "websocket accept")
		return
	}
	defer ws.CloseNow()

	ctx := r.Context()
	c := &conn{ws: ws}
	defer func() {
		if c.sess != nil {
			h.sessions.Remove(context.WithoutCancel(ctx), c.sess.ID, "closed")
		}
	}()

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				h.log.V(1).Info("connection closed", "status", status)
			}
			return
		}

		switch msg.Type {
		case TypeOpen:
			h.handleOpen(ctx, c, msg)
		case TypeComplete:
			h.handleComplete(ctx, c, msg)
		case TypeCatalog:
			h.handleCatalog(ctx, c, msg)
		case TypePing:
			h.send(ctx, c, ServerMessage{Type: TypePong, RequestID: msg.ID})
		default:
			if IsEdit(msg.Type) {
				h.handleEdit(ctx, c, msg)
				continue
			}
			h.sendError(ctx, c, msg.ID, CodeUnknownType, fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleOpen(ctx context.Context, c *conn, msg ClientMessage) {
	var data OpenData
	if !h.decode(ctx, c, msg, &data) {
		return
	}
	var initial any
	if len(data.Filter) > 0 {
		if err := json.Unmarshal(data.Filter, &initial); err != nil {
			h.sendError(ctx, c, msg.ID, CodeInvalidData, "filter is not valid JSON")
			return
		}
	}

	sess, err := h.sessions.Create(ctx, data.Root, initial)
	if err != nil {
		h.sendError(ctx, c, msg.ID, types.ErrorCode(err), err.Error())
		return
	}
	if c.sess != nil {
		h.sessions.Remove(ctx, c.sess.ID, "closed")
	}
	c.sess = sess
	c.complete = autocomplete.New(sess.Scope())

	h.send(ctx, c, ServerMessage{
		Type:      TypeSession,
		RequestID: msg.ID,
		Data:      SessionData{SessionID: sess.ID, RootModel: sess.RootModel},
	})
	h.sendTree(ctx, c, msg.ID)
}

// handleEdit decodes one editing message, applies it through the session
// manager and answers with the new tree or an error. A session that expired
// under the connection is dropped and answered with no_session.
func (h *Handler) handleEdit(ctx context.Context, c *conn, msg ClientMessage) {
	if !h.live(ctx, c, msg) {
		return
	}
	path, fn, err := EditOp(msg.Type, msg.Data)
	if err != nil {
		h.sendError(ctx, c, msg.ID, ErrorCode(err), err.Error())
		return
	}
	if err := h.sessions.Do(ctx, c.sess, msg.Type, path, fn); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			h.expire(ctx, c, msg)
			return
		}
		h.sendError(ctx, c, msg.ID, ErrorCode(err), err.Error())
		return
	}
	h.sendTree(ctx, c, msg.ID)
}

// live reports whether the connection still has a session, answering with
// no_session when it does not.
func (h *Handler) live(ctx context.Context, c *conn, msg ClientMessage) bool {
	if c.sess == nil {
		h.sendError(ctx, c, msg.ID, CodeNoSession, "send an open message first")
		return false
	}
	if _, err := h.sessions.Lookup(ctx, c.sess.ID); err != nil {
		h.expire(ctx, c, msg)
		return false
	}
	return true
}

func (h *Handler) expire(ctx context.Context, c *conn, msg ClientMessage) {
	h.log.V(1).Info("session gone", "session_id", c.sess.ID)
	c.sess, c.complete = nil, nil
	h.sendError(ctx, c, msg.ID, CodeNoSession, "session expired, send an open message")
}

func (h *Handler) handleComplete(ctx context.Context, c *conn, msg ClientMessage) {
	if !h.live(ctx, c, msg) {
		return
	}
	var data CompleteData
	if !h.decode(ctx, c, msg, &data) {
		return
	}
	cursor := -1
	if data.Cursor != nil {
		cursor = *data.Cursor
	}

	items := c.complete.Complete(data.Text, cursor)
	if items == nil {
		items = []autocomplete.CompletionItem{}
	}
	h.send(ctx, c, ServerMessage{
		Type:      TypeCompletions,
		RequestID: msg.ID,
		Data:      CompletionsData{Items: items},
	})
}

func (h *Handler) handleCatalog(ctx context.Context, c *conn, msg ClientMessage) {
	if !h.live(ctx, c, msg) {
		return
	}
	h.send(ctx, c, ServerMessage{
		Type:      TypeCatalog,
		RequestID: msg.ID,
		Data:      CatalogData{Entries: c.sess.Scope().Catalog()},
	})
}

// decode unmarshals msg.Data into v, answering with an invalid_data error
// when it fails. An absent payload leaves v zero.
func (h *Handler) decode(ctx context.Context, c *conn, msg ClientMessage, v any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		h.sendError(ctx, c, msg.ID, CodeInvalidData, fmt.Sprintf("invalid %s data: %v", msg.Type, err))
		return false
	}
	return true
}

func (h *Handler) sendTree(ctx context.Context, c *conn, requestID string) {
	filter, tree := c.sess.Snapshot()
	h.send(ctx, c, ServerMessage{
		Type:      TypeTree,
		RequestID: requestID,
		Data:      TreeData{Filter: filter, Tree: tree},
	})
}

func (h *Handler) send(ctx context.Context, c *conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, c.ws, msg); err != nil {
		h.log.Error(err, "write", "type", msg.Type)
	}
}

func (h *Handler) sendError(ctx context.Context, c *conn, requestID, code, message string) {
	h.send(ctx, c, ServerMessage{
		Type:      TypeError,
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
