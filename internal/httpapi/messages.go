package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Store.ListMessages(r.Context(), sessionKey(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleAppendMessage commits a typed line. Typed lines are stored as written,
// without speaker tagging.
func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := s.deps.Store.AppendMessage(r.Context(), sessionKey(r), req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := s.deps.Store.EditMessage(r.Context(), sessionKey(r), r.PathValue("message"), req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleStream sends the full ordered log as a "messages" server-sent event,
// first immediately and then after every change.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	updates, cancel, err := s.deps.Store.Subscribe(ctx, sessionKey(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msgs, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(msgs)
			if err != nil {
				s.deps.Logger.Error(ctx, "Failed to encode log: %v", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: messages\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleWebSocket pushes the full ordered log as a JSON text frame per change.
// Frames from the client are read only to notice the close.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if _, err := s.deps.Store.GetSession(r.Context(), key); err != nil {
		s.fail(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Logger.Warn(r.Context(), "WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	updates, cancel, err := s.deps.Store.Subscribe(ctx, key)
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"))
		return
	}
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-closed:
			return
		case msgs, ok := <-updates:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(messagesFrame{Type: "messages", Messages: msgs}); err != nil {
				return
			}
		}
	}
}

type messagesFrame struct {
	Type     string           `json:"type"`
	Messages []models.Message `json:"messages"`
}
