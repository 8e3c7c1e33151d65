package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/runner"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
)

// chatMessage is what a WebSocket client sends. Plain text frames are accepted too.
type chatMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Chat handles GET /ws/chat/{customer}: one conversation per connection.
// Frames out are runner.Event values. A connection dropped before the
// conversation ends abandons the session.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	customer := chi.URLParam(r, "customer")

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts(s.origins),
	})
	if err != nil {
		s.logger.Error("Failed to accept WebSocket", "err", err, "customer", customer)
		return
	}
	ws.SetReadLimit(int64(runner.MaxInputSize()) * 2)
	defer ws.CloseNow()

	ctx := r.Context()
	welcome, err := s.Assistant.Start(ctx, customer)
	if err != nil {
		s.logger.Error("Chat: Failed to start session", "err", err, "customer", customer)
		ws.Close(websocket.StatusInternalError, "failed to start session")
		return
	}
	id := welcome.SessionID
	s.logger.Info("Chat connected", "session_id", id, "customer", customer)
	if err := wsjson.Write(ctx, ws, runner.Event{Type: "reply", Reply: &welcome}); err != nil {
		s.abandon(ctx, id)
		return
	}

	for {
		text, err := readChat(ctx, ws)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				s.logger.Warn("Chat: Read error", "session_id", id, "err", err)
			}
			s.abandon(ctx, id)
			return
		}
		if text == "" {
			continue
		}
		clean, err := runner.SanitizeInput(text)
		if err != nil {
			if err := wsjson.Write(ctx, ws, runner.Event{Type: "error", Message: err.Error()}); err != nil {
				s.abandon(ctx, id)
				return
			}
			continue
		}

		reply, err := s.Assistant.Send(ctx, id, clean)
		switch {
		case errors.Is(err, domain.ErrSessionEnded):
			ws.Close(websocket.StatusNormalClosure, "conversation ended")
			return
		case err != nil:
			s.logger.Error("Chat: Turn failed", "session_id", id, "err", err)
			if err := wsjson.Write(ctx, ws, runner.Event{Type: "error", Message: "Sorry, something went wrong. Please try again."}); err != nil {
				s.abandon(ctx, id)
				return
			}
			continue
		}

		if err := wsjson.Write(ctx, ws, runner.Event{Type: "reply", Reply: &reply}); err != nil {
			s.abandon(ctx, id)
			return
		}
		if reply.ShouldEnd {
			ws.Close(websocket.StatusNormalClosure, "conversation ended")
			return
		}
	}
}

func readChat(ctx context.Context, ws *websocket.Conn) (string, error) {
	_, data, err := ws.Read(ctx)
	if err != nil {
		return "", err
	}
	var msg chatMessage
	if err := json.Unmarshal(data, &msg); err == nil {
		return strings.TrimSpace(msg.Content), nil
	}
	return strings.TrimSpace(string(data)), nil
}

// abandon runs detached from ctx, which is usually done by the time the client is gone.
func (s *Server) abandon(ctx context.Context, id string) {
	if err := s.Assistant.Abandon(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Warn("Chat: Failed to abandon session", "session_id", id, "err", err)
		return
	}
	s.logger.Info("Chat disconnected", "session_id", id)
}

// originHosts turns CORS origins into the host patterns websocket.Accept expects.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		hosts = append(hosts, o)
	}
	return hosts
}
