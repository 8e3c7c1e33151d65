package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/lendflow/pkg/domain"
)

// allSessions is the subscription key of streams that follow every session.
const allSessions = ""

// StreamManager fans session diffs out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for sessionID, or for all sessions when it is empty.
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Publish broadcasts a diff as JSON.
func (sm *StreamManager) Publish(diff *domain.SessionDiff) {
	b, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("StreamManager: Failed to encode diff", "session_id", diff.SessionID, "err", err)
		return
	}
	sm.Broadcast(diff.SessionID, string(b))
}

// Broadcast sends msg to the session's subscribers and to the global ones.
// Slow clients lose messages rather than block the turn.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{sessionID, allSessions}
	if sessionID == allSessions {
		keys = keys[:1]
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
			}
		}
	}
}

// SubscribeEvents handles GET /events?session_id=&watch= (SSE).
// watch is a comma-separated subset of stage, status, offer, documents, history, log.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: Subscribed", "session_id", sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watched(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, fields []string) bool {
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "stage":
			if diff.Stage != nil || diff.Handler != nil {
				return true
			}
		case "status":
			if diff.Status != nil || diff.ApplicationStatus != nil || diff.ShouldEnd != nil {
				return true
			}
		case "offer":
			if diff.Amount != nil || diff.EMI != nil {
				return true
			}
		case "documents":
			if diff.PendingDocuments != nil {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		case "log":
			if len(diff.Log) > 0 {
				return true
			}
		}
	}
	return false
}
