package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/event"
)

// heartbeatInterval keeps idle streams alive through proxies that reap quiet
// connections.
const heartbeatInterval = 30 * time.Second

// chatEvents subscribes the connection to the chat's room for the lifetime of
// the request. Subscription is pure fan-out: missing an event is recoverable
// by re-reading the chat snapshot, so no replay is attempted on reconnect.
func (s *Server) chatEvents(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseUUIDParam(r, "chatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chatId")
		return
	}
	auth := authUserFromContext(r.Context())
	ok, err := s.negotiationSvc.IsParticipant(r.Context(), chatID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusForbidden, "NOT_PARTICIPANT", "user is not a participant of this chat")
		return
	}

	connectionID := r.URL.Query().Get("connection_id")
	if connectionID == "" {
		connectionID = uuid.NewString()
	}
	client := event.NewClient(connectionID, auth.UserID, chatID)
	s.hub.Subscribe(client)
	defer s.hub.Unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok2 := w.(http.Flusher)
	if !ok2 {
		return
	}
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
