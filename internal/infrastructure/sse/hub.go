package sse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/event"
)

// Hub manages chat rooms of SSE clients.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[string]*event.Client
	byConn map[string]*event.Client
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*event.Client),
		byConn: make(map[string]*event.Client),
	}
}

func (h *Hub) Subscribe(client *event.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// A reconnect may reuse the connection id while the old request is still
	// draining. Closing the displaced client makes its handler exit.
	if old, ok := h.byConn[client.ConnectionID]; ok {
		h.removeLocked(old)
		old.Close()
	}
	room, ok := h.rooms[client.ChatID]
	if !ok {
		room = make(map[string]*event.Client)
		h.rooms[client.ChatID] = room
	}
	room[client.ConnectionID] = client
	h.byConn[client.ConnectionID] = client
}

func (h *Hub) Unsubscribe(client *event.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.byConn[client.ConnectionID]; ok && cur == client {
		h.removeLocked(cur)
		cur.Close()
	}
}

func (h *Hub) Publish(chatID uuid.UUID, msg *event.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[chatID] {
		trySend(c, msg)
	}
}

func (h *Hub) PublishToUser(chatID, userID uuid.UUID, msg *event.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[chatID] {
		if c.UserID == userID {
			trySend(c, msg)
		}
	}
}

func (h *Hub) RoomSize(chatID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.byConn {
		h.removeLocked(c)
		c.Close()
		delete(h.byConn, id)
	}
}

func (h *Hub) removeLocked(c *event.Client) {
	if room, ok := h.rooms[c.ChatID]; ok {
		delete(room, c.ConnectionID)
		if len(room) == 0 {
			delete(h.rooms, c.ChatID)
		}
	}
	delete(h.byConn, c.ConnectionID)
}

// trySend never blocks: a full client buffer drops the message. The client
// reconciles by re-fetching the canonical snapshot.
func trySend(c *event.Client, msg *event.Message) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
