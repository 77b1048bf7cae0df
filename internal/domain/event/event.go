package event

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of event carried by a stream message.
type Type string

const (
	TypeChatUpdated     Type = "chat_updated"
	TypeMessageCreated  Type = "message_created"
	TypeRatingRequested Type = "rating_requested"
)

var (
	ErrClientNotFound = errors.New("stream client not found")
	ErrChannelFull    = errors.New("stream client channel full")
)

// Message is one event pushed to a chat room. Data always carries a complete
// snapshot, never a delta: receivers replace their local copy wholesale, so
// duplicates and reordering are harmless.
type Message struct {
	ID        string          `json:"id"`
	Event     Type            `json:"event"`
	ChatID    uuid.UUID       `json:"chatId"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a stream message for a chat room.
func NewMessage(eventType Type, chatID uuid.UUID, data json.RawMessage) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Event:     eventType,
		ChatID:    chatID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Client represents one live connection subscribed to a chat room.
type Client struct {
	ConnectionID string
	UserID       uuid.UUID
	ChatID       uuid.UUID
	ConnectedAt  time.Time
	MessageChan  chan *Message
}

// NewClient creates a stream client with a bounded buffer. A subscriber that
// cannot keep up has events dropped, not queued without limit; it recovers by
// re-reading the canonical snapshot.
func NewClient(connectionID string, userID, chatID uuid.UUID) *Client {
	return &Client{
		ConnectionID: connectionID,
		UserID:       userID,
		ChatID:       chatID,
		ConnectedAt:  time.Now().UTC(),
		MessageChan:  make(chan *Message, 64),
	}
}

// Close releases the client's channel.
func (c *Client) Close() {
	close(c.MessageChan)
}
