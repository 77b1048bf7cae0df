package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat message. Content moderation, attachments and history
// pagination policy live elsewhere; this service only enforces the send gate.
type Message struct {
	ID        int64     `json:"-"`
	MessageID uuid.UUID `json:"messageId"`
	ChatID    uuid.UUID `json:"chatId"`
	SenderID  uuid.UUID `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage creates a message for a chat.
func NewMessage(chatID, senderID uuid.UUID, body string) *Message {
	return &Message{
		MessageID: uuid.New(),
		ChatID:    chatID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}
