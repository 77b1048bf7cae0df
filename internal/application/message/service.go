package message

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trade-hub/trade-hub/internal/application/push"
	"github.com/trade-hub/trade-hub/internal/domain/chat"
)

var ErrEmptyBody = errors.New("message body is empty")

// Service handles chat messages. Sending is gated on the chat being ACTIVE:
// suspended, completed and cancelled chats reject submission outright rather
// than dropping messages silently.
type Service struct {
	chats    chat.Repository
	messages chat.MessageRepository
	pushes   *push.Service
	logger   zerolog.Logger
}

// NewService creates a message service.
func NewService(chats chat.Repository, messages chat.MessageRepository, pushes *push.Service, logger zerolog.Logger) *Service {
	return &Service{
		chats:    chats,
		messages: messages,
		pushes:   pushes,
		logger:   logger.With().Str("service", "message").Logger(),
	}
}

// Send stores a message and fans it out to the chat room. The ACTIVE gate is
// checked against the chat read at entry: messages sit outside the chat's
// version CAS, so a concurrent leave or select can land between the check and
// the insert and a message may slip in just as the chat closes. Negotiation
// state is unaffected and the history stays readable, so the window is
// accepted rather than serialized.
func (s *Service) Send(ctx context.Context, chatID, senderID uuid.UUID, body string) (*chat.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, chat.ErrNotFound
	}
	if _, ok := c.RoleOf(senderID); !ok {
		return nil, chat.ErrNotParticipant
	}
	if !c.CanSendMessage() {
		if c.IsTerminal() {
			return nil, chat.ErrTerminalState
		}
		return nil, chat.ErrSuspended
	}
	m := chat.NewMessage(chatID, senderID, body)
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	s.pushes.MessageCreated(m)
	return m, nil
}

// List returns a page of messages for a participant.
func (s *Service) List(ctx context.Context, chatID, userID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, chat.ErrNotFound
	}
	if _, ok := c.RoleOf(userID); !ok {
		return nil, chat.ErrNotParticipant
	}
	return s.messages.ListByChat(ctx, chatID, limit, offset)
}

// CanSend reports whether messages are currently accepted for the chat.
func (s *Service) CanSend(ctx context.Context, chatID uuid.UUID) (bool, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, chat.ErrNotFound
	}
	return c.CanSendMessage(), nil
}
