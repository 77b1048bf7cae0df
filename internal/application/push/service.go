package push

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trade-hub/trade-hub/internal/domain/chat"
	"github.com/trade-hub/trade-hub/internal/domain/event"
)

// Service propagates state changes to chat rooms. Delivery is fire-and-forget
// relative to the triggering write: the store is authoritative and subscribers
// always have the pull path, so a failed or dropped push is logged and lost.
type Service struct {
	hub    event.Hub
	logger zerolog.Logger
}

// NewService creates a push service.
func NewService(hub event.Hub, logger zerolog.Logger) *Service {
	return &Service{
		hub:    hub,
		logger: logger.With().Str("service", "push").Logger(),
	}
}

// ChatUpdated fans the chat's canonical snapshot out to its room.
func (s *Service) ChatUpdated(snap *chat.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error().Err(err).Str("chat_id", snap.ChatID.String()).Msg("marshal chat snapshot")
		return
	}
	s.hub.Publish(snap.ChatID, event.NewMessage(event.TypeChatUpdated, snap.ChatID, data))
}

// MessageCreated fans a new chat message out to the chat's room.
func (s *Service) MessageCreated(m *chat.Message) {
	data, err := json.Marshal(m)
	if err != nil {
		s.logger.Error().Err(err).Str("chat_id", m.ChatID.String()).Msg("marshal chat message")
		return
	}
	s.hub.Publish(m.ChatID, event.NewMessage(event.TypeMessageCreated, m.ChatID, data))
}

// RatingRequested signals one participant that a completed trade awaits their
// rating. Addressed to that participant's connections only.
func (s *Service) RatingRequested(chatID, userID, tradeID uuid.UUID) {
	payload := map[string]string{
		"tradeId":       tradeID.String(),
		"participantId": userID.String(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("trade_id", tradeID.String()).Msg("marshal rating request")
		return
	}
	s.hub.PublishToUser(chatID, userID, event.NewMessage(event.TypeRatingRequested, chatID, data))
}
