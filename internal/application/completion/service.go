package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trade-hub/trade-hub/internal/application/push"
	"github.com/trade-hub/trade-hub/internal/domain/chat"
	"github.com/trade-hub/trade-hub/internal/domain/trade"
)

// Service records trades for completed chats and requests ratings. The
// exactly-once guarantee rests on the chat status CAS: only the write that
// flips the chat to COMPLETED reaches OnChatCompleted. The store's unique
// index on chat_id is the backstop if that invariant is ever violated.
type Service struct {
	trades trade.Repository
	pushes *push.Service
	logger zerolog.Logger
}

// NewService creates a completion service.
func NewService(trades trade.Repository, pushes *push.Service, logger zerolog.Logger) *Service {
	return &Service{
		trades: trades,
		pushes: pushes,
		logger: logger.With().Str("service", "completion").Logger(),
	}
}

// OnChatCompleted creates the trade record for a chat that just entered
// COMPLETED and emits one rating-requested signal per participant. A chat
// already holding a trade returns the existing record without re-emitting.
func (s *Service) OnChatCompleted(ctx context.Context, c *chat.Chat) (*trade.Trade, error) {
	if c.Status != chat.StatusCompleted {
		return nil, fmt.Errorf("chat %s is not completed", c.ChatID)
	}
	t := trade.New(c.ChatID, c.ListingID, c.OwnerID, c.TraderID)
	if err := s.trades.Create(ctx, t); err != nil {
		if errors.Is(err, trade.ErrAlreadyRecorded) {
			return s.trades.GetByChatID(ctx, c.ChatID)
		}
		return nil, err
	}
	for _, pid := range t.Participants() {
		s.pushes.RatingRequested(c.ChatID, pid, t.TradeID)
	}
	s.logger.Info().
		Str("chat_id", c.ChatID.String()).
		Str("trade_id", t.TradeID.String()).
		Msg("trade recorded")
	return t, nil
}

// TradesForUser lists recorded trades for either side of the table.
func (s *Service) TradesForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*trade.Trade, error) {
	return s.trades.ListByUser(ctx, userID, limit, offset)
}
