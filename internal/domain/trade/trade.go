package trade

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("trade not found")
	ErrAlreadyRecorded = errors.New("trade already recorded for this chat")
)

// Trade is the immutable record of a completed negotiation. Exactly one trade
// exists per completed chat; the rating service consumes it by id.
type Trade struct {
	ID          int64     `json:"-"`
	TradeID     uuid.UUID `json:"tradeId"`
	ChatID      uuid.UUID `json:"chatId"`
	ListingID   uuid.UUID `json:"listingId"`
	OwnerID     uuid.UUID `json:"ownerId"`
	TraderID    uuid.UUID `json:"traderId"`
	CompletedAt time.Time `json:"completedAt"`
}

// New creates a trade record for a completed chat.
func New(chatID, listingID, ownerID, traderID uuid.UUID) *Trade {
	return &Trade{
		TradeID:     uuid.New(),
		ChatID:      chatID,
		ListingID:   listingID,
		OwnerID:     ownerID,
		TraderID:    traderID,
		CompletedAt: time.Now().UTC(),
	}
}

// Participants returns both sides of the trade.
func (t *Trade) Participants() []uuid.UUID {
	return []uuid.UUID{t.OwnerID, t.TraderID}
}
