package listing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("listing not found")
	ErrNotOwner      = errors.New("only the listing owner may select a trader")
	ErrWriteConflict = errors.New("listing write conflict")
)

// AlreadyTakenError is returned when a select-trader attempt loses the race:
// another chat already holds the listing's active-trader slot. It carries the
// winning chat id so the caller can redirect rather than fail opaquely.
type AlreadyTakenError struct {
	CurrentChatID uuid.UUID
}

func (e *AlreadyTakenError) Error() string {
	return fmt.Sprintf("listing already has an active trader chat: %s", e.CurrentChatID)
}

// Listing is the read-mostly view of a marketplace listing. Catalog CRUD and
// search belong to the listing service; the negotiation engine only reads it
// and owns the single ActiveTraderChatID field.
type Listing struct {
	ID                 int64      `json:"-"`
	ListingID          uuid.UUID  `json:"listingId"`
	OwnerID            uuid.UUID  `json:"ownerId"`
	Title              string     `json:"title"`
	ActiveTraderChatID *uuid.UUID `json:"activeTraderChatId,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// HasActiveTrader reports whether a chat currently holds the active-trader slot.
func (l *Listing) HasActiveTrader() bool {
	return l.ActiveTraderChatID != nil
}

// IsActiveTrader reports whether the given chat holds the slot.
func (l *Listing) IsActiveTrader(chatID uuid.UUID) bool {
	return l.ActiveTraderChatID != nil && *l.ActiveTraderChatID == chatID
}
