package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/listing"
	"github.com/trade-hub/trade-hub/internal/domain/user"
)

// Snapshot is the complete, replaceable representation of a chat pushed to
// subscribers and returned from the read path. Receivers merge snapshots by
// field-level replace keyed on ChatID; duplicates and reordering are safe
// because the store, not the stream, is authoritative.
type Snapshot struct {
	ChatID             uuid.UUID  `json:"chatId"`
	ListingID          uuid.UUID  `json:"listingId"`
	OwnerID            uuid.UUID  `json:"ownerId"`
	TraderID           uuid.UUID  `json:"traderId"`
	Status             Status     `json:"status"`
	OwnerLockedIn      bool       `json:"ownerLockedIn"`
	TraderLockedIn     bool       `json:"traderLockedIn"`
	OwnerApproved      bool       `json:"ownerApproved"`
	TraderApproved     bool       `json:"traderApproved"`
	ContactVisible     bool       `json:"contactVisible"`
	OwnerContact       *string    `json:"ownerContact,omitempty"`
	TraderContact      *string    `json:"traderContact,omitempty"`
	ActiveTraderChatID *uuid.UUID `json:"activeTraderChatId,omitempty"`
	Version            int64      `json:"version"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// BuildSnapshot assembles the canonical snapshot of a chat and its listing.
// Contact handles are included only once the mutual lock-in gate is open;
// the gate opens for both sides at the same instant or not at all.
func BuildSnapshot(c *Chat, l *listing.Listing, owner, trader *user.UserRef) *Snapshot {
	snap := &Snapshot{
		ChatID:         c.ChatID,
		ListingID:      c.ListingID,
		OwnerID:        c.OwnerID,
		TraderID:       c.TraderID,
		Status:         c.Status,
		OwnerLockedIn:  c.OwnerLockedIn,
		TraderLockedIn: c.TraderLockedIn,
		OwnerApproved:  c.OwnerApproved,
		TraderApproved: c.TraderApproved,
		ContactVisible: c.ContactVisible(),
		Version:        c.Version,
		UpdatedAt:      c.UpdatedAt,
	}
	if l != nil {
		snap.ActiveTraderChatID = l.ActiveTraderChatID
	}
	if snap.ContactVisible && owner != nil && trader != nil {
		oc := owner.ContactInfo()
		tc := trader.ContactInfo()
		snap.OwnerContact = &oc
		snap.TraderContact = &tc
	}
	return snap
}
