package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the negotiation status of a chat.
type Status string

const (
	// StatusActive is the normal negotiating state.
	StatusActive Status = "ACTIVE"
	// StatusOwnerTrading means the listing owner promoted a different chat;
	// messaging and lock-in are suspended until the owner selects again.
	StatusOwnerTrading Status = "OWNER_TRADING"
	// StatusCompleted is terminal: both sides approved and a trade was recorded.
	StatusCompleted Status = "COMPLETED"
	// StatusCancelled is terminal: one side left before completion.
	StatusCancelled Status = "CANCELLED"
)

// Role identifies which side of a chat a user is on.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleTrader Role = "TRADER"
)

var (
	ErrNotFound           = errors.New("chat not found")
	ErrNotParticipant     = errors.New("user is not a participant of this chat")
	ErrTerminalState      = errors.New("chat is completed or cancelled")
	ErrPreconditionFailed = errors.New("both participants must lock in before approving")
	ErrSuspended          = errors.New("chat is suspended while the owner trades elsewhere")
	ErrWriteConflict      = errors.New("chat write conflict")
	ErrListingMismatch    = errors.New("chat does not belong to this listing")
	ErrOwnListing         = errors.New("cannot open a chat on your own listing")
	ErrAlreadyExists      = errors.New("chat already exists for this listing and user")
)

// Chat is one two-party negotiation thread against a listing. The owner side
// is stored explicitly rather than re-derived from the listing at read time,
// so a later ownership change on the listing cannot reinterpret history.
type Chat struct {
	ID             int64     `json:"-"`
	ChatID         uuid.UUID `json:"chatId"`
	ListingID      uuid.UUID `json:"listingId"`
	OwnerID        uuid.UUID `json:"ownerId"`
	TraderID       uuid.UUID `json:"traderId"`
	Status         Status    `json:"status"`
	OwnerLockedIn  bool      `json:"ownerLockedIn"`
	TraderLockedIn bool      `json:"traderLockedIn"`
	OwnerApproved  bool      `json:"ownerApproved"`
	TraderApproved bool      `json:"traderApproved"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// New creates a chat in ACTIVE state between a listing owner and a trader.
func New(listingID, ownerID, traderID uuid.UUID) *Chat {
	now := time.Now().UTC()
	return &Chat{
		ChatID:    uuid.New(),
		ListingID: listingID,
		OwnerID:   ownerID,
		TraderID:  traderID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RoleOf resolves which slot the user occupies.
func (c *Chat) RoleOf(userID uuid.UUID) (Role, bool) {
	switch userID {
	case c.OwnerID:
		return RoleOwner, true
	case c.TraderID:
		return RoleTrader, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transitions are accepted.
func (c *Chat) IsTerminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusCancelled
}

// BothLockedIn reports mutual identity confirmation.
func (c *Chat) BothLockedIn() bool {
	return c.OwnerLockedIn && c.TraderLockedIn
}

// BothApproved reports mutual completion confirmation.
func (c *Chat) BothApproved() bool {
	return c.OwnerApproved && c.TraderApproved
}

// ContactVisible reports whether contact handles may be shown. Visibility is
// derived, never stored: it flips for both sides at once when the second
// lock-in lands, and is withdrawn if the chat is cancelled.
func (c *Chat) ContactVisible() bool {
	return c.BothLockedIn() && c.Status != StatusCancelled
}

// CanSendMessage gates message submission on the ACTIVE state. Suspended and
// terminal chats fail closed.
func (c *Chat) CanSendMessage() bool {
	return c.Status == StatusActive
}

// LockIn records the actor's identity confirmation. Valid only in ACTIVE.
// Idempotent: a repeated lock-in succeeds without changing anything.
func (c *Chat) LockIn(userID uuid.UUID) error {
	role, ok := c.RoleOf(userID)
	if !ok {
		return ErrNotParticipant
	}
	if c.IsTerminal() {
		return ErrTerminalState
	}
	if c.Status == StatusOwnerTrading {
		return ErrSuspended
	}
	switch role {
	case RoleOwner:
		c.OwnerLockedIn = true
	case RoleTrader:
		c.TraderLockedIn = true
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Approve records the actor's completion confirmation. Valid only in ACTIVE
// and only after both lock-in flags are set. When the second approval lands
// the chat moves to COMPLETED; the caller owns recording the trade within the
// same conditional write.
func (c *Chat) Approve(userID uuid.UUID) error {
	role, ok := c.RoleOf(userID)
	if !ok {
		return ErrNotParticipant
	}
	if c.IsTerminal() {
		return ErrTerminalState
	}
	if c.Status == StatusOwnerTrading {
		return ErrSuspended
	}
	if !c.BothLockedIn() {
		return ErrPreconditionFailed
	}
	switch role {
	case RoleOwner:
		c.OwnerApproved = true
	case RoleTrader:
		c.TraderApproved = true
	}
	if c.BothApproved() {
		c.Status = StatusCompleted
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Leave cancels the chat. Either participant may cancel unilaterally at any
// point before completion; trading is voluntary, so there is no mutual-agree
// rule on the way out.
func (c *Chat) Leave(userID uuid.UUID) error {
	if _, ok := c.RoleOf(userID); !ok {
		return ErrNotParticipant
	}
	if c.IsTerminal() {
		return ErrTerminalState
	}
	c.Status = StatusCancelled
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Promote returns a suspended chat to ACTIVE when the owner selects it as the
// trader. Promoting an already active chat is a no-op.
func (c *Chat) Promote() error {
	if c.IsTerminal() {
		return ErrTerminalState
	}
	c.Status = StatusActive
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Suspend moves an ACTIVE chat to OWNER_TRADING after the owner promoted a
// sibling chat on the same listing. Suspending an already suspended chat is a
// no-op; terminal chats are left untouched.
func (c *Chat) Suspend() error {
	if c.IsTerminal() {
		return ErrTerminalState
	}
	c.Status = StatusOwnerTrading
	c.UpdatedAt = time.Now().UTC()
	return nil
}
