package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

// UserRef is the read-only view of a user this service needs. Profile
// management lives in the account service; we only carry identity and the
// contact handle exchanged once both sides of a chat lock in.
type UserRef struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   string    `json:"displayName"`
	ContactHandle string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ContactInfo returns the external handle used to arrange the trade.
// Callers must apply the mutual lock-in gate before exposing it.
func (u *UserRef) ContactInfo() string {
	return u.ContactHandle
}
