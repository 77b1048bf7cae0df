package listing

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines listing persistence. SetActiveTraderChat and
// ClearActiveTraderChat are conditional writes: they are the only place
// cross-chat mutual exclusion happens, so their guards live in the store
// itself, never in application-level locking.
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, listingID uuid.UUID) (*Listing, error)

	// SetActiveTraderChat promotes chatID iff the slot is empty or already
	// held by chatID (idempotent). A lost race returns *AlreadyTakenError
	// with the current holder.
	SetActiveTraderChat(ctx context.Context, listingID, chatID uuid.UUID) error

	// ClearActiveTraderChat releases the slot iff chatID currently holds it.
	// Clearing a slot held by another chat is a no-op.
	ClearActiveTraderChat(ctx context.Context, listingID, chatID uuid.UUID) error
}
