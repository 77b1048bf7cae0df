package chat

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,MessageRepository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines chat persistence. Update is a compare-and-swap: the
// write commits only if the stored version still equals c.Version, and bumps
// the version on success. A lost race returns ErrWriteConflict so the caller
// reloads and reapplies; every transition is idempotent, so the retry is safe.
type Repository interface {
	Create(ctx context.Context, c *Chat) error
	GetByID(ctx context.Context, chatID uuid.UUID) (*Chat, error)
	GetByListingAndTrader(ctx context.Context, listingID, traderID uuid.UUID) (*Chat, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]*Chat, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*Chat, error)
	Update(ctx context.Context, c *Chat) error
}

// MessageRepository defines message persistence.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListByChat(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*Message, error)
}
