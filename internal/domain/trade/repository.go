package trade

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines trade persistence. Create enforces at most one trade per
// chat in the store itself (unique index on chat_id) as a backstop behind the
// chat status CAS; a duplicate returns ErrAlreadyRecorded.
type Repository interface {
	Create(ctx context.Context, t *Trade) error
	GetByChatID(ctx context.Context, chatID uuid.UUID) (*Trade, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Trade, error)
}
