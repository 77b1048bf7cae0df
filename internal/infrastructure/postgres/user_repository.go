package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trade-hub/trade-hub/internal/domain/user"
)

// UserRepository implements user.Repository over the account service's
// replicated users table. This service never writes to it.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.UserRef, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, display_name, contact_handle, created_at
		FROM users WHERE user_id=$1
	`, userID)
	var u user.UserRef
	if err := row.Scan(&u.ID, &u.DisplayName, &u.ContactHandle, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
