package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/user"
)

// UserRepository is an in-memory user.Repository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.UserRef
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*user.UserRef)}
}

// Add seeds a user.
func (r *UserRepository) Add(u *user.UserRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *u
	r.users[u.ID] = &stored
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (*user.UserRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
