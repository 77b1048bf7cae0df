package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/chat"
)

// ChatRepository is an in-memory chat.Repository with the same conditional
// write semantics as the postgres adapter. Used by tests and local runs.
type ChatRepository struct {
	mu    sync.Mutex
	chats map[uuid.UUID]*chat.Chat
	pairs map[pairKey]uuid.UUID
	seq   int64
}

type pairKey struct {
	listingID uuid.UUID
	traderID  uuid.UUID
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{
		chats: make(map[uuid.UUID]*chat.Chat),
		pairs: make(map[pairKey]uuid.UUID),
	}
}

func (r *ChatRepository) Create(_ context.Context, c *chat.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{listingID: c.ListingID, traderID: c.TraderID}
	if _, exists := r.pairs[key]; exists {
		return chat.ErrAlreadyExists
	}
	if _, exists := r.chats[c.ChatID]; exists {
		return chat.ErrAlreadyExists
	}
	r.seq++
	c.ID = r.seq
	stored := *c
	r.chats[c.ChatID] = &stored
	r.pairs[key] = c.ChatID
	return nil
}

func (r *ChatRepository) GetByID(_ context.Context, chatID uuid.UUID) (*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *ChatRepository) GetByListingAndTrader(_ context.Context, listingID, traderID uuid.UUID) (*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.pairs[pairKey{listingID: listingID, traderID: traderID}]
	if !ok {
		return nil, nil
	}
	cp := *r.chats[id]
	return &cp, nil
}

func (r *ChatRepository) ListByListing(_ context.Context, listingID uuid.UUID) ([]*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.Chat
	for _, c := range r.chats {
		if c.ListingID == listingID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ChatRepository) ListByParticipant(_ context.Context, userID uuid.UUID) ([]*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.Chat
	for _, c := range r.chats {
		if c.OwnerID == userID || c.TraderID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ChatRepository) Update(_ context.Context, c *chat.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.chats[c.ChatID]
	if !ok {
		return chat.ErrWriteConflict
	}
	if cur.Version != c.Version {
		return chat.ErrWriteConflict
	}
	c.Version++
	stored := *c
	r.chats[c.ChatID] = &stored
	return nil
}
