package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/chat"
)

// MessageRepository is an in-memory chat.MessageRepository.
type MessageRepository struct {
	mu     sync.Mutex
	byChat map[uuid.UUID][]*chat.Message
	seq    int64
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{byChat: make(map[uuid.UUID][]*chat.Message)}
}

func (r *MessageRepository) Create(_ context.Context, m *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = r.seq
	stored := *m
	r.byChat[m.ChatID] = append(r.byChat[m.ChatID], &stored)
	return nil
}

func (r *MessageRepository) ListByChat(_ context.Context, chatID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.byChat[chatID]
	if offset >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	out := make([]*chat.Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}
