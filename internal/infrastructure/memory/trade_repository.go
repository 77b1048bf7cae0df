package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/trade"
)

// TradeRepository is an in-memory trade.Repository enforcing the one-trade-
// per-chat invariant the postgres adapter gets from its unique index.
type TradeRepository struct {
	mu     sync.Mutex
	byChat map[uuid.UUID]*trade.Trade
	seq    int64
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{byChat: make(map[uuid.UUID]*trade.Trade)}
}

func (r *TradeRepository) Create(_ context.Context, t *trade.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byChat[t.ChatID]; exists {
		return trade.ErrAlreadyRecorded
	}
	r.seq++
	t.ID = r.seq
	stored := *t
	r.byChat[t.ChatID] = &stored
	return nil
}

func (r *TradeRepository) GetByChatID(_ context.Context, chatID uuid.UUID) (*trade.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChat[chatID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *TradeRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*trade.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*trade.Trade
	for _, t := range r.byChat {
		if t.OwnerID == userID || t.TraderID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
