package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trade-hub/trade-hub/internal/domain/trade"
)

// TradeRepository implements trade.Repository.
type TradeRepository struct {
	pool *pgxpool.Pool
}

func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

func (r *TradeRepository) Create(ctx context.Context, t *trade.Trade) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trades (trade_id, chat_id, listing_id, owner_id, trader_id, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, t.TradeID, t.ChatID, t.ListingID, t.OwnerID, t.TraderID, t.CompletedAt)
	if isUniqueViolation(err) {
		return trade.ErrAlreadyRecorded
	}
	return err
}

func (r *TradeRepository) GetByChatID(ctx context.Context, chatID uuid.UUID) (*trade.Trade, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, trade_id, chat_id, listing_id, owner_id, trader_id, completed_at
		FROM trades WHERE chat_id=$1
	`, chatID)
	var t trade.Trade
	if err := row.Scan(&t.ID, &t.TradeID, &t.ChatID, &t.ListingID, &t.OwnerID, &t.TraderID, &t.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TradeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*trade.Trade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, trade_id, chat_id, listing_id, owner_id, trader_id, completed_at
		FROM trades WHERE owner_id=$1 OR trader_id=$1
		ORDER BY completed_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var trades []*trade.Trade
	for rows.Next() {
		var t trade.Trade
		if err := rows.Scan(&t.ID, &t.TradeID, &t.ChatID, &t.ListingID, &t.OwnerID, &t.TraderID, &t.CompletedAt); err != nil {
			return nil, err
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}
