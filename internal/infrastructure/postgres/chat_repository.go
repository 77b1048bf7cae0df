package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trade-hub/trade-hub/internal/domain/chat"
)

// ChatRepository implements chat.Repository.
type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

const chatColumns = `id, chat_id, listing_id, owner_id, trader_id, status, owner_locked_in, trader_locked_in, owner_approved, trader_approved, version, created_at, updated_at`

func (r *ChatRepository) Create(ctx context.Context, c *chat.Chat) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chats (chat_id, listing_id, owner_id, trader_id, status, owner_locked_in, trader_locked_in, owner_approved, trader_approved, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ChatID, c.ListingID, c.OwnerID, c.TraderID, c.Status, c.OwnerLockedIn, c.TraderLockedIn, c.OwnerApproved, c.TraderApproved, c.Version, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return chat.ErrAlreadyExists
	}
	return err
}

func (r *ChatRepository) GetByID(ctx context.Context, chatID uuid.UUID) (*chat.Chat, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE chat_id=$1
	`, chatID)
	return scanChat(row)
}

func (r *ChatRepository) GetByListingAndTrader(ctx context.Context, listingID, traderID uuid.UUID) (*chat.Chat, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE listing_id=$1 AND trader_id=$2
	`, listingID, traderID)
	return scanChat(row)
}

func (r *ChatRepository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]*chat.Chat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE listing_id=$1 ORDER BY created_at
	`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChats(rows)
}

func (r *ChatRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*chat.Chat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE owner_id=$1 OR trader_id=$1 ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChats(rows)
}

// Update is the compare-and-swap: it commits only against the version the
// caller loaded and bumps it on success. Zero rows affected means another
// writer got there first.
func (r *ChatRepository) Update(ctx context.Context, c *chat.Chat) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chats
		SET status=$1, owner_locked_in=$2, trader_locked_in=$3, owner_approved=$4, trader_approved=$5, version=version+1, updated_at=$6
		WHERE chat_id=$7 AND version=$8
	`, c.Status, c.OwnerLockedIn, c.TraderLockedIn, c.OwnerApproved, c.TraderApproved, c.UpdatedAt, c.ChatID, c.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return chat.ErrWriteConflict
	}
	c.Version++
	return nil
}

func scanChat(row pgx.Row) (*chat.Chat, error) {
	var c chat.Chat
	if err := row.Scan(&c.ID, &c.ChatID, &c.ListingID, &c.OwnerID, &c.TraderID, &c.Status, &c.OwnerLockedIn, &c.TraderLockedIn, &c.OwnerApproved, &c.TraderApproved, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func collectChats(rows pgx.Rows) ([]*chat.Chat, error) {
	var chats []*chat.Chat
	for rows.Next() {
		var c chat.Chat
		if err := rows.Scan(&c.ID, &c.ChatID, &c.ListingID, &c.OwnerID, &c.TraderID, &c.Status, &c.OwnerLockedIn, &c.TraderLockedIn, &c.OwnerApproved, &c.TraderApproved, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, &c)
	}
	return chats, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
