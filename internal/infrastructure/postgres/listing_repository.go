package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trade-hub/trade-hub/internal/domain/listing"
)

// ListingRepository implements listing.Repository.
type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO listings (listing_id, owner_id, title, active_trader_chat_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, l.ListingID, l.OwnerID, l.Title, l.ActiveTraderChatID, l.CreatedAt, l.UpdatedAt)
	return err
}

func (r *ListingRepository) GetByID(ctx context.Context, listingID uuid.UUID) (*listing.Listing, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, listing_id, owner_id, title, active_trader_chat_id, created_at, updated_at
		FROM listings WHERE listing_id=$1
	`, listingID)
	var l listing.Listing
	if err := row.Scan(&l.ID, &l.ListingID, &l.OwnerID, &l.Title, &l.ActiveTraderChatID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// SetActiveTraderChat is the conditional write behind the exclusivity
// guarantee: the guard and the mutation are one statement, so concurrent
// selections resolve to exactly one winner inside the database.
func (r *ListingRepository) SetActiveTraderChat(ctx context.Context, listingID, chatID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE listings SET active_trader_chat_id=$2, updated_at=now()
		WHERE listing_id=$1 AND (active_trader_chat_id IS NULL OR active_trader_chat_id=$2)
	`, listingID, chatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	l, err := r.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if l == nil {
		return listing.ErrNotFound
	}
	if l.ActiveTraderChatID == nil {
		// The holder released between our update and the re-read; the caller
		// reloads and retries.
		return listing.ErrWriteConflict
	}
	return &listing.AlreadyTakenError{CurrentChatID: *l.ActiveTraderChatID}
}

func (r *ListingRepository) ClearActiveTraderChat(ctx context.Context, listingID, chatID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE listings SET active_trader_chat_id=NULL, updated_at=now()
		WHERE listing_id=$1 AND active_trader_chat_id=$2
	`, listingID, chatID)
	return err
}
