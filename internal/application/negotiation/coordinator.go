package negotiation

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trade-hub/trade-hub/internal/domain/listing"
)

// Coordinator enforces "at most one active trader chat per listing". The
// mutual exclusion is a single conditional write on the listing row: the
// winner determination and the mutation are the same atomic operation, so no
// lock manager is involved and concurrent selections cannot both win.
type Coordinator struct {
	listings listing.Repository
	logger   zerolog.Logger
}

// NewCoordinator creates an exclusivity coordinator.
func NewCoordinator(listings listing.Repository, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		listings: listings,
		logger:   logger.With().Str("service", "exclusivity").Logger(),
	}
}

// TrySelect claims the active-trader slot for chatID. Succeeds if the slot is
// empty or already held by chatID; a lost race returns *listing.AlreadyTakenError
// carrying the winner.
func (c *Coordinator) TrySelect(ctx context.Context, listingID, chatID uuid.UUID) error {
	if err := c.listings.SetActiveTraderChat(ctx, listingID, chatID); err != nil {
		return err
	}
	c.logger.Info().
		Str("listing_id", listingID.String()).
		Str("chat_id", chatID.String()).
		Msg("active trader selected")
	return nil
}

// Release clears the slot held by chatID, typically after the promoted chat
// is cancelled. Releasing a slot held by another chat is a no-op.
func (c *Coordinator) Release(ctx context.Context, listingID, chatID uuid.UUID) error {
	if err := c.listings.ClearActiveTraderChat(ctx, listingID, chatID); err != nil {
		return err
	}
	c.logger.Info().
		Str("listing_id", listingID.String()).
		Str("chat_id", chatID.String()).
		Msg("active trader released")
	return nil
}
