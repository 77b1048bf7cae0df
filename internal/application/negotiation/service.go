package negotiation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trade-hub/trade-hub/internal/application/completion"
	"github.com/trade-hub/trade-hub/internal/application/push"
	"github.com/trade-hub/trade-hub/internal/domain/chat"
	"github.com/trade-hub/trade-hub/internal/domain/listing"
	"github.com/trade-hub/trade-hub/internal/domain/user"
)

// maxRetries bounds the reload-and-reapply loop after a lost CAS. Retrying is
// safe because every transition is idempotent or single-party.
const maxRetries = 3

// Service drives the negotiation lifecycle of chats: lock-in, approve, leave
// and select-trader. Correctness rests on per-entity conditional writes in the
// repositories; the service holds no locks of its own.
type Service struct {
	chats       chat.Repository
	listings    listing.Repository
	users       user.Repository
	coordinator *Coordinator
	completions *completion.Service
	pushes      *push.Service
	logger      zerolog.Logger
}

// NewService creates a negotiation service.
func NewService(
	chats chat.Repository,
	listings listing.Repository,
	users user.Repository,
	coordinator *Coordinator,
	completions *completion.Service,
	pushes *push.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		chats:       chats,
		listings:    listings,
		users:       users,
		coordinator: coordinator,
		completions: completions,
		pushes:      pushes,
		logger:      logger.With().Str("service", "negotiation").Logger(),
	}
}

// Open starts (or returns) the negotiation chat between the listing owner and
// a trader. At most one chat exists per (listing, trader) pair; opening an
// existing one returns it unchanged.
func (s *Service) Open(ctx context.Context, listingID, traderID uuid.UUID) (*chat.Snapshot, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, listing.ErrNotFound
	}
	if traderID == l.OwnerID {
		return nil, chat.ErrOwnListing
	}
	existing, err := s.chats.GetByListingAndTrader(ctx, listingID, traderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.snapshot(ctx, existing, l)
	}
	c := chat.New(l.ListingID, l.OwnerID, traderID)
	if err := s.chats.Create(ctx, c); err != nil {
		if errors.Is(err, chat.ErrAlreadyExists) {
			c, err = s.chats.GetByListingAndTrader(ctx, listingID, traderID)
			if err != nil {
				return nil, err
			}
			return s.snapshot(ctx, c, l)
		}
		return nil, err
	}
	s.logger.Info().
		Str("chat_id", c.ChatID.String()).
		Str("listing_id", listingID.String()).
		Msg("chat opened")
	return s.snapshot(ctx, c, l)
}

// LockIn records the actor's identity confirmation and fans the new snapshot
// out to the chat room.
func (s *Service) LockIn(ctx context.Context, chatID, userID uuid.UUID) (*chat.Snapshot, error) {
	c, err := s.mutate(ctx, chatID, func(c *chat.Chat) error {
		return c.LockIn(userID)
	})
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, c, nil)
}

// Approve records the actor's completion confirmation. The approval that
// flips the chat to COMPLETED also records the trade and requests ratings.
// A repeated approve against an already completed chat is idempotent, which
// is what makes completion recoverable: if the trade write failed after the
// completing write committed, the retry lands here and records it.
func (s *Service) Approve(ctx context.Context, chatID, userID uuid.UUID) (*chat.Snapshot, error) {
	c, err := s.mutate(ctx, chatID, func(c *chat.Chat) error {
		return c.Approve(userID)
	})
	if err != nil {
		if errors.Is(err, chat.ErrTerminalState) {
			return s.recoverCompleted(ctx, chatID, userID, err)
		}
		return nil, err
	}
	if c.Status == chat.StatusCompleted {
		if _, err := s.completions.OnChatCompleted(ctx, c); err != nil {
			s.logger.Error().Err(err).Str("chat_id", chatID.String()).Msg("trade recording failed")
			return nil, err
		}
	}
	return s.publish(ctx, c, nil)
}

// recoverCompleted resolves an approve that hit a terminal chat. Cancelled
// chats keep the terminal error; a completed chat answers idempotently, and
// OnChatCompleted backfills the trade record if the original completing call
// failed between the status write and the trade write.
func (s *Service) recoverCompleted(ctx context.Context, chatID, userID uuid.UUID, cause error) (*chat.Snapshot, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, chat.ErrNotFound
	}
	if _, ok := c.RoleOf(userID); !ok {
		return nil, chat.ErrNotParticipant
	}
	if c.Status != chat.StatusCompleted {
		return nil, cause
	}
	if _, err := s.completions.OnChatCompleted(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("chat_id", chatID.String()).Msg("trade recording failed")
		return nil, err
	}
	return s.snapshot(ctx, c, nil)
}

// Leave cancels the chat. If the chat held the listing's active-trader slot
// the slot is released so the owner can select someone else; chats that were
// suspended by the earlier selection stay OWNER_TRADING until explicitly
// selected again.
func (s *Service) Leave(ctx context.Context, chatID, userID uuid.UUID) (*chat.Snapshot, error) {
	c, err := s.mutate(ctx, chatID, func(c *chat.Chat) error {
		return c.Leave(userID)
	})
	if err != nil {
		return nil, err
	}
	l, err := s.listings.GetByID(ctx, c.ListingID)
	if err != nil {
		return nil, err
	}
	if l != nil && l.IsActiveTrader(c.ChatID) {
		if err := s.coordinator.Release(ctx, c.ListingID, c.ChatID); err != nil {
			return nil, err
		}
		l, err = s.listings.GetByID(ctx, c.ListingID)
		if err != nil {
			return nil, err
		}
	}
	return s.publish(ctx, c, l)
}

// SelectTrader promotes one chat to the listing's active trader. Only the
// listing owner may select; losers of a concurrent selection race receive
// *listing.AlreadyTakenError with the winning chat id. Every other chat on
// the listing that is still open is suspended, and each suspended chat's room
// is notified since its status changed too.
func (s *Service) SelectTrader(ctx context.Context, listingID, chatID, userID uuid.UUID) (*chat.Snapshot, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, listing.ErrNotFound
	}
	if userID != l.OwnerID {
		return nil, listing.ErrNotOwner
	}
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, chat.ErrNotFound
	}
	if c.ListingID != listingID {
		return nil, chat.ErrListingMismatch
	}
	if c.IsTerminal() {
		return nil, chat.ErrTerminalState
	}

	if err := s.coordinator.TrySelect(ctx, listingID, chatID); err != nil {
		return nil, err
	}

	c, err = s.mutate(ctx, chatID, func(c *chat.Chat) error {
		return c.Promote()
	})
	if err != nil {
		// The chat went terminal between the check and the promotion; give
		// the slot back so the owner can pick another trader.
		if errors.Is(err, chat.ErrTerminalState) {
			if relErr := s.coordinator.Release(ctx, listingID, chatID); relErr != nil {
				s.logger.Error().Err(relErr).Str("chat_id", chatID.String()).Msg("slot release failed")
			}
		}
		return nil, err
	}

	siblings, err := s.chats.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	l, err = s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		if sib.ChatID == chatID || sib.IsTerminal() {
			continue
		}
		demoted, err := s.mutate(ctx, sib.ChatID, func(c *chat.Chat) error {
			return c.Suspend()
		})
		if err != nil {
			s.logger.Error().Err(err).Str("chat_id", sib.ChatID.String()).Msg("sibling suspension failed")
			continue
		}
		if _, err := s.publish(ctx, demoted, l); err != nil {
			s.logger.Warn().Err(err).Str("chat_id", sib.ChatID.String()).Msg("sibling snapshot failed")
		}
	}
	return s.publish(ctx, c, l)
}

// GetSnapshot is the pull-based reconciliation path: a client that missed
// pushed events re-reads canonical state here.
func (s *Service) GetSnapshot(ctx context.Context, chatID, userID uuid.UUID) (*chat.Snapshot, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, chat.ErrNotFound
	}
	if _, ok := c.RoleOf(userID); !ok {
		return nil, chat.ErrNotParticipant
	}
	return s.snapshot(ctx, c, nil)
}

// ListForListing returns snapshots of every chat on a listing, for the owner.
func (s *Service) ListForListing(ctx context.Context, listingID, userID uuid.UUID) ([]*chat.Snapshot, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, listing.ErrNotFound
	}
	if userID != l.OwnerID {
		return nil, listing.ErrNotOwner
	}
	chats, err := s.chats.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	snaps := make([]*chat.Snapshot, 0, len(chats))
	for _, c := range chats {
		snap, err := s.snapshot(ctx, c, l)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// IsParticipant reports whether the user is on either side of the chat.
func (s *Service) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, chat.ErrNotFound
	}
	_, ok := c.RoleOf(userID)
	return ok, nil
}

// mutate runs a transition through the reload/apply/CAS loop. Domain errors
// from apply surface unchanged; only a lost write race is retried.
func (s *Service) mutate(ctx context.Context, chatID uuid.UUID, apply func(*chat.Chat) error) (*chat.Chat, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		c, err := s.chats.GetByID(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, chat.ErrNotFound
		}
		if err := apply(c); err != nil {
			return nil, err
		}
		if err := s.chats.Update(ctx, c); err != nil {
			if errors.Is(err, chat.ErrWriteConflict) {
				continue
			}
			return nil, err
		}
		return c, nil
	}
	return nil, chat.ErrWriteConflict
}

// publish builds the canonical snapshot and fans it out to the chat room.
// Delivery failure never fails the caller; the write already committed.
func (s *Service) publish(ctx context.Context, c *chat.Chat, l *listing.Listing) (*chat.Snapshot, error) {
	snap, err := s.snapshot(ctx, c, l)
	if err != nil {
		return nil, err
	}
	s.pushes.ChatUpdated(snap)
	return snap, nil
}

// snapshot assembles chat + listing state, resolving contact handles only
// when the mutual lock-in gate is open. A failed handle lookup degrades to a
// snapshot without contact info rather than failing the operation.
func (s *Service) snapshot(ctx context.Context, c *chat.Chat, l *listing.Listing) (*chat.Snapshot, error) {
	if l == nil {
		var err error
		l, err = s.listings.GetByID(ctx, c.ListingID)
		if err != nil {
			return nil, err
		}
	}
	var owner, trader *user.UserRef
	if c.ContactVisible() {
		var err error
		owner, err = s.users.GetByID(ctx, c.OwnerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", c.OwnerID.String()).Msg("contact lookup failed")
			owner = nil
		}
		trader, err = s.users.GetByID(ctx, c.TraderID)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", c.TraderID.String()).Msg("contact lookup failed")
			trader = nil
		}
	}
	return chat.BuildSnapshot(c, l, owner, trader), nil
}
