package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trade-hub/trade-hub/internal/domain/listing"
)

// ListingRepository is an in-memory listing.Repository. The active-trader
// conditional writes run under one mutex, mirroring the atomicity the
// postgres adapter gets from a single guarded UPDATE.
type ListingRepository struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*listing.Listing
	seq      int64
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{listings: make(map[uuid.UUID]*listing.Listing)}
}

func (r *ListingRepository) Create(_ context.Context, l *listing.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	l.ID = r.seq
	stored := *l
	r.listings[l.ListingID] = &stored
	return nil
}

func (r *ListingRepository) GetByID(_ context.Context, listingID uuid.UUID) (*listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return nil, nil
	}
	cp := *l
	if l.ActiveTraderChatID != nil {
		id := *l.ActiveTraderChatID
		cp.ActiveTraderChatID = &id
	}
	return &cp, nil
}

func (r *ListingRepository) SetActiveTraderChat(_ context.Context, listingID, chatID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return listing.ErrNotFound
	}
	if l.ActiveTraderChatID == nil || *l.ActiveTraderChatID == chatID {
		id := chatID
		l.ActiveTraderChatID = &id
		return nil
	}
	return &listing.AlreadyTakenError{CurrentChatID: *l.ActiveTraderChatID}
}

func (r *ListingRepository) ClearActiveTraderChat(_ context.Context, listingID, chatID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return listing.ErrNotFound
	}
	if l.ActiveTraderChatID != nil && *l.ActiveTraderChatID == chatID {
		l.ActiveTraderChatID = nil
	}
	return nil
}
