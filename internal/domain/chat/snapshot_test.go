package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trade-hub/trade-hub/internal/domain/listing"
	"github.com/trade-hub/trade-hub/internal/domain/user"
)

func TestBuildSnapshot(t *testing.T) {
	c := newTestChat()
	owner := &user.UserRef{ID: c.OwnerID, DisplayName: "seller", ContactHandle: "EMBARK#1111"}
	trader := &user.UserRef{ID: c.TraderID, DisplayName: "buyer", ContactHandle: "EMBARK#2222"}
	l := &listing.Listing{ListingID: c.ListingID, OwnerID: c.OwnerID}

	t.Run("no contact info before mutual lock-in", func(t *testing.T) {
		snap := BuildSnapshot(c, l, owner, trader)
		assert.False(t, snap.ContactVisible)
		assert.Nil(t, snap.OwnerContact)
		assert.Nil(t, snap.TraderContact)
	})

	t.Run("both handles or neither", func(t *testing.T) {
		require.NoError(t, c.LockIn(c.OwnerID))
		require.NoError(t, c.LockIn(c.TraderID))

		snap := BuildSnapshot(c, l, owner, trader)
		assert.True(t, snap.ContactVisible)
		require.NotNil(t, snap.OwnerContact)
		require.NotNil(t, snap.TraderContact)
		assert.Equal(t, "EMBARK#1111", *snap.OwnerContact)
		assert.Equal(t, "EMBARK#2222", *snap.TraderContact)

		// a failed handle lookup degrades to no contact info at all
		degraded := BuildSnapshot(c, l, owner, nil)
		assert.Nil(t, degraded.OwnerContact)
		assert.Nil(t, degraded.TraderContact)
	})

	t.Run("carries listing promotion state", func(t *testing.T) {
		chatID := c.ChatID
		l2 := &listing.Listing{ListingID: c.ListingID, OwnerID: c.OwnerID, ActiveTraderChatID: &chatID}
		snap := BuildSnapshot(c, l2, owner, trader)
		require.NotNil(t, snap.ActiveTraderChatID)
		assert.Equal(t, chatID, *snap.ActiveTraderChatID)

		snap = BuildSnapshot(c, nil, owner, trader)
		assert.Nil(t, snap.ActiveTraderChatID)
	})
}
