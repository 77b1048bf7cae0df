package completion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trade-hub/trade-hub/internal/application/push"
	"github.com/trade-hub/trade-hub/internal/domain/chat"
	"github.com/trade-hub/trade-hub/internal/domain/event"
	eventMocks "github.com/trade-hub/trade-hub/internal/domain/event/mocks"
	"github.com/trade-hub/trade-hub/internal/domain/trade"
	tradeMocks "github.com/trade-hub/trade-hub/internal/domain/trade/mocks"
)

func completedChat() *chat.Chat {
	c := chat.New(uuid.New(), uuid.New(), uuid.New())
	c.OwnerLockedIn = true
	c.TraderLockedIn = true
	c.OwnerApproved = true
	c.TraderApproved = true
	c.Status = chat.StatusCompleted
	return c
}

func newCompletionService(t *testing.T) (*Service, *tradeMocks.MockRepository, *eventMocks.MockHub) {
	ctrl := gomock.NewController(t)
	trades := tradeMocks.NewMockRepository(ctrl)
	hub := &eventMocks.MockHub{}
	svc := NewService(trades, push.NewService(hub, zerolog.Nop()), zerolog.Nop())
	return svc, trades, hub
}

func TestOnChatCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("records the trade and asks both sides to rate", func(t *testing.T) {
		svc, trades, hub := newCompletionService(t)
		c := completedChat()

		trades.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, tr *trade.Trade) error {
				assert.Equal(t, c.ChatID, tr.ChatID)
				assert.Equal(t, c.OwnerID, tr.OwnerID)
				assert.Equal(t, c.TraderID, tr.TraderID)
				return nil
			})
		hub.On("PublishToUser", c.ChatID, c.OwnerID, mock.Anything).Return()
		hub.On("PublishToUser", c.ChatID, c.TraderID, mock.Anything).Return()

		tr, err := svc.OnChatCompleted(ctx, c)
		require.NoError(t, err)
		require.NotNil(t, tr)
		hub.AssertNumberOfCalls(t, "PublishToUser", 2)

		msg := hub.Calls[0].Arguments.Get(2).(*event.Message)
		assert.Equal(t, event.TypeRatingRequested, msg.Event)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
		assert.Equal(t, tr.TradeID.String(), payload["tradeId"])
	})

	t.Run("rejects a chat that is not completed", func(t *testing.T) {
		svc, _, _ := newCompletionService(t)
		c := chat.New(uuid.New(), uuid.New(), uuid.New())

		_, err := svc.OnChatCompleted(ctx, c)
		assert.Error(t, err)
	})

	t.Run("duplicate completion returns the first trade and stays quiet", func(t *testing.T) {
		svc, trades, hub := newCompletionService(t)
		c := completedChat()
		existing := trade.New(c.ChatID, c.ListingID, c.OwnerID, c.TraderID)

		trades.EXPECT().Create(ctx, gomock.Any()).Return(trade.ErrAlreadyRecorded)
		trades.EXPECT().GetByChatID(ctx, c.ChatID).Return(existing, nil)

		tr, err := svc.OnChatCompleted(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, existing.TradeID, tr.TradeID)
		hub.AssertNumberOfCalls(t, "PublishToUser", 0)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		svc, trades, _ := newCompletionService(t)
		c := completedChat()
		boom := errors.New("disk full")
		trades.EXPECT().Create(ctx, gomock.Any()).Return(boom)

		_, err := svc.OnChatCompleted(ctx, c)
		assert.ErrorIs(t, err, boom)
	})
}

func TestTradesForUser(t *testing.T) {
	svc, trades, _ := newCompletionService(t)
	userID := uuid.New()
	want := []*trade.Trade{trade.New(uuid.New(), uuid.New(), userID, uuid.New())}
	trades.EXPECT().ListByUser(context.Background(), userID, 20, 0).Return(want, nil)

	got, err := svc.TradesForUser(context.Background(), userID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
