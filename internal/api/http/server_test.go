package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trade-hub/trade-hub/internal/application/completion"
	"github.com/trade-hub/trade-hub/internal/application/message"
	"github.com/trade-hub/trade-hub/internal/application/negotiation"
	"github.com/trade-hub/trade-hub/internal/application/push"
	"github.com/trade-hub/trade-hub/internal/domain/chat"
	"github.com/trade-hub/trade-hub/internal/domain/listing"
	"github.com/trade-hub/trade-hub/internal/domain/user"
	"github.com/trade-hub/trade-hub/internal/infrastructure/memory"
	"github.com/trade-hub/trade-hub/internal/infrastructure/sse"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	router   http.Handler
	listings *memory.ListingRepository
	chats    *memory.ChatRepository
	users    *memory.UserRepository
	hub      *sse.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		listings: memory.NewListingRepository(),
		chats:    memory.NewChatRepository(),
		users:    memory.NewUserRepository(),
		hub:      sse.NewHub(),
	}
	t.Cleanup(e.hub.Stop)

	logger := zerolog.Nop()
	trades := memory.NewTradeRepository()
	messages := memory.NewMessageRepository()
	pushes := push.NewService(e.hub, logger)
	completions := completion.NewService(trades, pushes, logger)
	coordinator := negotiation.NewCoordinator(e.listings, logger)
	negotiations := negotiation.NewService(e.chats, e.listings, e.users, coordinator, completions, pushes, logger)
	msgSvc := message.NewService(e.chats, messages, pushes, logger)

	srv := NewServer(negotiations, msgSvc, completions, e.hub, testSecret, logger)
	e.router = srv.Router()
	return e
}

func (e *testEnv) seedListing(t *testing.T) *listing.Listing {
	t.Helper()
	ownerID := uuid.New()
	e.users.Add(&user.UserRef{ID: ownerID, DisplayName: "seller", ContactHandle: "EMBARK#seller"})
	l := &listing.Listing{ListingID: uuid.New(), OwnerID: ownerID, Title: "scout kit"}
	require.NoError(t, e.listings.Create(context.Background(), l))
	return l
}

func (e *testEnv) seedUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	e.users.Add(&user.UserRef{ID: id, DisplayName: name, ContactHandle: "EMBARK#" + name})
	return id
}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/trades", nil)
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeErr(t, rec)["error"])
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/trades", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": uuid.NewString(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/trades", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/trades", uuid.New(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("healthz is open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestOpenChatEndpoint(t *testing.T) {
	e := newTestEnv(t)
	l := e.seedListing(t)
	trader := e.seedUser(t, "buyer")

	rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", trader, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, l.ListingID, snap.ListingID)
	assert.Equal(t, chat.StatusActive, snap.Status)
	assert.Nil(t, snap.OwnerContact)

	t.Run("owner cannot open against own listing", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", l.OwnerID, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown listing", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/listings/"+uuid.NewString()+"/chats", trader, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeErr(t, rec)["error"])
	})

	t.Run("malformed listing id", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/listings/not-a-uuid/chats", trader, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLockInEndpoint(t *testing.T) {
	e := newTestEnv(t)
	l := e.seedListing(t)
	trader := e.seedUser(t, "buyer")

	rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", trader, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	chatPath := "/v1/chats/" + snap.ChatID.String()

	rec = e.do(t, http.MethodPost, chatPath+"/lock-in", trader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.TraderLockedIn)
	assert.Nil(t, snap.TraderContact)

	// The second lock-in opens the contact gate for both sides.
	rec = e.do(t, http.MethodPost, chatPath+"/lock-in", l.OwnerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.ContactVisible)
	require.NotNil(t, snap.OwnerContact)
	require.NotNil(t, snap.TraderContact)

	t.Run("outsider is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, chatPath+"/lock-in", uuid.New(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "NOT_PARTICIPANT", decodeErr(t, rec)["error"])
	})
}

func TestApproveEndpoint(t *testing.T) {
	e := newTestEnv(t)
	l := e.seedListing(t)
	trader := e.seedUser(t, "buyer")

	rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", trader, nil)
	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	chatPath := "/v1/chats/" + snap.ChatID.String()

	t.Run("before mutual lock-in", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, chatPath+"/approve", trader, nil)
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
		assert.Equal(t, "PRECONDITION_FAILED", decodeErr(t, rec)["error"])
	})

	e.do(t, http.MethodPost, chatPath+"/lock-in", trader, nil)
	e.do(t, http.MethodPost, chatPath+"/lock-in", l.OwnerID, nil)

	rec = e.do(t, http.MethodPost, chatPath+"/approve", trader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, chatPath+"/approve", l.OwnerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, chat.StatusCompleted, snap.Status)

	t.Run("completed trades show up for both sides", func(t *testing.T) {
		for _, uid := range []uuid.UUID{l.OwnerID, trader} {
			rec := e.do(t, http.MethodGet, "/v1/trades", uid, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var out struct {
				Trades []json.RawMessage `json:"trades"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Len(t, out.Trades, 1)
		}
	})

	t.Run("terminal chat refuses further transitions", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, chatPath+"/leave", trader, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "TERMINAL_STATE", decodeErr(t, rec)["error"])
	})
}

func TestSelectTraderEndpoint(t *testing.T) {
	e := newTestEnv(t)
	l := e.seedListing(t)
	alice := e.seedUser(t, "alice")
	bob := e.seedUser(t, "bob")

	var snapA, snapB chat.Snapshot
	rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", alice, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapA))
	rec = e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", bob, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapB))

	selectPath := "/v1/listings/" + l.ListingID.String() + "/select-trader"

	t.Run("only the owner selects", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, selectPath, alice, map[string]string{"chat_id": snapA.ChatID.String()})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "NOT_OWNER", decodeErr(t, rec)["error"])
	})

	rec = e.do(t, http.MethodPost, selectPath, l.OwnerID, map[string]string{"chat_id": snapA.ChatID.String()})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("losing selection carries the winner id", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, selectPath, l.OwnerID, map[string]string{"chat_id": snapB.ChatID.String()})
		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeErr(t, rec)
		assert.Equal(t, "ALREADY_TAKEN", body["error"])
		assert.Equal(t, snapA.ChatID.String(), body["current_chat_id"])
	})

	t.Run("suspended chat rejects messages with a specific code", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/chats/"+snapB.ChatID.String()+"/messages", bob,
			map[string]string{"body": "anyone there?"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CHAT_SUSPENDED", decodeErr(t, rec)["error"])
	})

	t.Run("owner lists every chat on the listing", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/listings/"+l.ListingID.String()+"/chats", l.OwnerID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Chats []chat.Snapshot `json:"chats"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Len(t, out.Chats, 2)
	})

	t.Run("traders cannot list the owner view", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/listings/"+l.ListingID.String()+"/chats", bob, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMessagesEndpoint(t *testing.T) {
	e := newTestEnv(t)
	l := e.seedListing(t)
	trader := e.seedUser(t, "buyer")

	rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", trader, nil)
	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	chatPath := "/v1/chats/" + snap.ChatID.String()

	rec = e.do(t, http.MethodPost, chatPath+"/messages", trader, map[string]string{"body": "is this still available?"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(t, http.MethodPost, chatPath+"/messages", l.OwnerID, map[string]string{"body": "it is"})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("empty body", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, chatPath+"/messages", trader, map[string]string{"body": "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("participants read history in order", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, chatPath+"/messages", l.OwnerID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Messages []chat.Message `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Messages, 2)
		assert.Equal(t, "is this still available?", out.Messages[0].Body)
	})

	t.Run("outsiders cannot read", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, chatPath+"/messages", uuid.New(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGetChatEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/v1/chats/"+uuid.NewString()+"/", uuid.New(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEventsStream(t *testing.T) {
	e := newTestEnv(t)
	l := e.seedListing(t)
	trader := e.seedUser(t, "buyer")

	rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", trader, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))

	t.Run("outsiders cannot subscribe", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/chats/"+snap.ChatID.String()+"/events", uuid.New(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/v1/chats/"+snap.ChatID.String()+"/events?connection_id=conn-test", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signToken(t, trader))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, ": connected"))

	// Wait for the subscription to land before triggering the update.
	require.Eventually(t, func() bool {
		return e.hub.RoomSize(snap.ChatID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec = e.do(t, http.MethodPost, "/v1/chats/"+snap.ChatID.String()+"/lock-in", trader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dataLine string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(dataLine), &msg))
	assert.Equal(t, "chat_updated", msg.Event)

	var pushed chat.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &pushed))
	assert.True(t, pushed.TraderLockedIn)
}

func TestChatEventsReconnectSameConnectionID(t *testing.T) {
	e := newTestEnv(t)
	l := e.seedListing(t)
	trader := e.seedUser(t, "buyer")

	rec := e.do(t, http.MethodPost, "/v1/listings/"+l.ListingID.String()+"/chats", trader, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))

	srv := httptest.NewServer(e.router)
	defer srv.Close()
	streamURL := srv.URL + "/v1/chats/" + snap.ChatID.String() + "/events?connection_id=conn-dup"

	open := func(ctx context.Context) (*http.Response, *bufio.Reader) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signToken(t, trader))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		reader := bufio.NewReader(resp.Body)
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(line, ": connected"))
		return resp, reader
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	resp1, _ := open(ctx1)
	defer resp1.Body.Close()
	require.Eventually(t, func() bool {
		return e.hub.RoomSize(snap.ChatID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Reconnect with the same connection id while the first request is still
	// open, then let the stale request die.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	resp2, reader2 := open(ctx2)
	defer resp2.Body.Close()
	assert.Equal(t, 1, e.hub.RoomSize(snap.ChatID))
	cancel1()

	// The stale request's cleanup must not have torn down the new stream.
	require.Eventually(t, func() bool {
		return e.hub.RoomSize(snap.ChatID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec = e.do(t, http.MethodPost, "/v1/chats/"+snap.ChatID.String()+"/lock-in", trader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dataLine string
	for {
		line, err := reader2.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	var msg struct {
		Event string `json:"event"`
	}
	require.NoError(t, json.Unmarshal([]byte(dataLine), &msg))
	assert.Equal(t, "chat_updated", msg.Event)
}
