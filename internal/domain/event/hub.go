package event

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_hub.go -package=mocks . Hub

import "github.com/google/uuid"

// Hub is the room registry: it maps chat ids to live connections and fans
// messages out to them. It is used only for delivery, never for authority;
// registration state is held in memory and lost on restart by design.
type Hub interface {
	// Subscribe registers the client; a live client holding the same
	// connection id is displaced and its channel closed.
	Subscribe(client *Client)
	// Unsubscribe removes the given client only if it is still the one
	// registered, so a displaced handler's cleanup cannot tear down its
	// replacement.
	Unsubscribe(client *Client)

	// Publish delivers to every connection in the chat's room, best effort.
	Publish(chatID uuid.UUID, msg *Message)
	// PublishToUser delivers only to the given user's connections in the room.
	PublishToUser(chatID, userID uuid.UUID, msg *Message)

	RoomSize(chatID uuid.UUID) int
	Stop()
}
