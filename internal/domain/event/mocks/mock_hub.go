package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/trade-hub/trade-hub/internal/domain/event"
)

// MockHub is a mock implementation of event.Hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Subscribe(client *event.Client) {
	m.Called(client)
}

func (m *MockHub) Unsubscribe(client *event.Client) {
	m.Called(client)
}

func (m *MockHub) Publish(chatID uuid.UUID, msg *event.Message) {
	m.Called(chatID, msg)
}

func (m *MockHub) PublishToUser(chatID, userID uuid.UUID, msg *event.Message) {
	m.Called(chatID, userID, msg)
}

func (m *MockHub) RoomSize(chatID uuid.UUID) int {
	args := m.Called(chatID)
	return args.Int(0)
}

func (m *MockHub) Stop() {
	m.Called()
}
