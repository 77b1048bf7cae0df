package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trade-hub/trade-hub/internal/domain/chat"
)

// MessageRepository implements chat.MessageRepository.
type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, m *chat.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (message_id, chat_id, sender_id, body, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, m.MessageID, m.ChatID, m.SenderID, m.Body, m.CreatedAt)
	return err
}

func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, chat_id, sender_id, body, created_at
		FROM messages WHERE chat_id=$1
		ORDER BY created_at LIMIT $2 OFFSET $3
	`, chatID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []*chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.MessageID, &m.ChatID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
