package repository

import (
	"context"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/message"

	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	var created message.Message
	err := r.db.WithContext(ctx).
		Raw(`INSERT INTO messages (chat_id, sender_id, content, type)
VALUES (?, ?, ?, ?)
RETURNING id, chat_id, sender_id, content, type, created_at, is_read`,
			m.ChatID, m.SenderID, m.Content, m.Type).
		Scan(&created).Error
	if err != nil {
		return translateError(err)
	}
	*m = created
	return nil
}

// ListByChat returns the whole history of a chat, oldest first.
func (r *PostgresMessageRepository) ListByChat(ctx context.Context, chatID int64) ([]message.WithSender, error) {
	messages := make([]message.WithSender, 0)
	err := r.db.WithContext(ctx).
		Raw(`SELECT m.id, m.chat_id, m.sender_id, m.content, m.type, m.created_at, m.is_read,
       u.username, u.full_name, u.avatar_url
FROM messages m
JOIN users u ON u.id = m.sender_id
WHERE m.chat_id = ?
ORDER BY m.created_at ASC, m.id ASC`, chatID).
		Scan(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
