package repository

import (
	"context"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/chat"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"

	"gorm.io/gorm"
)

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &PostgresChatRepository{db: db}
}

const listChatsQuery = `SELECT c.id, c.type, c.name, c.avatar_url, c.updated_at,
       lm.content AS last_message,
       lm.created_at AS last_message_time,
       (SELECT COUNT(*) FROM messages um
        WHERE um.chat_id = c.id AND um.sender_id <> ? AND um.is_read = FALSE) AS unread_count,
       peer.id AS peer_id,
       peer.username AS peer_username,
       peer.full_name AS peer_full_name,
       peer.avatar_url AS peer_avatar_url,
       peer.status AS peer_status
FROM chats c
JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = ?
LEFT JOIN LATERAL (
    SELECT m.content, m.created_at FROM messages m
    WHERE m.chat_id = c.id
    ORDER BY m.created_at DESC, m.id DESC
    LIMIT 1
) lm ON TRUE
LEFT JOIN LATERAL (
    SELECT u.id, u.username, u.full_name, u.avatar_url, u.status
    FROM chat_members pm
    JOIN users u ON u.id = pm.user_id
    WHERE pm.chat_id = c.id AND pm.user_id <> ? AND c.type = 'personal'
    ORDER BY u.id
    LIMIT 1
) peer ON TRUE
ORDER BY c.updated_at DESC, c.id DESC`

// ListForUser returns the raw chat rows of userID; callers apply Summary.Resolve.
func (r *PostgresChatRepository) ListForUser(ctx context.Context, userID int64) ([]chat.Summary, error) {
	summaries := make([]chat.Summary, 0)
	err := r.db.WithContext(ctx).
		Raw(listChatsQuery, userID, userID, userID).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// FindPersonal looks a personal chat up by pair key, falling back to membership for rows without one.
func (r *PostgresChatRepository) FindPersonal(ctx context.Context, userID, contactID int64) (int64, error) {
	var chatID int64
	res := r.db.WithContext(ctx).
		Raw(`SELECT c.id FROM chats c
WHERE c.type = 'personal'
AND (c.personal_key = ?
     OR (EXISTS (SELECT 1 FROM chat_members m1 WHERE m1.chat_id = c.id AND m1.user_id = ?)
         AND EXISTS (SELECT 1 FROM chat_members m2 WHERE m2.chat_id = c.id AND m2.user_id = ?)))
ORDER BY c.id
LIMIT 1`, chat.PersonalKey(userID, contactID), userID, contactID).
		Scan(&chatID)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, messenger_errors.ErrNotFound
	}
	return chatID, nil
}

// CreatePersonal inserts the chat row for the pair. created is false when a concurrent
// caller already holds the pair key.
func (r *PostgresChatRepository) CreatePersonal(ctx context.Context, userID, contactID int64) (int64, bool, error) {
	var chatID int64
	res := r.db.WithContext(ctx).
		Raw(`INSERT INTO chats (type, personal_key) VALUES ('personal', ?)
ON CONFLICT (personal_key) DO NOTHING
RETURNING id`, chat.PersonalKey(userID, contactID)).
		Scan(&chatID)
	if res.Error != nil {
		return 0, false, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return chatID, true, nil
}

func (r *PostgresChatRepository) AddMembers(ctx context.Context, chatID int64, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(userIDs)*2)
	for _, id := range userIDs {
		args = append(args, chatID, id)
	}
	err := r.db.WithContext(ctx).
		Exec("INSERT INTO chat_members (chat_id, user_id) VALUES "+buildValues(len(userIDs), 2), args...).
		Error
	return translateError(err)
}

// AddContactPair records both directed contact edges; existing edges are left alone.
func (r *PostgresChatRepository) AddContactPair(ctx context.Context, userID, contactID int64) error {
	err := r.db.WithContext(ctx).
		Exec(`INSERT INTO contacts (user_id, contact_user_id) VALUES (?, ?), (?, ?)
ON CONFLICT (user_id, contact_user_id) DO NOTHING`, userID, contactID, contactID, userID).
		Error
	return translateError(err)
}

func (r *PostgresChatRepository) Touch(ctx context.Context, chatID int64) error {
	res := r.db.WithContext(ctx).
		Exec("UPDATE chats SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", chatID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}
