package repository

import (
	"context"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/chat"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/message"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
)

// Store hands out repositories bound to one connection scope. Repositories obtained inside
// WithTx share the transaction; it commits when fn returns nil and rolls back otherwise.
type Store interface {
	Users() UserRepository
	Chats() ChatRepository
	Messages() MessageRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	FindByIdentifier(ctx context.Context, identifier string) ([]user.User, error)
	MarkOnline(ctx context.Context, userID int64) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	Search(ctx context.Context, excludeUserID int64, query string, limit int) ([]user.User, error)
}

type ChatRepository interface {
	ListForUser(ctx context.Context, userID int64) ([]chat.Summary, error)
	FindPersonal(ctx context.Context, userID, contactID int64) (int64, error)
	CreatePersonal(ctx context.Context, userID, contactID int64) (chatID int64, created bool, err error)
	AddMembers(ctx context.Context, chatID int64, userIDs ...int64) error
	AddContactPair(ctx context.Context, userID, contactID int64) error
	Touch(ctx context.Context, chatID int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	ListByChat(ctx context.Context, chatID int64) ([]message.WithSender, error)
}
