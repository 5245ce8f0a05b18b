package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type PostgresStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *PostgresStore) Chats() ChatRepository {
	return NewChatRepository(s.db)
}

func (s *PostgresStore) Messages() MessageRepository {
	return NewMessageRepository(s.db)
}

// WithTx runs fn inside a transaction. A panic in fn rolls back before it propagates.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		return errors.New("database not initialized")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStore{db: tx})
	})
}
