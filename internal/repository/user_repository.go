package repository

import (
	"context"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"

	"gorm.io/gorm"
)

const userColumns = "id, email, username, full_name, phone, avatar_url, status, created_at, last_seen"

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts u with status online and fills in the generated columns.
func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	var created user.User
	err := r.db.WithContext(ctx).
		Raw(`INSERT INTO users (email, username, password_hash, full_name, phone, status)
VALUES (?, ?, ?, ?, ?, 'online')
RETURNING `+userColumns,
			u.Email, u.Username, u.PasswordHash, u.FullName, u.Phone).
		Scan(&created).Error
	if err != nil {
		return translateError(err)
	}

	created.PasswordHash = u.PasswordHash
	*u = created
	return nil
}

// FindByIdentifier returns every user whose email, username or phone equals identifier.
func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, identifier string) ([]user.User, error) {
	var users []user.User
	err := r.db.WithContext(ctx).
		Raw(`SELECT `+userColumns+`, password_hash
FROM users
WHERE email = ? OR username = ? OR phone = ?
ORDER BY id`, identifier, identifier, identifier).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresUserRepository) MarkOnline(ctx context.Context, userID int64) error {
	res := r.db.WithContext(ctx).
		Exec("UPDATE users SET status = 'online', last_seen = CURRENT_TIMESTAMP WHERE id = ?", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	res := r.db.WithContext(ctx).
		Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}

// Search matches query case-insensitively as a substring of email, username, phone or full name.
func (r *PostgresUserRepository) Search(ctx context.Context, excludeUserID int64, query string, limit int) ([]user.User, error) {
	pattern := containsPattern(query)
	users := make([]user.User, 0)
	err := r.db.WithContext(ctx).
		Raw(`SELECT `+userColumns+`
FROM users
WHERE (email ILIKE ? OR username ILIKE ? OR phone ILIKE ? OR full_name ILIKE ?)
AND id <> ?
LIMIT ?`, pattern, pattern, pattern, pattern, excludeUserID, limit).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
