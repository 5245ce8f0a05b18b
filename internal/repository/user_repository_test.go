package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "email", "username", "full_name", "phone", "avatar_url", "status", "created_at", "last_seen"}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email, username, password_hash, full_name, phone, status)")).
			WithArgs("ann@example.com", "ann", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(1, "ann@example.com", "ann", "Ann Lee", nil, nil, "online", now, now))

		u := &user.User{
			Email:        "ann@example.com",
			Username:     "ann",
			PasswordHash: "hash",
			FullName:     sql.NullString{String: "Ann Lee", Valid: true},
		}
		require.NoError(t, repo.Create(ctx, u))

		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, "online", u.Status)
		assert.Equal(t, "hash", u.PasswordHash)
		assert.Equal(t, now, u.CreatedAt)
		assert.False(t, u.Phone.Valid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err := repo.Create(ctx, &user.User{Email: "ann@example.com", Username: "ann", PasswordHash: "hash"})
		assert.ErrorIs(t, err, messenger_errors.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_FindByIdentifier(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(append(userRowColumns, "password_hash")).
		AddRow(1, "bob@example.com", "bob", nil, "+100", nil, "offline", now, nil, "h1").
		AddRow(2, "other@example.com", "bob@example.com", nil, nil, nil, "online", now, now, "h2")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1 OR username = $2 OR phone = $3")).
		WithArgs("bob@example.com", "bob@example.com", "bob@example.com").
		WillReturnRows(rows)

	users, err := repo.FindByIdentifier(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "h1", users[0].PasswordHash)
	assert.Equal(t, "+100", users[0].Phone.String)
	assert.Equal(t, int64(2), users[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkOnline(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("UPDATE users SET status = 'online', last_seen = CURRENT_TIMESTAMP WHERE id = $1")

	tests := []struct {
		name        string
		rows        int64
		execErr     error
		expectedErr error
	}{
		{name: "Updated", rows: 1},
		{name: "Missing user", rows: 0, expectedErr: messenger_errors.ErrNotFound},
		{name: "Database error", execErr: errors.New("connection timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewUserRepository(db)

			exp := mock.ExpectExec(query).WithArgs(int64(7))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.rows))
			}

			err := repo.MarkOnline(ctx, 7)
			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
			case tt.execErr != nil:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $1 WHERE id = $2")).
		WithArgs("$2a$10$new", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdatePasswordHash(context.Background(), 3, "$2a$10$new"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("Matches", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("(email ILIKE $1 OR username ILIKE $2 OR phone ILIKE $3 OR full_name ILIKE $4)")).
			WithArgs("%an%", "%an%", "%an%", "%an%", int64(1), 20).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(2, "ann@example.com", "ann", "Ann", nil, nil, "online", time.Now(), nil).
				AddRow(3, "dan@example.com", "dan", nil, nil, nil, "offline", time.Now(), nil))

		users, err := repo.Search(ctx, 1, "an", 20)
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No match is an empty list", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		users, err := repo.Search(ctx, 1, "nobody", 20)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
