package repository

import (
	"errors"
	"strings"

	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// translateError maps constraint violations onto the domain sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return messenger_errors.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return messenger_errors.ErrNotFound
	default:
		return err
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching query as a literal substring.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

func buildValues(rows, cols int) string {
	if rows <= 0 || cols <= 0 {
		return ""
	}
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", cols), ", ") + ")"
	parts := make([]string, rows)
	for i := range parts {
		parts[i] = row
	}
	return strings.Join(parts, ", ")
}
