// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"faceblog/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueViolation recognises duplicate-key failures from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// lookupError maps a First() failure onto the AppError taxonomy.
func lookupError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// containsPattern builds a LIKE operand matching term anywhere in a column.
func containsPattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

// containsClause returns a case-insensitive substring condition on column
// for use with containsPattern. sqlite LIKE is already case-insensitive.
func containsClause(db *gorm.DB, column string) string {
	op := "LIKE"
	if db.Dialector.Name() == "postgres" {
		op = "ILIKE"
	}
	return column + " " + op + ` ? ESCAPE '\'`
}
