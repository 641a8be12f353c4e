// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"log/slog"
	"strings"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
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
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// storageError wraps a failed write. Constraint violations are logged and
// counted, but callers only ever see a generic internal error.
func storageError(table string, err error) error {
	if isUniqueConstraintError(err) {
		observability.IntegrityErrors.WithLabelValues(table).Inc()
		middleware.Logger.Warn("Unique constraint violated",
			slog.String("table", table),
			slog.String("error", err.Error()),
		)
	}
	return models.NewInternalError(err)
}

// lookupError maps a failed single-row read to NOT_FOUND or INTERNAL.
func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(models.MsgIDNotFound)
	}
	return models.NewInternalError(err)
}
