package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"customer-health/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"

	pgClassConnection           = "08"
	pgClassInsufficientResource = "53"
)

// translateDBError maps driver failures onto the application taxonomy. Context
// cancellation is returned unchanged so callers can tell it apart.
func translateDBError(err error, contextLogger *slog.Logger, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgForeignKeyViolation || pgErr.Code == pgUniqueViolation ||
			pgErr.Code == pgCheckViolation || pgErr.Code == pgNotNullViolation:
			contextLogger.Warn("Database integrity constraint violated", "code", pgErr.Code, "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return apperrors.WrapIntegrityViolation(err, message)
		case strings.HasPrefix(pgErr.Code, pgClassConnection) || strings.HasPrefix(pgErr.Code, pgClassInsufficientResource) ||
			pgErr.Code == pgAdminShutdown || pgErr.Code == pgCannotConnectNow:
			contextLogger.Error("Database unavailable", "code", pgErr.Code, "message", pgErr.Message)
			return apperrors.WrapStorageUnavailable(err, message)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return apperrors.WrapDatabaseError(err, message)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded) {
		contextLogger.Error("Database connection failure", "error", err)
		return apperrors.WrapStorageUnavailable(err, message)
	}

	contextLogger.Error("Generic database error", "error", err)
	return apperrors.WrapDatabaseError(err, message)
}
