package postgres

import (
	"context"
	_ "embed"
	"log/slog"

	"customer-health/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates any missing tables and indexes. Every statement is idempotent,
// so it is safe to run on each start.
func ApplySchema(ctx context.Context, router storage.SessionRouter, logger *slog.Logger) error {
	logger = logger.With("component", "SchemaBootstrap")
	logger.InfoContext(ctx, "Applying database schema")

	err := router.ScopedWrite(ctx, func(ctx context.Context, s storage.Session) error {
		_, err := s.Exec(ctx, schemaSQL)
		if err != nil {
			return translateDBError(err, logger, "failed to apply schema")
		}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to apply database schema", slog.Any("error", err))
		return err
	}

	logger.InfoContext(ctx, "Database schema is up to date")
	return nil
}
