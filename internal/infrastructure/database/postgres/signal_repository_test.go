package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"customer-health/internal/domain/health"
	"customer-health/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signalsSince = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

func setupSignalRepo(t *testing.T) (context.Context, *SignalRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	return context.Background(), NewSignalRepository(logger), mockPool
}

var signalColumns = []string{"logins", "customer_features", "system_features", "open_tickets", "invoices", "good_invoices", "api_calls"}

func TestCollectSignals(t *testing.T) {
	ctx, repo, mockPool := setupSignalRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(collectSignalsQuery)).
		WithArgs(int64(5), signalsSince, "open", "unpaid", "late").
		WillReturnRows(pgxmock.NewRows(signalColumns).
			AddRow(int64(6), int64(2), int64(8), int64(1), int64(4), int64(3), int64(15)))

	sig, err := repo.CollectSignals(ctx, mockPool, 5, signalsSince)
	require.NoError(t, err)
	assert.Equal(t, health.Signals{
		LoginsInWindow:   6,
		CustomerFeatures: 2,
		SystemFeatures:   8,
		OpenTickets:      1,
		InvoicesTotal:    4,
		InvoicesGood:     3,
		APICallsInWindow: 15,
	}, sig)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCollectSignalsWhenTimeout(t *testing.T) {
	ctx, repo, mockPool := setupSignalRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(collectSignalsQuery)).
		WithArgs(int64(5), signalsSince, "open", "unpaid", "late").
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.CollectSignals(ctx, mockPool, 5, signalsSince)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCollectAllSignals(t *testing.T) {
	ctx, repo, mockPool := setupSignalRepo(t)
	defer mockPool.Close()

	columns := append([]string{"id"}, signalColumns...)
	mockPool.ExpectQuery(regexp.QuoteMeta(collectAllSignalsQuery)).
		WithArgs(signalsSince, "open", "unpaid", "late").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), int64(10), int64(4), int64(4), int64(0), int64(2), int64(2), int64(10)).
			AddRow(int64(2), int64(0), int64(0), int64(4), int64(0), int64(0), int64(0), int64(0)))

	signals, err := repo.CollectAllSignals(ctx, mockPool, signalsSince)
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, int64(10), signals[1].LoginsInWindow)
	assert.Equal(t, int64(4), signals[2].SystemFeatures)
	assert.Zero(t, signals[2].InvoicesTotal)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCollectAllSignalsWhenNoCustomers(t *testing.T) {
	ctx, repo, mockPool := setupSignalRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(collectAllSignalsQuery)).
		WithArgs(signalsSince, "open", "unpaid", "late").
		WillReturnRows(pgxmock.NewRows(append([]string{"id"}, signalColumns...)))

	signals, err := repo.CollectAllSignals(ctx, mockPool, signalsSince)
	require.NoError(t, err)
	assert.Empty(t, signals)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCollectAllSignalsWhenQueryFails(t *testing.T) {
	ctx, repo, mockPool := setupSignalRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(collectAllSignalsQuery)).
		WithArgs(signalsSince, "open", "unpaid", "late").
		WillReturnError(pgx.ErrTxClosed)

	_, err := repo.CollectAllSignals(ctx, mockPool, signalsSince)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
