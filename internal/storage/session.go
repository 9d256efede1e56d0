// Package storage is the only path from business logic to the database. It hands out
// scoped sessions: transactional writes against the primary and read-only snapshots
// against a randomly chosen replica.
package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
)

// Session is the handle passed to a scoped callback. It is valid only until the
// callback returns.
type Session interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var _ Session = (pgx.Tx)(nil)

type SessionFunc func(ctx context.Context, s Session) error

type SessionRouter interface {
	ScopedWrite(ctx context.Context, fn SessionFunc) error
	ScopedRead(ctx context.Context, fn SessionFunc) error
}
