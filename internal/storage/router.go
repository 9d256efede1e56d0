package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"customer-health/internal/infrastructure/monitoring"
	"customer-health/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const (
	roleWrite = "write"
	roleRead  = "read"

	outcomeCommitted    = "committed"
	outcomeRolledBack   = "rolled_back"
	outcomeCommitFailed = "commit_failed"
	outcomeReleased     = "released"
	outcomeFailed       = "failed"
	outcomeUnavailable  = "unavailable"
	outcomePanic        = "panic"
)

// readOptions pins every statement of a read scope to one snapshot.
var readOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

type Router struct {
	primary        DBPool
	replicas       []DBPool
	pick           func(n int) int
	acquireTimeout time.Duration
	logger         *slog.Logger
}

var _ SessionRouter = (*Router)(nil)

type Option func(*Router)

// WithAcquireTimeout bounds how long a scope waits for a pooled connection.
func WithAcquireTimeout(d time.Duration) Option {
	return func(r *Router) {
		r.acquireTimeout = d
	}
}

// WithReplicaPicker replaces the uniform random replica choice. pick receives the
// replica count and must return an index in [0, n).
func WithReplicaPicker(pick func(n int) int) Option {
	return func(r *Router) {
		if pick != nil {
			r.pick = pick
		}
	}
}

func NewRouter(primary DBPool, replicas []DBPool, logger *slog.Logger, opts ...Option) *Router {
	if primary == nil {
		panic("primary DBPool cannot be nil for Router")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewRouter, using default stderr handler")
	}

	r := &Router{
		primary:  primary,
		replicas: append([]DBPool(nil), replicas...),
		pick:     rand.Intn,
		logger:   logger.With("component", "SessionRouter"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ScopedWrite runs fn inside a transaction on the primary. A nil return commits; any
// error rolls back and is returned as-is. Commit and rollback are not tied to ctx
// cancellation so a session is never abandoned mid-transaction.
func (r *Router) ScopedWrite(ctx context.Context, fn SessionFunc) error {
	start := time.Now()

	tx, err := r.begin(ctx, r.primary, pgx.TxOptions{}, roleWrite)
	if err != nil {
		r.observe(roleWrite, outcomeUnavailable, start)
		return err
	}

	finalizeCtx := context.WithoutCancel(ctx)
	defer func() {
		if p := recover(); p != nil {
			r.rollback(finalizeCtx, tx, roleWrite)
			r.observe(roleWrite, outcomePanic, start)
			panic(p)
		}
	}()

	if fnErr := fn(ctx, tx); fnErr != nil {
		r.logger.WarnContext(ctx, "Write session callback failed, rolling back", slog.Any("error", fnErr))
		r.rollback(finalizeCtx, tx, roleWrite)
		r.observe(roleWrite, outcomeRolledBack, start)
		return fnErr
	}

	if err := tx.Commit(finalizeCtx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit write session", slog.Any("error", err))
		r.observe(roleWrite, outcomeCommitFailed, start)
		return apperrors.WrapStorageUnavailable(err, "failed to commit transaction")
	}

	r.observe(roleWrite, outcomeCommitted, start)
	return nil
}

// ScopedRead runs fn against one replica chosen uniformly at random, or the primary
// when no replicas are configured. A broken replica is reported, not retried elsewhere.
func (r *Router) ScopedRead(ctx context.Context, fn SessionFunc) error {
	start := time.Now()

	pool, idx := r.readPool()
	tx, err := r.begin(ctx, pool, readOptions, roleRead)
	if err != nil {
		r.logger.WarnContext(ctx, "Read session unavailable", slog.Int("replica", idx), slog.Any("error", err))
		r.observe(roleRead, outcomeUnavailable, start)
		return err
	}

	finalizeCtx := context.WithoutCancel(ctx)
	outcome := outcomePanic
	defer func() {
		r.rollback(finalizeCtx, tx, roleRead)
		r.observe(roleRead, outcome, start)
	}()

	if fnErr := fn(ctx, tx); fnErr != nil {
		outcome = outcomeFailed
		return fnErr
	}
	outcome = outcomeReleased
	return nil
}

// Ping checks the primary. Replicas are not probed here; a dead replica shows up on
// the read that lands on it.
func (r *Router) Ping(ctx context.Context) error {
	if err := r.primary.Ping(ctx); err != nil {
		return apperrors.WrapStorageUnavailable(err, "primary database unreachable")
	}
	return nil
}

func (r *Router) ReplicaCount() int {
	return len(r.replicas)
}

func (r *Router) Close() {
	r.logger.Info("Closing database connection pools...", slog.Int("replicas", len(r.replicas)))
	for _, p := range r.replicas {
		if p != r.primary {
			p.Close()
		}
	}
	r.primary.Close()
}

// readPool returns the chosen pool and its replica index, -1 for the primary.
func (r *Router) readPool() (DBPool, int) {
	if len(r.replicas) == 0 {
		return r.primary, -1
	}
	idx := r.pick(len(r.replicas))
	return r.replicas[idx], idx
}

func (r *Router) begin(ctx context.Context, pool DBPool, opts pgx.TxOptions, role string) (pgx.Tx, error) {
	acquireCtx := ctx
	if r.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, r.acquireTimeout)
		defer cancel()
	}

	var (
		tx  pgx.Tx
		err error
	)
	if opts == (pgx.TxOptions{}) {
		tx, err = pool.Begin(acquireCtx)
	} else {
		tx, err = pool.BeginTx(acquireCtx, opts)
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, err
		}
		return nil, apperrors.WrapStorageUnavailable(err, fmt.Sprintf("failed to open %s session", role))
	}
	return tx, nil
}

func (r *Router) rollback(ctx context.Context, tx pgx.Tx, role string) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to roll back session", slog.String("role", role), slog.Any("error", err))
	}
}

func (r *Router) observe(role, outcome string, start time.Time) {
	monitoring.Sessions.Total.WithLabelValues(role, outcome).Inc()
	monitoring.Sessions.Duration.WithLabelValues(role).Observe(time.Since(start).Seconds())
}
