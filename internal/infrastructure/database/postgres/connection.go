package postgres

import (
	"context"
	"customer-health/internal/config"
	"customer-health/internal/storage"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPingTimeout = 2 * time.Second

func NewConnectionPool(ctx context.Context, url string, cfg config.PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty in configuration")
	}

	poolConfig, err := configurePool(url, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Connecting to PostgreSQL database...", "host", poolConfig.ConnConfig.Host)
	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := verifyConnection(ctx, dbpool, logger); err != nil {
		dbpool.Close()
		return nil, err
	}

	logger.Info("Successfully connected to PostgreSQL database.", "host", poolConfig.ConnConfig.Host, "db", poolConfig.ConnConfig.Database)
	return dbpool, nil
}

// NewRouterPools opens the primary pool and one pool per replica. The primary must
// answer a ping; a replica that does not is kept and only logged, since pgxpool
// dials lazily and the failure will surface on the read that lands there.
func NewRouterPools(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (storage.DBPool, []storage.DBPool, error) {
	primary, err := NewConnectionPool(ctx, cfg.PrimaryURL(), cfg.Pool, logger.With("endpoint", "primary"))
	if err != nil {
		return nil, nil, fmt.Errorf("primary: %w", err)
	}

	replicaURLs := cfg.ReplicaURLs()
	replicas := make([]storage.DBPool, 0, len(replicaURLs))
	for i, url := range replicaURLs {
		replicaLogger := logger.With("endpoint", "replica", "replica", i+1)

		poolConfig, err := configurePool(url, cfg.Pool)
		if err != nil {
			primary.Close()
			closePools(replicas)
			return nil, nil, fmt.Errorf("replica %d: %w", i+1, err)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			primary.Close()
			closePools(replicas)
			return nil, nil, fmt.Errorf("replica %d: unable to create connection pool: %w", i+1, err)
		}
		if err := verifyConnection(ctx, pool, replicaLogger); err != nil {
			replicaLogger.Warn("Replica not reachable at startup, keeping it in rotation", "error", err)
		}
		replicas = append(replicas, pool)
	}

	logger.Info("Database pools ready", "replicas", len(replicas))
	return primary, replicas, nil
}

func configurePool(url string, cfg config.PoolConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	poolConfig.BeforeAcquire = validateBeforeUse(pingTimeout)

	return poolConfig, nil
}

// validateBeforeUse rejects stale connections; pgxpool destroys a rejected
// connection and hands out another one from the same endpoint.
func validateBeforeUse(timeout time.Duration) func(ctx context.Context, conn *pgx.Conn) bool {
	return func(ctx context.Context, conn *pgx.Conn) bool {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return conn.Ping(pingCtx) == nil
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func verifyConnection(ctx context.Context, dbpool pinger, logger *slog.Logger) error {
	logger.Info("Pinging database...")
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := dbpool.Ping(pingCtx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		return fmt.Errorf("failed to ping database on connect: %w", err)
	}

	return nil
}

func closePools(pools []storage.DBPool) {
	for _, p := range pools {
		p.Close()
	}
}
