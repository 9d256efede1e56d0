// Package cache keeps recently computed health reports in Redis so repeated reads of
// the same customer skip the signal queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"customer-health/internal/domain/health"

	"github.com/redis/go-redis/v9"
)

const (
	healthKeyPrefix = "customer-health:report:"

	DefaultTTL = 30 * time.Second
)

type HealthCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

var _ health.Cache = (*HealthCache)(nil)

func NewHealthCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *HealthCache {
	if client == nil {
		panic("redis client cannot be nil for HealthCache")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewHealthCache, using default stderr handler")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &HealthCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "HealthCache"),
	}
}

func healthKey(customerID int64) string {
	return healthKeyPrefix + strconv.FormatInt(customerID, 10)
}

// Get returns nil, nil when no report is cached for the customer.
func (c *HealthCache) Get(ctx context.Context, customerID int64) (*health.Report, error) {
	data, err := c.client.Get(ctx, healthKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "Health report not cached", slog.Int64("customerID", customerID))
			return nil, nil
		}
		c.logger.ErrorContext(ctx, "Error getting health report from Redis", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get health report from cache: %w", err)
	}

	var report health.Report
	if err := json.Unmarshal(data, &report); err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal cached health report", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to unmarshal cached health report: %w", err)
	}
	return &report, nil
}

func (c *HealthCache) Set(ctx context.Context, report *health.Report) error {
	if report == nil {
		return errors.New("cannot cache a nil health report")
	}
	customerID := report.Customer.ID

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal health report: %w", err)
	}

	if err := c.client.Set(ctx, healthKey(customerID), data, c.ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to cache health report in Redis", slog.Int64("customerID", customerID), slog.Any("error", err))
		return fmt.Errorf("failed to cache health report: %w", err)
	}

	c.logger.DebugContext(ctx, "Health report cached", slog.Int64("customerID", customerID), slog.Duration("ttl", c.ttl))
	return nil
}

// Invalidate drops a customer's cached report, typically after a new event is recorded.
func (c *HealthCache) Invalidate(ctx context.Context, customerID int64) error {
	if err := c.client.Del(ctx, healthKey(customerID)).Err(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to invalidate cached health report", slog.Int64("customerID", customerID), slog.Any("error", err))
		return fmt.Errorf("failed to invalidate health report cache: %w", err)
	}
	return nil
}
