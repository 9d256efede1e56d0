package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"customer-health/internal/config"
	"customer-health/internal/infrastructure/monitoring"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix = "customer-health:ratelimit:"
	unknownClientIP    = "unknown"
	limiterIdleSweep   = 10 * time.Minute
)

// RateLimiterMiddleware limits requests per client IP. With a Redis client it counts
// requests in a shared fixed window so every replica of the service sees the same
// budget. Without one, or while Redis is failing, each process falls back to its own
// token bucket.
type RateLimiterMiddleware struct {
	redisClient redis.Cmdable
	cfg         config.RateLimitConfig
	logger      *slog.Logger
	window      time.Duration

	limiters sync.Map
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, redisClient redis.Cmdable, logger *slog.Logger) *RateLimiterMiddleware {
	if logger == nil {
		panic("logger cannot be nil")
	}
	logger = logger.With("component", "RateLimiter")

	rl := &RateLimiterMiddleware{
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		window:      time.Second,
		stop:        make(chan struct{}),
	}

	switch {
	case !cfg.Enabled:
		logger.Info("Rate limiting is disabled via configuration.")
	case redisClient == nil:
		logger.Info("Rate limiter using in-process token buckets", "rps", cfg.RPS, "burst", cfg.Burst)
	default:
		logger.Info("Rate limiter using Redis fixed window", "limit", rl.windowLimit(), "window", rl.window)
	}

	if cfg.Enabled {
		go rl.cleanupLimiters(limiterIdleSweep)
	}
	return rl
}

func (rl *RateLimiterMiddleware) IsEnabled() bool {
	return rl.cfg.Enabled
}

// Close stops the idle limiter sweeper. Safe to call more than once.
func (rl *RateLimiterMiddleware) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// windowLimit is how many requests one client may make per fixed window.
func (rl *RateLimiterMiddleware) windowLimit() int64 {
	limit := int64(math.Ceil(rl.cfg.RPS * rl.window.Seconds()))
	if int64(rl.cfg.Burst) > limit {
		limit = int64(rl.cfg.Burst)
	}
	return max(limit, 1)
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		if ip == unknownClientIP {
			rl.logger.ErrorContext(r.Context(), "Blocking request due to unknown client IP for rate limiting")
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "Client address could not be determined.")
			return
		}

		if !rl.allow(r, ip) {
			monitoring.HTTP.RateLimited.Inc()
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded", "ip", ip)
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiterMiddleware) allow(r *http.Request, ip string) bool {
	if rl.redisClient != nil {
		allowed, err := rl.allowShared(r, ip)
		if err == nil {
			return allowed
		}
		rl.logger.WarnContext(r.Context(), "Redis rate limit check failed, using local limiter", "ip", ip, "error", err)
	}
	return rl.getLimiter(ip).Allow()
}

func (rl *RateLimiterMiddleware) allowShared(r *http.Request, ip string) (bool, error) {
	ctx := r.Context()
	key := rateLimitKeyPrefix + ip

	pipe := rl.redisClient.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	count := incrCmd.Val()
	// A negative TTL means the key was just created or lost its expiry.
	if ttlCmd.Val() < 0 {
		if err := rl.redisClient.Expire(ctx, key, rl.window).Err(); err != nil {
			rl.logger.ErrorContext(ctx, "Failed to set expiry on rate limit key", "key", key, "error", err)
		}
	}
	return count <= rl.windowLimit(), nil
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	burst := max(rl.cfg.Burst, 1)
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(rl.cfg.RPS), burst))
	return limiter.(*rate.Limiter)
}

// cleanupLimiters drops buckets that have refilled completely, i.e. clients that
// have been idle long enough that a fresh limiter is equivalent.
func (rl *RateLimiterMiddleware) cleanupLimiters(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweepIdle()
		}
	}
}

func (rl *RateLimiterMiddleware) sweepIdle() {
	rl.limiters.Range(func(key, value any) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(limiter.Burst()) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); xRealIP != "" && net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
		return parsed.String()
	}

	rl.logger.Warn("Could not determine client IP for rate limiting", "remoteAddr", r.RemoteAddr)
	return unknownClientIP
}
