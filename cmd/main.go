package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "customer-health/docs"
	"customer-health/internal/api"
	"customer-health/internal/api/middleware"
	"customer-health/internal/batch"
	"customer-health/internal/config"
	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/domain/health"
	"customer-health/internal/event"
	"customer-health/internal/infrastructure/cache"
	"customer-health/internal/infrastructure/database/postgres"
	"customer-health/internal/infrastructure/logging"
	"customer-health/internal/storage"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	defaultSweepSchedule = "*/15 * * * *"
	defaultSweepTimeout  = 10 * time.Minute
	rabbitMQDialAttempts = 5
)

// @title Customer Health API
// @version 1.0
// @description Scores customer engagement and flags accounts at risk of churn.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	dbRouter := initializeDatabase(cfg, logger)
	redisClient := initializeRedisClient(cfg, logger)
	rabbitMQConn := setupRabbitMQ(cfg, logger)
	publisher := initializePublisher(rabbitMQConn, cfg, logger)

	services := initializeServices(dbRouter, redisClient, publisher, cfg, logger)
	sweepJob := batch.NewHealthSweepJob(services.Health, publisher, logger)

	cronScheduler, err := startBatchJobs(cfg, logger, sweepJob)
	if err != nil {
		logger.Error("Failed to schedule health sweep", slog.Any("error", err))
		os.Exit(1)
	}

	warmupConsumer := startCacheWarmupConsumer(rabbitMQConn, redisClient, services.Health, cfg, logger)

	rateLimiter := initializeRateLimiter(cfg, redisClient, logger)
	router := api.SetupRouter(rateLimiter, services, dbRouter, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, warmupConsumer, rateLimiter, rabbitMQConn, redisClient, dbRouter, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *storage.Router {
	logger.Info("Initializing database connection pools...")
	ctx := context.Background()

	primary, replicas, err := postgres.NewRouterPools(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pools", "error", err)
		os.Exit(1)
	}

	dbRouter := storage.NewRouter(primary, replicas, logger, storage.WithAcquireTimeout(cfg.Database.Pool.AcquireTimeout))

	if cfg.Database.AutoMigrate {
		if err := postgres.ApplySchema(ctx, dbRouter, logger); err != nil {
			dbRouter.Close()
			os.Exit(1)
		}
	}
	return dbRouter
}

// initializeRedisClient returns nil when Redis is disabled or unreachable. Both the
// health cache and the rate limiter run without it.
func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, health cache off and rate limiting kept in-process")
		return nil
	}
	if cfg.Redis.Addr == "" {
		logger.Warn("Redis enabled but no address configured, continuing without it")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, continuing without it", "error", err, "addr", cfg.Redis.Addr)
		_ = rdb.Close()
		return nil
	}

	logger.Info("Redis client connected successfully.", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	return rdb
}

func initializeRateLimiter(cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) *middleware.RateLimiterMiddleware {
	// A nil *redis.Client must not reach the middleware as a non-nil Cmdable.
	if redisClient == nil {
		return middleware.NewRateLimiterMiddleware(cfg.Server.RateLimit, nil, logger)
	}
	return middleware.NewRateLimiterMiddleware(cfg.Server.RateLimit, redisClient, logger)
}

func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, domain events will not be published")
		return nil
	}
	if cfg.RabbitMQ.Host == "" {
		logger.Warn("RabbitMQ enabled but host is not configured")
		return nil
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQ.URL(), logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without publishing", "error", err)
		return nil
	}
	return conn
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 1; i <= rabbitMQDialAttempts; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					if e != nil {
						logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
					}
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", rabbitMQDialAttempts),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", rabbitMQDialAttempts, err)
}

func initializePublisher(conn *amqp.Connection, cfg *config.Config, logger *slog.Logger) event.EventPublisher {
	if conn == nil {
		return event.NoopPublisher{}
	}
	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to initialize RabbitMQ publisher, events will be dropped", "error", err)
		return event.NoopPublisher{}
	}
	return publisher
}

// startCacheWarmupConsumer re-primes cached health reports after events land.
// It only runs when both the broker and the cache are available.
func startCacheWarmupConsumer(conn *amqp.Connection, redisClient *redis.Client, healthSvc health.Service, cfg *config.Config, logger *slog.Logger) *event.Consumer {
	if conn == nil || redisClient == nil || cfg.RabbitMQ.WarmupQueue == "" {
		logger.Info("Cache warmup consumer disabled")
		return nil
	}

	handler := event.NewCacheWarmupHandler(func(ctx context.Context, customerID int64) error {
		_, err := healthSvc.GetHealth(ctx, customerID)
		return err
	}, logger)

	consumer, err := event.NewConsumer(conn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.WarmupQueue,
		"customer-health-warmup", event.WarmupRoutingKeys, handler.HandleDelivery, logger)
	if err != nil {
		logger.Error("Failed to set up cache warmup consumer", "error", err)
		return nil
	}
	if err := consumer.Start(context.Background()); err != nil {
		logger.Error("Failed to start cache warmup consumer", "error", err)
		return nil
	}
	return consumer
}

func initializeServices(dbRouter storage.SessionRouter, redisClient *redis.Client, publisher event.EventPublisher, cfg *config.Config, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")
	customerRepo := postgres.NewCustomerRepository(logger)
	eventRepo := postgres.NewEventRepository(logger)
	signalRepo := postgres.NewSignalRepository(logger)

	var healthOpts []health.Option
	engagementOpts := []engagement.Option{engagement.WithPublisher(publisher)}
	if redisClient != nil {
		healthCache := cache.NewHealthCache(redisClient, cfg.Health.CacheTTL, logger)
		healthOpts = append(healthOpts, health.WithCache(healthCache))
		engagementOpts = append(engagementOpts, engagement.WithInvalidator(healthCache))
	}

	return api.Services{
		Customers:  customer.NewCustomerService(dbRouter, customerRepo, publisher, logger),
		Engagement: engagement.NewService(dbRouter, eventRepo, customerRepo, logger, engagementOpts...),
		Health:     health.NewService(dbRouter, customerRepo, signalRepo, eventRepo, logger, healthOpts...),
	}
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, sweepJob *batch.HealthSweepJob) (*cron.Cron, error) {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))

	scheduleSpec := cfg.Health.SweepSchedule
	if scheduleSpec == "" {
		scheduleSpec = defaultSweepSchedule
		logger.Warn("Health sweep schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Health.SweepTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultSweepTimeout
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "HealthSweep")
		jobLogger.Info("Cron triggered: Running health sweep job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := sweepJob.Run(ctx); runErr != nil {
			jobLogger.Error("Health sweep job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Health sweep job finished successfully.")
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("invalid health sweep schedule %q: %w", scheduleSpec, err)
	}
	logger.Info("Scheduled health sweep job", "schedule", scheduleSpec, "job_id", jobID, "timeout", jobTimeout)

	c.Start()
	logger.Info("Cron scheduler started.")
	return c, nil
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

// handleShutdown stops new work first, drains HTTP, and closes the pools last so
// in-flight requests can still finish their transactions.
func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, warmupConsumer *event.Consumer, rateLimiter *middleware.RateLimiterMiddleware,
	rabbitConn *amqp.Connection, redisClient *redis.Client, dbRouter *storage.Router,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	if warmupConsumer != nil {
		warmupConsumer.Stop()
	}
	shutdownHTTPServer(srv, serverErrors, logger)
	if rateLimiter != nil {
		rateLimiter.Close()
	}
	closeRabbitMQConnection(rabbitConn, logger)
	closeRedisClient(redisClient, logger)
	if dbRouter != nil {
		logger.Info("Closing database connection pools...")
		dbRouter.Close()
	}

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	if cronScheduler == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	switch {
	case rabbitConn == nil:
		logger.Info("RabbitMQ connection was not established, skipping close.")
	case rabbitConn.IsClosed():
		logger.Info("RabbitMQ connection already closed, skipping close.")
	default:
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	}
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		logger.Info("Redis client was not initialized, skipping close.")
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
	} else {
		logger.Info("Redis client connection closed.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}
