package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	_ "customer-health/docs"
	"customer-health/internal/api/handler"
	mw "customer-health/internal/api/middleware"
	"customer-health/internal/config"
	"customer-health/internal/domain/customer"
	"customer-health/internal/domain/engagement"
	"customer-health/internal/domain/health"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const (
	requestTimeout = 60 * time.Second
	livenessPing   = 2 * time.Second
)

// Pinger reports whether the primary database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Customers  customer.CustomerService
	Engagement engagement.Service
	Health     health.Service
}

func SetupRouter(rateLimiter *mw.RateLimiterMiddleware, svcs Services, pinger Pinger, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, rateLimiter, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCustomerRoutes(router, cfg, svcs, logger)
	setupDashboardRoute(router, cfg, svcs.Health, logger)
	router.Get("/health", livenessHandler(pinger, logger))
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, rateLimiter *mw.RateLimiterMiddleware, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(requestTimeout))
	if rateLimiter != nil {
		router.Use(rateLimiter.Middleware)
	}
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, svcs Services, logger *slog.Logger) {
	customers := handler.NewCustomerHandler(svcs.Customers, svcs.Health, logger)
	events := handler.NewEventHandler(svcs.Engagement, logger)
	healthHandler := handler.NewHealthHandler(svcs.Health, logger)

	router.Route("/customers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", customers.CreateCustomer)
		r.Get("/", customers.ListCustomers)
		r.Get("/at-risk", customers.ListAtRisk)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", customers.GetCustomer)
			r.Get("/health", healthHandler.GetHealth)
			r.Post("/events", events.SubmitEvent)
			r.Get("/events", events.ListEvents)
		})
	})
}

func setupDashboardRoute(router *chi.Mux, cfg *config.Config, svc health.Service, logger *slog.Logger) {
	h := handler.NewHealthHandler(svc, logger)
	router.With(mw.AuthMiddleware(cfg.Server.Auth, logger)).Get("/dashboard", h.Dashboard)
}

// livenessHandler answers 200 while the primary accepts connections and 503 otherwise.
func livenessHandler(pinger Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), livenessPing)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				logger.WarnContext(r.Context(), "Liveness check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
