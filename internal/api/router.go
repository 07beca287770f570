// Package api provides the HTTP API for EcoMind.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ecomind/ecomind/internal/api/handler"
	"github.com/ecomind/ecomind/internal/api/middleware"
	"github.com/ecomind/ecomind/internal/featureflags"
	"github.com/ecomind/ecomind/internal/forest"
	"github.com/ecomind/ecomind/internal/location"
	"github.com/ecomind/ecomind/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	Resolver           *forest.Resolver
	Locations          *location.Resolver
	Repository         forest.Repository
	Aggregator         *forest.Aggregator
	FeatureFlagService *featureflags.Service
	DB                 handler.Pinger
	ProviderRegistry   *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ecomind-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type
	r.Use(middleware.RequireJSON)          // Reject non-JSON write bodies

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.ProviderRegistry, cfg.Resolver)
	forestHandler := handler.NewForestHandler(cfg.Resolver, cfg.Locations, cfg.Repository)
	aggregateHandler := handler.NewAggregateHandler(cfg.Aggregator)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)         // 10 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Location endpoints - resolution can hit the vegetation provider,
		// so single-location reads and sampling carry the strict limit.
		r.Route("/locations", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", forestHandler.ListLocations)
			r.With(expensiveRateLimit).Get("/search", forestHandler.SearchLocations)
			r.Route("/{location}", func(r chi.Router) {
				r.With(expensiveRateLimit).Get("/", forestHandler.GetLocation)
				r.With(expensiveRateLimit).Post("/samples", forestHandler.CreateSample)
			})
		})

		// Aggregation endpoints - standard rate limiting
		r.With(standardRateLimit).Get("/metrics/overview", aggregateHandler.Overview)
		r.With(standardRateLimit).Get("/health/distribution", aggregateHandler.HealthDistribution)
		r.With(standardRateLimit).Get("/carbon/rollup", aggregateHandler.CarbonRollup)

		// Admin endpoints - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminRateLimit)

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
