// Package main provides the entrypoint for the EcoMind API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecomind/ecomind/internal/api"
	"github.com/ecomind/ecomind/internal/api/middleware"
	"github.com/ecomind/ecomind/internal/database"
	"github.com/ecomind/ecomind/internal/featureflags"
	"github.com/ecomind/ecomind/internal/forest"
	"github.com/ecomind/ecomind/internal/location"
	"github.com/ecomind/ecomind/internal/provider/resilience"
	"github.com/ecomind/ecomind/internal/telemetry"
	"github.com/ecomind/ecomind/internal/vegetation"
	"github.com/ecomind/ecomind/internal/vegetation/sentinelhub"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "ecomind-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting EcoMind API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize feature flags repository and service
	ffRepo := featureflags.NewPostgresRepository(pool)
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize vegetation provider (may be nil if not configured)
	registry := resilience.GlobalRegistry
	var vegProvider vegetation.Provider
	if token := os.Getenv("SENTINELHUB_ACCESS_TOKEN"); token != "" {
		clientCfg := resilience.SingleAttemptClientConfig(sentinelhub.ProviderName)
		clientCfg.Registry = registry
		httpClient := resilience.NewClient(clientCfg)

		vegProvider = sentinelhub.NewClient(sentinelhub.ClientConfig{
			AccessToken: token,
			HTTPClient:  httpClient,
			Logger:      log,
		})
		log.Info().Msg("sentinel hub provider initialized")
	} else {
		log.Warn().Msg("sentinel hub not configured - all resolutions use synthetic data")
	}

	// Initialize forest repositories and services
	repo := forest.NewPostgresRepository(pool)
	locations := location.NewResolver()

	radiusKm := 5.0
	if v := os.Getenv("SAMPLING_RADIUS_KM"); v != "" {
		if parsed, parseErr := strconv.ParseFloat(v, 64); parseErr == nil {
			radiusKm = parsed
		}
	}

	resolver := forest.NewResolver(forest.ResolverConfig{
		Locations:    locations,
		Repository:   repo,
		Provider:     vegProvider,
		Gate:         ffService,
		Logger:       log,
		RadiusKm:     radiusKm,
		LookbackDays: ffService.VegetationLookbackDays(ctx, 30),
	})
	aggregator := forest.NewAggregator(repo, log)
	log.Info().Msg("metrics resolver initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Resolver:           resolver,
		Locations:          locations,
		Repository:         repo,
		Aggregator:         aggregator,
		FeatureFlagService: ffService,
		DB:                 pool,
		ProviderRegistry:   registry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
