// Package main provides the entrypoint for the EcoMind background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecomind/ecomind/internal/database"
	"github.com/ecomind/ecomind/internal/featureflags"
	"github.com/ecomind/ecomind/internal/forest"
	"github.com/ecomind/ecomind/internal/location"
	"github.com/ecomind/ecomind/internal/provider/resilience"
	"github.com/ecomind/ecomind/internal/vegetation"
	"github.com/ecomind/ecomind/internal/vegetation/sentinelhub"
	"github.com/ecomind/ecomind/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "ecomind-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting EcoMind worker")

	// Worker also exposes a health endpoint for Cloud Run.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Feature flags gate scheduled refreshes.
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})

	// Vegetation provider (may be nil if not configured)
	var vegProvider vegetation.Provider
	if token := os.Getenv("SENTINELHUB_ACCESS_TOKEN"); token != "" {
		clientCfg := resilience.SingleAttemptClientConfig(sentinelhub.ProviderName)
		clientCfg.Registry = resilience.GlobalRegistry
		httpClient := resilience.NewClient(clientCfg)

		vegProvider = sentinelhub.NewClient(sentinelhub.ClientConfig{
			AccessToken: token,
			HTTPClient:  httpClient,
			Logger:      log,
		})
	} else {
		log.Warn().Msg("sentinel hub not configured - refreshes use synthetic data")
	}

	repo := forest.NewPostgresRepository(pool)
	resolver := forest.NewResolver(forest.ResolverConfig{
		Locations:  location.NewResolver(),
		Repository: repo,
		Provider:   vegProvider,
		Gate:       ffService,
		Logger:     log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.DefaultRefreshConfig(),
		Logger:   log,
		Resolver: resolver,
		Repo:     repo,
		Gate:     ffService,
	})

	// Pub/Sub subscription drives the job (optional; falls back to a ticker).
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
				cancel()
			}
		}()
	} else {
		log.Warn().Msg("pubsub not configured - running on interval schedule")

		interval := 30 * time.Minute
		if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
			if parsed, parseErr := time.ParseDuration(v); parseErr == nil {
				interval = parsed
			}
		}

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refreshJob.Run(ctx)
				}
			}
		}()
	}

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
