package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/supply-map/backend/internal/adapters/cache"
	"github.com/supply-map/backend/internal/adapters/feedback"
	"github.com/supply-map/backend/internal/adapters/providers/distance"
	"github.com/supply-map/backend/internal/adapters/providers/geolocation"
	"github.com/supply-map/backend/internal/adapters/providers/poi"
	"github.com/supply-map/backend/internal/api/handlers"
	"github.com/supply-map/backend/internal/api/middleware"
	"github.com/supply-map/backend/internal/api/routes"
	"github.com/supply-map/backend/internal/application/services"
	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/internal/infrastructure/auth"
	"github.com/supply-map/backend/internal/infrastructure/clients/openai"
	"github.com/supply-map/backend/internal/infrastructure/clients/redis"
	"github.com/supply-map/backend/internal/infrastructure/observability"
	"github.com/supply-map/backend/pkg/config"
)

func main() {
	// Load .env if present; environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis is optional; fall back to the in-memory cache without it
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		cacheProvider = cache.NewMemoryAdapter()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		log.Info().Msg("redis client initialized")
	}

	feedbackStore := feedback.NewStore(cacheProvider)

	// Candidate discovery
	poiProvider := poi.NewOverpassAdapter(&cfg.Overpass)

	// Metered primary provider; OAuth token cache when configured, a
	// static key otherwise
	var credentials distance.CredentialSource
	if cfg.Google.OAuthConfigured() {
		credentials = auth.NewTokenCache(cfg.Google.TokenURL, cfg.Google.ClientID, cfg.Google.ClientSecret)
		log.Info().Msg("using oauth token cache for distance credentials")
	} else {
		credentials = distance.StaticKey(cfg.Google.APIKey)
	}

	primary := distance.NewGoogleAdapter(&cfg.Google, credentials)
	secondary := distance.NewOSRMAdapter(&cfg.OSRM)
	resolver := services.NewDistanceResolver(primary, secondary)

	// Ranking oracle is optional
	var oracle providers.RankingProvider
	if cfg.OpenAI.APIKey != "" {
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize openai client, ranking disabled")
		} else {
			oracle = client
			log.Info().Msg("openai ranking client initialized")
		}
	}

	searchService := services.NewSearchService(poiProvider, resolver, feedbackStore, oracle, cfg.Search)

	geoProvider := geolocation.NewNominatimAdapter(&cfg.Nominatim)

	searchHandler := handlers.NewSearchHandler(searchService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackStore, cacheProvider)
	geolocationHandler := handlers.NewGeolocationHandler(geoProvider)

	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider)

	router := routes.NewRouter(
		searchHandler,
		feedbackHandler,
		geolocationHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
}
