package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mediaplan/internal/adapter/repo"
	"mediaplan/internal/chat"
	"mediaplan/internal/http/handlers"
	"mediaplan/internal/http/httpapi"
	"mediaplan/internal/infra"
	"mediaplan/internal/infra/credentials"
	"mediaplan/internal/infra/geoip"
	"mediaplan/internal/middleware"
	"mediaplan/internal/planner"
	"mediaplan/internal/providers/genai"
	"mediaplan/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	outcomes := repo.NewOutcomeRepository(dbpool)
	creds := credentials.NewStore(dbpool)
	if err := outcomes.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure results schema")
	}
	if err := creds.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure credentials schema")
	}

	backend := buildBackend(ctx, cfg, creds, logger)

	runner := planner.NewRunner(backend, outcomes, logger)
	queue := planner.NewQueue(runner, cfg.JobWorkers, cfg.JobQueueSize, logger)
	broker := planner.NewBroker(outcomes, runner, queue, logger)

	sessions, err := session.NewManager(cfg.SessionSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid session secret")
	}
	relay := chat.NewRelay(backend, sessions, logger)

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale detection degrades to headers")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(logger, broker, sessions, relay)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimitPerMin,
		DefaultLocale:  cfg.DefaultLocale,
		CountryLookup:  lookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	// Let queued jobs finish writing their outcomes before the pool closes.
	queue.Close()
	logger.Info().Msg("server stopped")
}

type generationBackend interface {
	genai.TextGenerator
	genai.StreamGenerator
}

// buildBackend picks the generation backend: environment key first, then the
// database credential store, then the offline placeholder.
func buildBackend(ctx context.Context, cfg *infra.Config, creds *credentials.Store, logger infra.Logger) generationBackend {
	key := cfg.OpenAIAPIKey
	if key == "" {
		lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		stored, err := creds.OpenAIAPIKey(lookupCtx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to read stored backend key")
		}
		key = stored
	}
	if key == "" {
		logger.Warn().Msg("no backend API key configured, using offline placeholder generator")
		return genai.NewStaticGenerator()
	}
	client, err := genai.NewClient(genai.Options{
		APIKey:       key,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build backend client")
	}
	logger.Info().Str("model", client.Model()).Msg("generation backend ready")
	return client
}
