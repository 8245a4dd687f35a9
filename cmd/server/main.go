package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/api"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/api/middleware"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/boardroom"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/config"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/handlers"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/ledger"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/llm"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/realtime"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/scheduler"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/store"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Durable store: Postgres, then SQLite, then process memory
	dataStore := openStore(ctx, cfg, logger)
	defer dataStore.Close()

	var redisStore *store.RedisStore
	var reportCache store.ReportCache
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		reportCache = redisStore
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set: rate limiting disabled, nonces tracked in process")
	}

	// Ledger
	if cfg.Ledger.Owner == "" {
		logger.Fatal().Msg("LEDGER_OWNER is required (generate one with `upx keygen` and `upx address`)")
	}
	owner, err := ledger.ParseAddress(cfg.Ledger.Owner)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid LEDGER_OWNER")
	}
	tokenLedger, err := ledger.Open(ctx, owner, ledger.NewTransactionJournal(dataStore), ledger.Tokens(cfg.Ledger.InitialSupply))
	if err != nil {
		logger.Fatal().Err(err).Msg("ledger restore failed")
	}
	info := tokenLedger.Info()
	logger.Info().
		Str("owner", string(info.Owner)).
		Str("total_supply", info.TotalSupply).
		Uint64("seq", info.LastSeq).
		Bool("paused", info.Paused).
		Msg("ledger ready")

	// Boardroom
	hub := realtime.NewHub("Connected to UnityPay 2045 Prime Brain", logger)
	if cfg.AI.APIKey == "" {
		logger.Warn().Msg("AI_INTEGRATIONS_OPENAI_API_KEY not set: generation requests will fail")
	}
	gen := boardroom.NewGenerator(llm.NewClient(cfg.AI), logger)
	svc := boardroom.NewService(gen, store.NewReportStore(dataStore, reportCache, logger), dataStore, dataStore, hub, logger)

	sched, err := scheduler.New(svc, cfg.Meetings, cfg.AI.Timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid meeting schedules")
	}
	sched.Start()

	router := api.NewRouter(logger, handlers.Deps{
		Store:     dataStore,
		Redis:     redisStore,
		Boardroom: svc,
		Ledger:    tokenLedger,
		Hub:       hub,
		Logger:    logger,
	}, api.Options{
		RateLimit: middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		},
		StaticDir: cfg.StaticDir,
	})

	// Generation routes wait on the model, so the write timeout covers it.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("model", cfg.AI.Model).
			Int("schedules", sched.Len()).
			Msg("starting UnityPay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Stop(shutdownCtx)
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) store.DataStore {
	switch {
	case cfg.DatabaseURL != "":
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		logger.Info().Msg("connected to PostgreSQL")
		return pg

	case cfg.SQLitePath != "":
		lite, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
		return lite

	default:
		logger.Warn().Msg("no DATABASE_URL or SQLITE_PATH: using in-memory store, data is lost on restart")
		return store.NewMemoryStore()
	}
}
