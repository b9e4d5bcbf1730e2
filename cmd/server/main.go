package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"savn/backend/internal/cache"
	"savn/backend/internal/config"
	"savn/backend/internal/httpapi"
	"savn/backend/internal/ledger"
	"savn/backend/internal/persist"
	filepersist "savn/backend/internal/persist/file"
	pgpersist "savn/backend/internal/persist/postgres"
	"savn/backend/internal/service"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	if len(cfg.AuthSecret) < 32 {
		logger.Fatal().Msg("AUTH_SECRET must be set and at least 32 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store persist.Store
	closers := make([]func() error, 0, 2)

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgpersist.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start without it")
		}
		store = pg
		closers = append(closers, pg.Close)
		logger.Info().Msg("persistence: postgres")
	case cfg.LedgerFile != "":
		store = filepersist.New(cfg.LedgerFile)
		logger.Info().Str("path", cfg.LedgerFile).Msg("persistence: file")
	default:
		store = persist.Noop{}
		logger.Info().Msg("persistence: none (state is in-memory only)")
	}

	led := loadLedger(ctx, store, logger)

	analyticsCache := cache.AnalyticsCache(cache.NoopAnalyticsCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisAnalyticsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using noop analytics cache")
		} else {
			analyticsCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info().Msg("analytics cache: redis")
		}
	} else {
		logger.Info().Msg("analytics cache: noop")
	}

	svc := service.New(
		led,
		store,
		analyticsCache,
		time.Duration(cfg.AnalyticsCacheTTLSeconds)*time.Second,
		cfg.LowStockThreshold,
		logger,
	)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.OwnerPassword, cfg.StaffPassword)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Address()).Msg("ledger backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn().Err(err).Msg("close error")
		}
	}

	logger.Info().Msg("server stopped")
}

// loadLedger restores the persisted state, falling back to a seeded catalog
// for a fresh install.
func loadLedger(ctx context.Context, store persist.Store, logger zerolog.Logger) *ledger.Store {
	products, transactions, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			logger.Info().Msg("no persisted state, seeding starter catalog")
			return ledger.NewSeeded(logger)
		}
		logger.Fatal().Err(err).Msg("loading persisted ledger state failed")
	}
	logger.Info().Int("products", len(products)).Int("transactions", len(transactions)).Msg("ledger state restored")
	return ledger.NewFromState(logger, products, transactions)
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).Level(parsed).With().Timestamp().Logger()
}
