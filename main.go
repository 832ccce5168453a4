package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finledger/pkg/config"
	"finledger/pkg/events"
	"finledger/pkg/identity"
	"finledger/pkg/ledger"
	"finledger/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// .env never overrides variables that are already set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := newLogger("info")
		boot.Fatal().Err(err).Msg("load configuration")
	}
	log := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := initDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}

	// `finledger migrate` runs the schema migration and exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := store.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("migration completed")
		return
	}

	var notifier ledger.Notifier
	if cfg.AMQP.URL != "" {
		pub, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("record events disabled")
		} else {
			defer pub.Close()
			notifier = pub
		}
	}

	gin.SetMode(cfg.GinMode)
	srv := newServer(db, ledger.NewRepository(store.NewRecords(db), notifier), identity.New(db, cfg.JWT), log)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("finledger listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("finledger stopped")
}

// newLogger builds the JSON process logger. An unknown level falls back to info.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", "finledger").Logger()
}
