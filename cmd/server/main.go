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
	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/adapters/flights"
	router "github.com/Ssteier2016/HANDLEPHONE-sub000/internal/adapters/http"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/adapters/store"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/adapters/transcribe"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/app"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/config"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	met := metrics.New()
	gateway := store.New(db)
	transcriber := transcribe.NewClient(cfg.Transcriber.Endpoint, cfg.Transcriber.APIKey, cfg.Transcriber.Timeout)
	allow := app.StaticAllowlist(cfg.AllowedUsers)

	relay := app.NewRelay(gateway, transcriber, allow, met, cfg.QueueSize, cfg.QueueOverflow)
	go relay.Pipe.Run(ctx)

	sweeper := &app.Sweeper{
		Store:      gateway,
		SessionTTL: cfg.SessionTTL,
		MessageTTL: cfg.MessageTTL,
		Interval:   cfg.SweepInterval,
		PurgeHour:  cfg.MessagePurgeHour,
	}
	go sweeper.Run(ctx)

	board := flights.NewClient(cfg.Flights.URL, cfg.Flights.CacheTTL)

	r := router.SetupRouter(ctx, cfg, relay, board)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Handlephone relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
