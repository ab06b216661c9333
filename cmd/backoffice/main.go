// Package main is the entry point for the CashBet back-office dashboard.
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
	"github.com/rs/zerolog/log"

	"cashbet-backoffice/internal/api"
	"cashbet-backoffice/internal/config"
	"cashbet-backoffice/internal/hierarchy"
	"cashbet-backoffice/internal/report"
	"cashbet-backoffice/internal/server"
	"cashbet-backoffice/internal/session"
	"cashbet-backoffice/internal/telemetry"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("backend", cfg.Backend.BaseURL).
		Str("listen", cfg.Server.ListenAddr).
		Msg("Configuration loaded")

	// Trace export (no-op without an OTLP endpoint)
	shutdownTracing := telemetry.Setup("cashbet-backoffice")

	// Session store and shared backend client
	sess := session.NewStore()
	client, err := api.New(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, sess)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create backend client")
	}

	// Core services
	tree := hierarchy.NewService(client.Directory(), client.Ledger(), sess)
	view := report.NewView(client.Reports())

	// HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      server.New(cfg, sess, client, tree, view).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("Dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error().Err(err).Msg("Trace exporter shutdown failed")
	}

	log.Info().Msg("Stopped")
}
