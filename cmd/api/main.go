package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cypherspark/sms-relay/internal/config"
	"github.com/Cypherspark/sms-relay/internal/core"
	"github.com/Cypherspark/sms-relay/internal/http"
	"github.com/Cypherspark/sms-relay/internal/logger"
)

func main() {
	cfg, err := config.LoadFromEnv(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	// ---- Relay ----
	relay := core.NewRelay(config.EnvCredentials{}, cfg.ProviderFactory(), log)
	if !relay.Configured() {
		log.Warn().Msg("sms provider credentials missing; sends will fail until they are set")
	}

	// ---- HTTP server ----
	srv := httpapi.NewServer(relay, log)
	srv.MaxBodyBytes = cfg.Server.MaxBodyBytes
	srv.CORSOrigins = cfg.CORS.AllowedOrigins
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("provider", cfg.Provider.Name).Msg("HTTP listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// ---- Graceful shutdown ----
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
