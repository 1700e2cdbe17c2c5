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

	router "github.com/dkeye/Mixer/internal/adapters/http"
	"github.com/dkeye/Mixer/internal/config"
	"github.com/dkeye/Mixer/internal/emitter"
	"github.com/dkeye/Mixer/internal/registry"
	"github.com/dkeye/Mixer/internal/transport"
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
		log.Fatal().Err(err).Msg("failed to load config")
	}

	client, err := transport.Dial(ctx, cfg.GatewayURL, transport.Options{
		KeepAlivePeriod: cfg.KeepAlivePeriod,
	})
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.GatewayURL).Msg("gateway dial failed")
	}
	defer client.Close()

	emit := emitter.New()
	handle := client.Attach(registry.New(), emit)

	// Log the push traffic the manager handle observes.
	events, stop := emit.Subscribe(64)
	defer stop()
	go func() {
		for n := range events {
			log.Info().Str("module", "main").Str("kind", string(n.Kind)).Msg("push notification")
		}
	}()

	ctl := &router.Controller{
		Handle:  handle,
		Timeout: cfg.RequestTimeout,
		Secret:  cfg.RoomSecret,
	}
	r := router.SetupRouter(cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("bridgectl started")
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
	client.Detach(handle)
	log.Info().Msg("Server exited gracefully")
}
