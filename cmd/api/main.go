package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/app"
	"github.com/markdave123-py/ChatbotX/internal/config"
	"github.com/markdave123-py/ChatbotX/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if _, err := logger.New(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer application.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- application.Server.Start() }()

	log.Info().Msg("ChatbotX is running")
	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			application.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
