package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"voicetranscribe/internal/api"
	"voicetranscribe/internal/config"
	"voicetranscribe/internal/logging"
	"voicetranscribe/internal/storage"
	"voicetranscribe/internal/stt"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.Setup(cfg.Log)
	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	// Default to release mode unless GIN_MODE says otherwise
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.APIKey == "" {
		logger.Warn().Msg("API_KEY is not set, every transcription request will be rejected")
	}

	provider, err := stt.NewProvider(cfg.Provider, logging.Component(logger, "stt"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create STT provider")
	}

	stager := storage.NewStager(afero.NewOsFs(), cfg.UploadDir)
	handler := api.NewHandler(provider, stager, api.HandlerOptions{
		Timeout:        cfg.Provider.Timeout,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logging.Component(logger, "api"))

	router := api.NewRouter(handler, api.RouterConfig{
		APIKey:             cfg.APIKey,
		MaxMultipartMemory: cfg.MaxUploadBytes,
	}, logging.Component(logger, "http"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("provider", provider.Name()).
			Msg("voice transcription API running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Provider.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
}
