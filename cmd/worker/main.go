package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"bannergen/internal/adapter/repo"
	"bannergen/internal/infra"
	"bannergen/internal/messaging"
	"bannergen/internal/pipeline"
	imgprov "bannergen/internal/providers/image"
	"bannergen/internal/providers/text"
	"bannergen/internal/storage"
	"bannergen/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	store, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	taskRepo := repo.NewTaskRepository(pool)

	var receiver messaging.Receiver
	if cfg.BrokerURL != "" {
		r, err := messaging.NewRabbitReceiver(cfg.BrokerURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: broker connection failed")
		}
		defer r.Close()
		receiver = r
	} else {
		logger.Warn().Msg("worker: no broker configured, polling only")
	}

	pipe := pipeline.New(pipeline.Options{
		Text:  newTextGenerator(cfg, logger),
		Image: imgprov.NewPollinationsClient(imgprov.PollinationsOptions{BaseURL: cfg.ImageBaseURL, Timeout: cfg.ImageTimeout}),
		Store: store,
		Retry: pipeline.RetryPolicy{
			MaxAttempts: cfg.ImageRetryMax,
			Backoff:     cfg.ImageRetryBackoff,
		},
		TextTimeout:    cfg.TextTimeout,
		ImageTimeout:   cfg.ImageTimeout,
		ComposeEnabled: cfg.ComposeEnabled,
		MediaBaseURL:   cfg.MediaBaseURL,
		Logger:         logger,
	})

	orchestrator := &worker.Orchestrator{
		Repo:         taskRepo,
		Pipeline:     pipe,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
	}

	logger.Info().Msg("worker: started")
	orchestrator.Run(ctx, receiver)
	logger.Info().Msg("worker: stopped")
}

func newTextGenerator(cfg *infra.Config, logger infra.Logger) text.Generator {
	apiKey := strings.TrimSpace(cfg.TextAPIKey)
	if apiKey == "" {
		logger.Warn().Msg("worker: text api key missing, using canned copy generation")
		return text.NewStatic()
	}
	client, err := text.NewOpenAIClient(text.OpenAIOptions{
		BaseURL:    cfg.TextBaseURL,
		APIKey:     apiKey,
		Model:      cfg.TextModel,
		HTTPClient: &http.Client{Timeout: cfg.TextTimeout},
		Timeout:    cfg.TextTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure text client")
	}
	return client
}
