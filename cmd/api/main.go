package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bannergen/internal/adapter/repo"
	"bannergen/internal/http/handlers"
	"bannergen/internal/http/httpapi"
	"bannergen/internal/infra"
	"bannergen/internal/messaging"
	"bannergen/internal/notify"
	"bannergen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	taskRepo := repo.NewTaskRepository(dbpool)

	var queue messaging.Publisher
	if cfg.BrokerURL != "" {
		publisher, err := messaging.NewRabbitPublisher(cfg.BrokerURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect broker")
		}
		defer publisher.Close()
		queue = publisher
	} else {
		logger.Warn().Msg("no broker configured, workers rely on polling")
	}

	hub := notify.NewHub(taskRepo, cfg.NotifyInterval, logger)
	defer hub.Close()

	app := &handlers.App{
		Repo:   taskRepo,
		Queue:  queue,
		Hub:    hub,
		Store:  store,
		Config: cfg,
		Logger: logger,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		// Start returns nil once Shutdown drains the listener, so anything
		// non-nil here is a real serve failure.
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
