package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/groq"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentWorker
	logger := log.New(cfg)
	log.SetDefault(logger)

	appCfg := config.Load()
	if err := appCfg.Validate(); err != nil {
		logger.Error("configuration invalid", log.FieldError, err)
		os.Exit(1)
	}
	if appCfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the scan worker")
		os.Exit(1)
	}
	if appCfg.GroqAPIKey == "" {
		logger.Error("GROQ_API_KEY is required for the scan worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(appCfg.SQLiteDBPath)
	if err != nil {
		logger.Error("open storage", log.FieldError, err, "path", appCfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(appCfg.AMQPURL, appCfg.AMQPExchange, appCfg.AMQPQueue)
	if err != nil {
		logger.Error("connect AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	extractor := groq.NewClient(groq.Config{
		APIKey:  appCfg.GroqAPIKey,
		Model:   appCfg.GroqModel,
		BaseURL: appCfg.GroqBaseURL,
		Timeout: appCfg.GroqTimeout,
	}, logger)

	scans := services.NewScanService(repo, extractor, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("scan worker started", "queue", appCfg.AMQPQueue)
	err = client.ConsumeScanJobs(ctx, func(msg *amqp.ScanJobMessage) error {
		return scans.Process(ctx, msg.ScanID)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("scan worker stopped")
}
