package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/groq"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/scheduler"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// .env is for local development; missing in production is fine.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("open storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	var extractor services.BillExtractor
	if cfg.GroqAPIKey != "" {
		extractor = groq.NewClient(groq.Config{
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.GroqModel,
			BaseURL: cfg.GroqBaseURL,
			Timeout: cfg.GroqTimeout,
		}, logger)
	} else {
		logger.Warn("GROQ_API_KEY not set, bill scanning disabled")
	}

	// Without a broker the scan service falls back to inline processing.
	var publisher services.ScanPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, scans will process inline", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLoanLedger(repo, logger)
	payer := services.NewExpensePayer(repo, logger)
	scans := services.NewScanService(repo, extractor, publisher, logger)
	loanProcessor := services.NewLoanProcessor(repo, ledger, logger)
	autoDeduct := services.NewAutoDeductProcessor(repo, payer, logger)

	sched := scheduler.New(logger)
	if err := sched.AddJob(cfg.LoanPaymentsCron, "loan-payments", func(ctx context.Context) error {
		_, err := loanProcessor.ProcessDuePayments(ctx, time.Now().UTC())
		return err
	}); err != nil {
		logger.Error("schedule loan payments", log.FieldError, err)
		os.Exit(1)
	}
	if err := sched.AddJob(cfg.AutoDeductCron, "auto-deduct", func(ctx context.Context) error {
		_, err := autoDeduct.ProcessDueExpenses(ctx, time.Now().UTC())
		return err
	}); err != nil {
		logger.Error("schedule auto-deduct", log.FieldError, err)
		os.Exit(1)
	}

	server := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Storage:       repo,
		Tokens:        tokens,
		Authenticator: tokens,
		Ledger:        ledger,
		Payer:         payer,
		Scans:         scans,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start()
		return server.Start()
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown", log.FieldError, err)
		}
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("fintrack started", "port", cfg.Port)
	if err := g.Wait(); err != nil {
		logger.Error("server exited", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("fintrack stopped")
}
