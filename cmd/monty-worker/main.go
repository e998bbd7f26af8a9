package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"monty/internal/ai"
	"monty/internal/amqp"
	"monty/internal/config"
	applog "monty/internal/log"
	"monty/internal/services"
	"monty/internal/sheets"
	gsheet "monty/internal/sheets/google"
	"monty/internal/storage"
	"monty/internal/telegram"
	"monty/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting monty-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var sender services.Broadcaster
	if cfg.TelegramBotToken != "" && len(cfg.TelegramChatIDs) > 0 {
		tgSender, err := telegram.NewSender(cfg.TelegramBotToken, cfg.TelegramChatIDs, logger)
		if err != nil {
			logger.Error("Failed to initialize Telegram sender", "error", err)
			os.Exit(1)
		}
		sender = tgSender
	} else {
		logger.Info("Telegram delivery disabled - token or chat ids missing")
	}

	var sheetsWriter sheets.TransactionWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sheetsWriter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var completer services.Completer
	if cfg.OpenAIAPIKey != "" {
		aiClient, err := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			logger.Error("Failed to initialize OpenAI client", "error", err)
			os.Exit(1)
		}
		completer = aiClient
	} else {
		logger.Info("AI digest disabled - no OPENAI_API_KEY provided")
	}

	digestWorker, err := worker.NewDigestWorker(
		services.NewDigestService(repo, completer, sender),
		cfg.DigestCron, cfg.DigestTZ)
	if err != nil {
		logger.Error("Failed to initialize digest worker", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	notifyWorker := worker.NewNotifyWorker(sender, sheetsWriter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionCreated(ctx, func(msg *amqp.TransactionCreatedMessage) error {
			return notifyWorker.HandleTransactionCreated(ctx, msg)
		})
	})
	g.Go(func() error {
		return digestWorker.Run(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
