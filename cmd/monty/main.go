package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"monty/internal/ai"
	"monty/internal/amqp"
	"monty/internal/auth"
	"monty/internal/cache"
	"monty/internal/config"
	"monty/internal/core"
	apphttp "monty/internal/http"
	applog "monty/internal/log"
	"monty/internal/services"
	"monty/internal/storage"
	"monty/internal/telegram"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

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

	// AMQP is optional: without it events are simply not published.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
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

	reports := cache.NewLRUCache[core.Report](128, time.Minute)
	settings := services.NewSettingsService(repo)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Repo:         repo,
		Transactions: services.NewTransactionService(repo, publisher, reports),
		Analytics:    services.NewAnalyticsService(repo, settings, reports),
		Budgets:      services.NewBudgetService(repo, settings),
		Goals:        services.NewGoalService(repo, settings),
		Settings:     settings,
		Digest:       services.NewDigestService(repo, completer, sender),
		Verifier:     auth.NewTelegramVerifier(cfg.TelegramBotToken, cfg.TelegramAuthDisabled, cfg.AllowedTelegramIDs),
		Tokens:       auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		RateLimitRPM: cfg.RateLimitRPM,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting monty server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
