package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bakery-chat/internal/assistant"
	"bakery-chat/internal/cache"
	"bakery-chat/internal/config"
	"bakery-chat/internal/httpserver"
	"bakery-chat/internal/jobs"
	"bakery-chat/internal/llm"
	"bakery-chat/internal/logging"
	"bakery-chat/internal/metrics"
	"bakery-chat/internal/relay"
	"bakery-chat/internal/repo"
	"bakery-chat/internal/store"
	"bakery-chat/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.AppEnv)
	logger.Info("starting bakery-chat", "env", cfg.AppEnv, "driver", cfg.DatabaseDriver, "queue", cfg.JobQueue)
	if !cfg.HasOpenAIKey() {
		logger.Warn("OPENAI_API_KEY is not set; model calls will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	repository, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	files, err := migrations.For(cfg.DatabaseDriver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := repository.RunMigrations(ctx, files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	conversationStore := store.New(repository, logger, store.Options{
		QueryTimeout: cfg.DBQueryTimeout,
		Location:     loc,
	})

	llmClient := llm.NewOpenAI(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.LLMTimeout,
	}, logger, metricRegistry)

	relayClient := relay.New(relay.Config{
		URL:     cfg.WebhookURL,
		Timeout: cfg.WebhookTimeout,
	}, logger, metricRegistry)

	queue, closeQueueDeps, err := openQueue(ctx, cfg, logger, metricRegistry)
	if err != nil {
		return fmt.Errorf("init job queue: %w", err)
	}
	defer closeQueueDeps()

	svc := assistant.New(conversationStore, llmClient, queue, logger, metricRegistry, assistant.Options{
		ChatMaxTokens:    cfg.ChatMaxTokens,
		AnalyzeMaxTokens: cfg.AnalyzeMaxTokens,
	})
	queue.Start(ctx, svc)
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error("job queue shutdown error", "error", err)
		}
	}()

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, httpserver.Dependencies{
		Assistant: svc,
		Store:     conversationStore,
		Relay:     relayClient,
		Health:    repository,
		Env: httpserver.EnvStatus{
			HasOpenAI:      cfg.HasOpenAIKey(),
			HasDatastore:   cfg.HasDatastore(),
			HasDatastoreID: cfg.HasDatastore(),
		},
	}, cfg.PublicBasePath)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repo.Repository, error) {
	if cfg.DatabaseDriver == config.DriverSQLite {
		return repo.NewSQLite(ctx, cfg.SQLitePath, logger)
	}
	return repo.NewPostgres(ctx, cfg.DatabaseURL, cfg.SupabaseSchema, logger)
}

// openQueue builds the configured job queue. The returned func releases
// whatever the queue depends on and runs after the queue is closed.
func openQueue(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (jobs.Queue, func(), error) {
	opts := jobs.Options{
		Workers: cfg.JobWorkers,
		Timeout: cfg.JobTimeout,
		Buffer:  cfg.JobBuffer,
	}
	if cfg.JobQueue != config.QueueRedis {
		return jobs.NewLocal(opts, logger, m), func() {}, nil
	}

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	}, logger)
	if err := redisClient.Ping(ctx); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	closeRedis := func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}
	return jobs.NewRedis(redisClient, cfg.RedisQueue, opts, logger, m), closeRedis, nil
}
