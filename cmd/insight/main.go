// Package main - точка входа сервиса аналитики успеваемости студентов.
//
// Сервис отвечает за:
// - Анализ активных курсов студента с оценкой риска и советами
// - Чат-ассистента, отвечающего по сводке успеваемости студента
// - Проверку состояния зависимостей (PostgreSQL, Redis, модель)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eduplatform/insight-hub/config"
	"github.com/eduplatform/insight-hub/internal/application/query"
	"github.com/eduplatform/insight-hub/internal/infrastructure/external/extractor"
	"github.com/eduplatform/insight-hub/internal/infrastructure/external/reasoning"
	"github.com/eduplatform/insight-hub/internal/infrastructure/persistence/postgres"
	"github.com/eduplatform/insight-hub/internal/infrastructure/persistence/redis"
	httpapi "github.com/eduplatform/insight-hub/internal/interface/http"
	"github.com/eduplatform/insight-hub/internal/interface/http/handlers"
	"github.com/eduplatform/insight-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	appLog := setupLogger(cfg)
	log := appLog.Slog()
	log.Info("starting insight service",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"ai_configured", cfg.Reasoning.APIKey != "",
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnection(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. МИГРАЦИИ (по флагу auto_migrate)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Features.IsEnabled(config.FeatureAutoMigrate) {
		applied, err := postgres.NewMigrator(dbConn).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date", "applied", applied)
	}

	health := handlers.NewHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.PingCheck(dbConn))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ВНЕШНИЕ КЛИЕНТЫ
	// ─────────────────────────────────────────────────────────────────────────
	extractorCfg := extractor.DefaultClientConfig(cfg.Extractor.BaseURL)
	extractorCfg.Timeout = cfg.Extractor.Timeout
	extractorCfg.Logger = log
	var textSource query.TextExtractor = extractor.NewClient(extractorCfg)

	reasoningCfg := reasoning.DefaultClientConfig(cfg.Reasoning.APIKey)
	reasoningCfg.BaseURL = cfg.Reasoning.BaseURL
	reasoningCfg.Model = cfg.Reasoning.Model
	reasoningCfg.Temperature = float32(cfg.Reasoning.Temperature)
	reasoningCfg.MaxTokens = cfg.Reasoning.MaxTokens
	reasoningCfg.ChatTemperature = float32(cfg.Reasoning.ChatTemperature)
	reasoningCfg.ChatMaxTokens = cfg.Reasoning.ChatMaxTokens
	reasoningCfg.Timeout = cfg.Reasoning.Timeout
	reasoningCfg.RateLimitBaseDelay = cfg.Reasoning.RateLimitBaseDelay
	reasoningCfg.MaxRateLimitRetries = cfg.Reasoning.MaxRateLimitRetries
	reasoningCfg.Logger = log
	reasoner := reasoning.NewClient(reasoningCfg)
	if !reasoner.Configured() {
		log.Warn("GROQ_API_KEY is not set, analyses will report AI not configured")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REDIS (опционально, кеш текста документов)
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Redis.Disabled && cfg.Features.IsEnabled(config.FeatureDocumentCache) {
		redisCfg := redis.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(ctx, redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, document cache disabled", "error", err)
		} else {
			defer func() { _ = cache.Close() }()
			health.AddCheck("redis", handlers.PingCheck(cache))
			textSource = redis.NewDocumentCache(textSource, cache, cfg.Analysis.DocumentContentTTL, log)
			log.Info("Redis connection established, document cache enabled")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ОБРАБОТЧИКИ ЗАПРОСОВ
	// ─────────────────────────────────────────────────────────────────────────
	repo := postgres.NewAcademicRepository(dbConn)

	selector := query.NewContextSelector(textSource, query.ContextSelectorConfig{
		MaxParallelFetches: cfg.Analysis.MaxDocumentFetches,
		DocumentsEnabled:   cfg.Features.IsEnabled(config.FeatureDocumentContext),
	}, log)

	deps := httpapi.Dependencies{
		Analysis: query.NewGetStudentAnalysisHandler(repo, selector, reasoner, query.AnalysisConfig{
			MaxConcurrentCourses: cfg.Analysis.MaxConcurrentCourses,
		}, log),
		Health:       health,
		AIConfigured: reasoner.Configured,
		Logger:       appLog,
	}
	if cfg.Features.IsEnabled(config.FeatureChatAssistant) {
		deps.Chat = query.NewStudentChatHandler(repo, reasoner, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.RequestTimeout = cfg.Analysis.RequestTimeout
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins

	server := httpapi.NewServer(serverCfg, deps)
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
		return errors.New("http server stopped unexpectedly")
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование и делает его
// логгером по умолчанию для slog.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Logging.Level)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	opts.Text = cfg.Logging.Format == "text"

	log := logger.New(opts)
	slog.SetDefault(log.Slog())
	return log
}
