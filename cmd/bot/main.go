// cmd/bot/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finbot/internal/bot"
	"finbot/internal/common/config"
	"finbot/internal/common/database"
	"finbot/internal/common/logger"
	"finbot/internal/common/observability"
	"finbot/internal/nlu"
	"finbot/internal/nlu/gemini"
	"finbot/internal/nlu/rules"
	"finbot/internal/rates"
	"finbot/internal/session"
	"finbot/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting bot...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Understanding Stack ---
	pool := gemini.NewCredentialPool(cfg.Gemini.APIKeys)
	remote, err := gemini.NewClient(&gemini.Config{
		BaseURL:       cfg.Gemini.BaseURL,
		Model:         cfg.Gemini.Model,
		Timeout:       time.Duration(cfg.Gemini.Timeout) * time.Millisecond,
		QuotaKeywords: cfg.Gemini.QuotaKeywords,
	}, pool, log)
	if err != nil {
		zapLog.Fatal("gemini client failed", zap.Error(err))
	}

	resolver := nlu.NewResolver(remote, rules.NewExtractor(log), log)

	// --- Domain Services ---
	st := store.NewPostgresStore(pg.DB, log)
	rateSvc := rates.NewService(&rates.Config{
		SourceURL:     cfg.Rates.SourceURL,
		Timeout:       time.Duration(cfg.Rates.Timeout) * time.Millisecond,
		FallbackPrice: decimal.NewFromInt(cfg.Rates.FallbackPrice),
	}, redis, log)
	sessions := session.NewManager(st, rateSvc, log)

	gateway := bot.NewTelegramGateway(cfg.Telegram.BotToken,
		time.Duration(cfg.Telegram.PollTimeout)*time.Second, log)

	router := bot.NewRouter(log)
	bot.NewHandlers(st, rateSvc, gateway, sessions, cfg.Admin.IsAdmin, log).Register(router)

	engine := bot.NewEngine(gateway, resolver, sessions, st, router, obs, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			status := http.StatusOK
			if err := pg.Ping(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{
				"status": http.StatusText(status),
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())

		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Message Loop ---
	go func() {
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			zapLog.Fatal("engine stopped unexpectedly", zap.Error(err))
		}
	}()
	zapLog.Info("Bot is polling for messages")

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	cancel()

	// give in-flight handlers a moment to finish before connections close
	time.Sleep(2 * time.Second)

	zapLog.Info("Bot stopped gracefully")
}
