package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"

	"gymmate-backend/internal/config"
	"gymmate-backend/internal/database"
	"gymmate-backend/internal/handlers"
	"gymmate-backend/internal/logger"
	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/observability"
	"gymmate-backend/internal/repository"
	"gymmate-backend/internal/router"
	"gymmate-backend/internal/services"
	"gymmate-backend/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", logger.Err(err))
		os.Exit(1)
	}
}

func run() error {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	noColor := !term.IsTerminal(int(os.Stdout.Fd()))
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, noColor))
	slog.Info("starting GymMate backend", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Tracing ────
	shutdownTracing, err := observability.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}

	// ──── Step 3: Gemini ────
	gemini, err := services.NewGeminiService(ctx, services.GeminiConfig{
		APIKey:           cfg.GeminiKey(),
		ChatModel:        cfg.GeminiChatModel,
		VisionModel:      cfg.GeminiVisionModel,
		Timeout:          cfg.GeminiTimeout,
		ConcurrentReqs:   cfg.GeminiConcurrentReqs,
		HistoryMode:      services.HistoryMode(cfg.PulseHistoryMode),
		StructuredOutput: cfg.FoodScanStructuredOutput,
	})
	if err != nil {
		return err
	}
	defer gemini.Close()
	slog.Info("gemini client ready", "configured", gemini.Configured(),
		"chat_model", cfg.GeminiChatModel, "vision_model", cfg.GeminiVisionModel)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx)

	deps := router.Deps{
		Pulse:       handlers.NewPulseHandler(gemini, cfg.MaxBodyBytes),
		Vision:      handlers.NewVisionHandler(gemini, cfg.MaxBodyBytes),
		RateLimiter: limiter,
		FrontendURL: cfg.FrontendURL,
	}

	// ──── Step 4: Optional PostgreSQL / Redis ────
	var (
		pool         *pgxpool.Pool
		redisClients *database.RedisClients
	)
	if cfg.RedisURL != "" {
		redisClients, err = database.NewRedisClients(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		slog.Info("redis connected")
	}
	if cfg.DatabaseURL != "" {
		pool, err = database.NewPostgresPool(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLifetime,
			MaxConnIdleTime: cfg.DBMaxConnIdleTime,
			ConnectTimeout:  cfg.DBConnectTimeout,
		})
		if err != nil {
			return err
		}
		slog.Info("postgres connected")
		mountPersistence(&deps, cfg, pool, redisClients)
	} else {
		slog.Warn("DATABASE_URL not set; persistence routes disabled")
	}

	// ──── Step 5: HTTP Server ────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(deps),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var result error
	select {
	case err := <-serveErr:
		result = multierror.Append(result, err)
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if deps.WSHub != nil {
		deps.WSHub.Close()
	}
	if redisClients != nil {
		if err := redisClients.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("redis close: %w", err))
		}
	}
	if pool != nil {
		pool.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("tracing shutdown: %w", err))
	}

	return result
}

func mountPersistence(d *router.Deps, cfg *config.Config, pool *pgxpool.Pool, rc *database.RedisClients) {
	foodLogRepo := repository.NewFoodLogRepo(pool)
	pulseChatRepo := repository.NewPulseChatRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)

	d.JWTAuth = middleware.NewJWTAuth(cfg.JWTSecret)
	d.FoodLogs = handlers.NewFoodLogHandler(foodLogRepo)
	d.PulseChats = handlers.NewPulseChatHandler(pulseChatRepo)
	d.Subscription = handlers.NewSubscriptionHandler(subscriptionRepo)

	if rc == nil {
		slog.Warn("REDIS_URL not set; quotas and realtime messages disabled")
		d.Messages = handlers.NewMessageHandler(messageRepo, nil)
		return
	}

	d.Usage = services.NewUsageService(services.NewRedisCounter(rc.Counters), subscriptionRepo)
	d.Messages = handlers.NewMessageHandler(messageRepo, websocket.NewPublisher(rc.Counters))
	d.WSHub = websocket.NewHub(rc.PubSub, d.JWTAuth, messageRepo, cfg.FrontendURL)
}
