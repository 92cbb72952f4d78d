package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/screencast-service/internal/cache"
	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/storage/memory"
	"github.com/princekumarofficial/screencast-service/internal/storage/postgres"
	"github.com/princekumarofficial/screencast-service/internal/storage/supabase"
)

// @title Screencast Service API
// @version 1.0
// @description Screen recording uploads, clip records, share links and upload notifications.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
func main() {
	cfg := config.MustLoad()

	level := slog.LevelInfo
	if cfg.IsLocal() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Failed to initialize metadata store: ", err)
	}
	defer closeStore()

	redisClient := connectRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
		store = cache.NewCacheService(store, redisClient)
	}

	app, err := newApp(ctx, cfg, store, redisClient, logger)
	if err != nil {
		log.Fatal("Failed to initialize services: ", err)
	}
	go app.hub.Run(ctx)

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      app.routes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		logger.Info("server started", slog.String("address", cfg.HTTPServer.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	logger.Info("Server stopped")
}

// openStorage connects the metadata backend named by cfg.Metadata.Backend.
// Missing Supabase credentials are not fatal: the service boots on the
// in-memory store and the notification endpoints report the configuration
// error per request.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, func(), error) {
	switch strings.ToLower(cfg.Metadata.Backend) {
	case "", "postgres":
		pg, err := postgres.NewPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to Postgres database")
		return pg, func() { pg.Close() }, nil

	case "supabase":
		sb, err := supabase.NewStore(cfg)
		if errors.Is(err, config.ErrSupabaseMissing) {
			logger.Error("Supabase configuration missing, falling back to in-memory store")
			return memory.New(), func() {}, nil
		}
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using Supabase metadata store", slog.String("url", cfg.Supabase.URL))
		return sb, func() {}, nil

	case "memory":
		logger.Warn("Using in-memory metadata store; records are lost on restart")
		return memory.New(), func() {}, nil
	}
	return nil, nil, errors.New("unknown metadata backend " + cfg.Metadata.Backend)
}

// connectRedis returns nil when Redis is unreachable; caching and rate
// limiting are then disabled.
func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, running without cache and rate limits",
			slog.String("address", cfg.Redis.Address),
			slog.String("error", err.Error()))
		client.Close()
		return nil
	}
	logger.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))
	return client
}
