package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/storage/postgres"
	"github.com/princekumarofficial/screencast-service/internal/storage/supabase"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store storage.Storage
	if cfg.Metadata.Backend == "supabase" {
		sb, err := supabase.NewStore(cfg)
		if err != nil {
			log.Fatal("Failed to initialize Supabase store: ", err)
		}
		store = sb
	} else {
		pg, err := postgres.NewPostgres(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize database: ", err)
		}
		defer pg.Close()
		store = pg
	}
	logger.Info("Connected to metadata store", "backend", cfg.Metadata.Backend)

	objectStore, err := media.NewObjectStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize object storage: ", err)
	}

	sweeper := NewOrphanSweeper(store, media.NewService(objectStore, cfg.Media),
		cfg.Sweeper.Interval, cfg.Sweeper.BatchSize, logger)
	sweeper.Start(ctx)

	logger.Info("Orphan sweeper stopped")
}
