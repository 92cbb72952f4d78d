package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/storage"
)

// Remover deletes objects from the bucket.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// OrphanSweeper retries removal of objects that lost their record, either
// because record creation failed after upload or because a delete could not
// remove the object.
type OrphanSweeper struct {
	storage   storage.Storage
	objects   Remover
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewOrphanSweeper(store storage.Storage, objects Remover, interval time.Duration, batchSize int, logger *slog.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		storage:   store,
		objects:   objects,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (s *OrphanSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Orphan sweeper started", "interval", s.interval.String())

	// Run once immediately on startup
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Orphan sweeper shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep handles one batch and returns how many objects were removed.
func (s *OrphanSweeper) sweep(ctx context.Context) int {
	startTime := time.Now()

	orphans, err := s.storage.ListOrphans(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to list orphaned objects",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return 0
	}

	removed := 0
	for _, o := range orphans {
		if ctx.Err() != nil {
			break
		}

		err := s.objects.Remove(ctx, o.ObjectKey)
		if err != nil && !errors.Is(err, media.ErrObjectNotFound) {
			s.logger.Warn("Failed to remove orphaned object",
				"object_key", o.ObjectKey,
				"attempts", o.Attempts+1,
				"error", err.Error())
			if err := s.storage.MarkOrphanAttempt(ctx, o.ObjectKey); err != nil {
				s.logger.Error("Failed to record attempt", "object_key", o.ObjectKey, "error", err.Error())
			}
			continue
		}

		if err := s.storage.ResolveOrphan(ctx, o.ObjectKey); err != nil {
			s.logger.Error("Failed to resolve orphan", "object_key", o.ObjectKey, "error", err.Error())
			continue
		}
		removed++
	}

	duration := time.Since(startTime)
	s.logger.Info("Completed orphan sweep",
		"candidates", len(orphans),
		"removed", removed,
		"duration_ms", duration.Milliseconds())
	return removed
}
