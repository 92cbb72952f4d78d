package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"
	_ "github.com/princekumarofficial/screencast-service/docs"
	"github.com/princekumarofficial/screencast-service/internal/cache"
	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/events"
	clipHandlers "github.com/princekumarofficial/screencast-service/internal/http/handlers/clips"
	notifyHandlers "github.com/princekumarofficial/screencast-service/internal/http/handlers/notify"
	"github.com/princekumarofficial/screencast-service/internal/http/handlers/users"
	"github.com/princekumarofficial/screencast-service/internal/http/handlers/viewer"
	wsHandlers "github.com/princekumarofficial/screencast-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/screencast-service/internal/http/middleware"
	"github.com/princekumarofficial/screencast-service/internal/ratelimit"
	"github.com/princekumarofficial/screencast-service/internal/services/clips"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/services/notify"
	"github.com/princekumarofficial/screencast-service/internal/services/transcode"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/utils/response"
	"github.com/princekumarofficial/screencast-service/internal/websocket"
	"github.com/princekumarofficial/screencast-service/internal/workflow"
	httpSwagger "github.com/swaggo/http-swagger"
)

type app struct {
	cfg      *config.Config
	store    storage.Storage
	redis    *redis.Client
	clips    *clips.Service
	notify   *notify.Service
	workflow *workflow.Coordinator
	hub      *websocket.Hub
	logger   *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, store storage.Storage, redisClient *redis.Client, logger *slog.Logger) (*app, error) {
	objectStore, err := media.NewObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Object storage ready",
		slog.String("driver", cfg.ObjectStorage.Driver),
		slog.String("bucket", cfg.ObjectStorage.BucketName))

	mediaService := media.NewService(objectStore, cfg.Media)
	clipService := clips.NewService(store, mediaService, logger)
	hub := websocket.NewHub()

	var transcoder notify.Transcoder
	if cfg.Transcode.Enabled {
		transcoder = transcode.NewService(mediaService, cfg.Transcode, logger)
	}

	notifier := notify.NewService(notify.Deps{
		Clips:      clipService,
		Transcoder: transcoder,
		Publisher:  events.NewEventPublisher(hub),
		Config:     cfg,
		Logger:     logger,
	})

	return &app{
		cfg:      cfg,
		store:    store,
		redis:    redisClient,
		clips:    clipService,
		notify:   notifier,
		workflow: workflow.NewCoordinator(mediaService, clipService, notifier, logger),
		hub:      hub,
		logger:   logger,
	}, nil
}

func (a *app) routes() http.Handler {
	router := http.NewServeMux()
	auth := middleware.AuthMiddleware(a.cfg.JWTSecret)
	limit := a.rateLimiter()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.RequestOK("ok", nil))
	})
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// users
	router.HandleFunc("POST /signup", users.SignUp(a.store))
	router.HandleFunc("POST /login", users.Login(a.store, a.cfg.JWTSecret))

	// dashboard
	ch := clipHandlers.NewClipHandlers(a.workflow, a.clips, a.cfg.PublicSiteURL, a.cfg.Media.MaxFileSize)
	router.Handle("POST /clips", auth(limit(ratelimit.ActionUploads, middleware.ByOwner)(ch.Upload())))
	router.Handle("GET /clips", auth(ch.List()))
	router.Handle("GET /clips/{id}", auth(ch.Get()))
	router.Handle("PATCH /clips/{id}", auth(ch.Update()))
	router.Handle("DELETE /clips/{id}", auth(ch.Delete()))
	router.Handle("POST /clips/{id}/share", auth(ch.Share()))
	router.Handle("GET /clips/{id}/embed-code", auth(ch.EmbedCode()))

	// notification trigger and processing function
	router.Handle("POST /api/send-upload-email",
		limit(ratelimit.ActionNotifications, middleware.ByClientIP)(notifyHandlers.SendUploadEmail(a.notify)))
	router.Handle("POST /functions/process-video",
		limit(ratelimit.ActionNotifications, middleware.ByClientIP)(notifyHandlers.ProcessVideo(a.notify)))

	// public viewer
	router.HandleFunc("GET /v/{short_id}", viewer.ShortLink(a.clips))
	router.HandleFunc("GET /embed/{id}", viewer.Embed(a.clips))

	// realtime
	router.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(a.hub,
		wsHandlers.NewUpgrader(a.cfg.HTTPServer.AllowedOrigins...), a.cfg.JWTSecret))

	if a.redis != nil {
		admin := middleware.RequireAdmin(a.cfg.AdminEmails)
		router.Handle("GET /admin/cache-stats", auth(admin(cache.GetCacheStats(a.redis))))
		router.Handle("POST /admin/cache-clear", auth(admin(cache.ClearCache(a.redis))))
	}

	return middleware.Chain(router, middleware.RequestLogger(a.logger))
}

// rateLimiter returns a no-op limiter when Redis is not connected.
func (a *app) rateLimiter() func(action string, key middleware.KeyFunc) func(http.Handler) http.Handler {
	if a.redis == nil {
		return func(string, middleware.KeyFunc) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler { return next }
		}
	}
	return middleware.NewRateLimitConfig(a.redis).RateLimitMiddleware
}
