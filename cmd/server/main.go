// Package main runs the webinar platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lumenlive/backend/config"
	"github.com/lumenlive/backend/internal/announcements"
	"github.com/lumenlive/backend/internal/auth"
	"github.com/lumenlive/backend/internal/events"
	"github.com/lumenlive/backend/internal/inbox"
	"github.com/lumenlive/backend/internal/live"
	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/notifications"
	"github.com/lumenlive/backend/internal/recordings"
	"github.com/lumenlive/backend/internal/registrations"
	"github.com/lumenlive/backend/pkg/database"
	"github.com/lumenlive/backend/pkg/queue"
	"github.com/lumenlive/backend/pkg/redis"
	"github.com/lumenlive/backend/pkg/response"
	"github.com/lumenlive/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RecordingsBucket:     cfg.AWS.RecordingsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Notifications
	notificationRepo := notifications.NewRepository(pool)
	notificationService := notifications.NewService(notificationRepo, logger)
	notificationHandler := notifications.NewHandler(notificationRepo)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, eventRepo, notificationService, logger)

	// Live sessions
	liveRepo := live.NewRepository(pool)
	liveHandler := live.NewHandler(liveRepo, eventRepo, registrationRepo, notificationService, logger)

	// Inbox
	inboxRepo := inbox.NewRepository(pool)
	inboxHandler := inbox.NewHandler(inboxRepo, authRepo, notificationService, logger)

	// Announcements (fan-out happens in the worker)
	announcementRepo := announcements.NewRepository(pool)
	announcementHandler := announcements.NewHandler(announcementRepo, jobQueue, logger)

	// Recordings
	recordingRepo := recordings.NewRepository(pool)
	recordingHandler := recordings.NewHandler(recordingRepo, eventRepo, registrationRepo, notificationService, jobQueue, s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Live status is public so landing pages can poll it.
	router.GET("/live/status/:id", liveHandler.Status)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only; for messaging and speaker lookup)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireRole("admin"), eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/mark-completed", middleware.RequireRole("admin"), eventHandler.MarkCompleted)

		// Registrations
		api.POST("/events/:id/register", registrationHandler.Register)
		api.GET("/events/:id/registrations", registrationHandler.ListByEvent)
		api.GET("/registrations", registrationHandler.ListMine)
		api.DELETE("/registrations/:id", registrationHandler.Cancel)

		// Live sessions
		api.POST("/live/start/:id", liveHandler.Start)
		api.GET("/live/join/:id", liveHandler.Join)
		api.POST("/live/end/:id", liveHandler.End)
		api.GET("/live/analytics", middleware.RequireRole("admin"), liveHandler.Analytics)

		// Inbox
		api.GET("/inbox/conversations", inboxHandler.ListConversations)
		api.GET("/inbox/messages/:id", inboxHandler.ListMessages)
		api.POST("/inbox/send", inboxHandler.Send)
		api.POST("/inbox/mark-read/:id", inboxHandler.MarkRead)

		// Notifications
		api.GET("/notifications", notificationHandler.List)
		api.GET("/notifications/unread", notificationHandler.ListUnread)
		api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		api.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)

		// Announcements
		api.POST("/announcements", middleware.RequireRole("admin"), announcementHandler.Create)
		api.GET("/announcements", announcementHandler.List)
		api.GET("/announcements/recent", announcementHandler.Recent)

		// Recordings
		api.POST("/events/:id/recordings", recordingHandler.Create)
		api.GET("/events/:id/recordings", recordingHandler.ListByEvent)
		api.GET("/recordings/:id/download-url", recordingHandler.DownloadURL)
		api.DELETE("/recordings/:id", recordingHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
