// @title EchoTrack API
// @version 1.0
// @description Clinical echo-imaging triage tracker.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/echotrack/echotrack-api/api/swagger"
	"github.com/echotrack/echotrack-api/internal/handler"
	"github.com/echotrack/echotrack-api/internal/middleware"
	"github.com/echotrack/echotrack-api/internal/repository"
	"github.com/echotrack/echotrack-api/internal/service"
	"github.com/echotrack/echotrack-api/pkg/cache"
	"github.com/echotrack/echotrack-api/pkg/config"
	"github.com/echotrack/echotrack-api/pkg/database"
	appLogger "github.com/echotrack/echotrack-api/pkg/logger"
	"github.com/echotrack/echotrack-api/pkg/middleware/cors"
	"github.com/echotrack/echotrack-api/pkg/middleware/requestid"
	"github.com/echotrack/echotrack-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := appLogger.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	cal, err := service.NewWorkingCalendar(cfg.Calendar)
	if err != nil {
		return fmt.Errorf("init calendar: %w", err)
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheStore service.CacheStore
	if redisClient != nil {
		cacheStore = repository.NewCacheRepository(redisClient, logger)
	}
	cacheSvc := service.NewCacheService(cacheStore, metrics, logger, cfg.Stats.CacheEnabled)

	requestRepo := repository.NewRequestRepository(db)
	statsRepo := repository.NewStatsRepository(db, cfg.Calendar.Timezone)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logger, cfg.JWT)
	requestSvc := service.NewRequestService(requestRepo, cal, cacheSvc, validate, logger)
	statsSvc := service.NewStatsService(statsRepo, cacheSvc, cal, metrics, logger, cfg.Stats)

	backupStore, err := storage.NewLocalStorage(cfg.Backup.Dir)
	if err != nil {
		return fmt.Errorf("init backup storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Backup.SignedURLSecret, cfg.Backup.SignedURLTTL)
	backupSvc := service.NewBackupService(requestRepo, backupStore, signer, metrics, logger, cal, cfg.Backup)

	if err := authSvc.EnsureAdmin(ctx, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	backupSvc.Start(ctx)
	defer backupSvc.Stop()

	router := buildRouter(cfg, logger, metrics, authSvc, requestSvc, statsSvc, backupSvc, db, redisClient)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRouter(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *service.MetricsService,
	authSvc *service.AuthService,
	requestSvc *service.RequestService,
	statsSvc *service.StatsService,
	backupSvc *service.BackupService,
	db *sqlx.DB,
	redisClient *redis.Client,
) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(appLogger.GinMiddleware(logger))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics(metrics))

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	backupHandler := handler.NewBackupHandler(backupSvc)
	metaHandler := handler.NewMetaHandler(db, redisClient, cfg.Wards)

	router.GET("/health", metaHandler.Health)
	router.GET("/ready", metaHandler.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/backups/download", backupHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.Auth(authSvc))
	{
		protected.POST("/auth/change-password", authHandler.ChangePassword)
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/requests", requestHandler.Create)
		protected.GET("/requests", requestHandler.List)
		protected.GET("/requests/export", requestHandler.Export)
		protected.POST("/requests/:id/complete", requestHandler.Complete)
		protected.POST("/requests/:id/undo", requestHandler.Undo)
		protected.PATCH("/requests/:id/field", requestHandler.UpdateField)
		protected.DELETE("/requests/:id", requestHandler.Delete)

		protected.GET("/stats/daily", statsHandler.Daily)
		protected.GET("/stats/overdue/daily", statsHandler.DailyOverdue)
		protected.GET("/stats/pending/daily", statsHandler.DailyPending)
		protected.GET("/stats/overdue/count", statsHandler.Overdue)
		protected.GET("/stats/today", statsHandler.Today)
		protected.GET("/stats/average-completion", statsHandler.AverageCompletion)

		protected.GET("/meta/wards", metaHandler.Wards)

		protected.GET("/backups", backupHandler.List)
		protected.POST("/backups", backupHandler.Trigger)
		protected.POST("/backups/:filename/token", backupHandler.Token)
	}

	return router
}
