package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hrops-platform/hrops-api/api/swagger"
	"github.com/hrops-platform/hrops-api/internal/handler"
	"github.com/hrops-platform/hrops-api/internal/middleware"
	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/repository"
	"github.com/hrops-platform/hrops-api/internal/service"
	"github.com/hrops-platform/hrops-api/pkg/cache"
	"github.com/hrops-platform/hrops-api/pkg/config"
	"github.com/hrops-platform/hrops-api/pkg/database"
	"github.com/hrops-platform/hrops-api/pkg/logger"
	corsmiddleware "github.com/hrops-platform/hrops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hrops-platform/hrops-api/pkg/middleware/requestid"
)

// @title HR Ops API
// @version 0.1.0
// @description Hiring requisition and IT asset lifecycle platform
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, cache and redis sequences disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobPostingRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var counter interface {
		Next(ctx context.Context, class models.EntityClass, year int) (int64, error)
	}
	switch cfg.Sequences.Backend {
	case "redis":
		if redisClient == nil {
			logr.Sugar().Fatalw("SEQUENCE_BACKEND=redis requires a reachable redis instance")
		}
		counter = repository.NewRedisSequenceRepository(redisClient)
	default:
		counter = repository.NewSequenceRepository(db)
	}

	sequenceSvc := service.NewSequenceService(counter, cfg.Sequences.Timeout, metrics, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.DefaultTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, metrics, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hrops-api",
		MaxLoginAttempts:   cfg.Lockout.MaxAttempts,
		LockDuration:       cfg.Lockout.LockDuration,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	jobSvc := service.NewJobPostingService(jobRepo, sequenceSvc, cacheSvc, metrics, validate, logr)
	assetSvc := service.NewAssetService(assetRepo, sequenceSvc, cacheSvc, metrics, validate, logr)
	exportSvc := service.NewExportService(jobRepo, assetRepo, nil, nil, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Revaluation.Enabled {
		revaluationSvc := service.NewRevaluationService(assetRepo, service.RevaluationConfig{
			Interval:  cfg.Revaluation.Interval,
			Workers:   cfg.Revaluation.Workers,
			BatchSize: cfg.Revaluation.BatchSize,
		}, logr)
		revaluationSvc.Start(ctx)
		defer revaluationSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	jobHandler := handler.NewJobPostingHandler(jobSvc)
	assetHandler := handler.NewAssetHandler(assetSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		manageUsers := middleware.RequirePermission(func(p models.Permissions) bool { return p.CanManageUsers })
		users.GET("", manageUsers, userHandler.List)
		users.GET("/:id", manageUsers, userHandler.Get)
		users.POST("", manageUsers, userHandler.Create)
		users.PUT("/:id", manageUsers, userHandler.Update)
		users.DELETE("/:id", manageUsers, userHandler.Delete)
	}

	jobs := api.Group("/job-postings", middleware.JWT(authSvc))
	{
		jobs.GET("", jobHandler.List)
		jobs.GET("/overdue", jobHandler.Overdue)
		jobs.GET("/procurement-queue", middleware.RequirePermission(func(p models.Permissions) bool {
			return p.CanAccessProcurement || p.CanApproveJobs
		}), jobHandler.ProcurementQueue)
		jobs.GET("/by-job-id/:jobId", jobHandler.GetByJobID)
		jobs.GET("/:id", jobHandler.Get)
		jobs.POST("", middleware.RequirePermission(func(p models.Permissions) bool { return p.CanCreateJobs }), jobHandler.Create)
		jobs.POST("/:id/transition", jobHandler.Transition)
	}

	assets := api.Group("/assets", middleware.JWT(authSvc))
	{
		manageAssets := middleware.RequirePermission(func(p models.Permissions) bool { return p.CanManageAssets })
		assets.GET("", assetHandler.List)
		assets.GET("/maintenance-due", assetHandler.MaintenanceDue)
		assets.GET("/expiring-warranties", assetHandler.ExpiringWarranties)
		assets.GET("/by-asset-id/:assetId", assetHandler.GetByAssetID)
		assets.GET("/:id", assetHandler.Get)
		assets.POST("", manageAssets, assetHandler.Create)
		assets.POST("/:id/transition", assetHandler.Transition)
		assets.PUT("/:id/financials", manageAssets, assetHandler.UpdateFinancials)
		assets.POST("/:id/maintenance", manageAssets, assetHandler.AddMaintenance)
		assets.PUT("/:id/condition", manageAssets, assetHandler.UpdateCondition)
	}

	exports := api.Group("/exports", middleware.JWT(authSvc), middleware.RequirePermission(func(p models.Permissions) bool {
		return p.CanViewReports
	}))
	{
		exports.GET("/assets", exportHandler.AssetRegister)
		exports.GET("/job-postings", exportHandler.JobPostings)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
