package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/agrisentry/biosecure-api/api/swagger"
	"github.com/agrisentry/biosecure-api/internal/handler"
	"github.com/agrisentry/biosecure-api/internal/middleware"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	"github.com/agrisentry/biosecure-api/internal/repository"
	"github.com/agrisentry/biosecure-api/internal/service"
	rediscache "github.com/agrisentry/biosecure-api/pkg/cache"
	"github.com/agrisentry/biosecure-api/pkg/config"
	"github.com/agrisentry/biosecure-api/pkg/database"
	"github.com/agrisentry/biosecure-api/pkg/logger"
	corsmiddleware "github.com/agrisentry/biosecure-api/pkg/middleware/cors"
	reqidmiddleware "github.com/agrisentry/biosecure-api/pkg/middleware/requestid"
	"github.com/agrisentry/biosecure-api/pkg/storage"
)

// @title BioSecure Portal API
// @version 1.0.0
// @description Farm biosecurity compliance and surveillance portal
// @BasePath /api/v1
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

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	uploadStorage, err := storage.NewLocalStorage(cfg.Discussion.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	reportSigner := storage.NewSignedURLSigner(storage.KindReport, cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	uploadSigner := storage.NewSignedURLSigner(storage.KindDiscussionImage, cfg.Discussion.SignedURLSecret, cfg.Discussion.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	farmRepo := repository.NewFarmRepository(db)
	complianceRepo := repository.NewComplianceRepository(db)
	actionRepo := repository.NewActionRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	authService := service.NewAuthService(userRepo, farmRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "biosecure-api",
	})
	farmService := service.NewFarmService(farmRepo, userRepo, validate, logr).WithCache(cacheService)
	complianceService := service.NewComplianceService(complianceRepo, farmRepo, userRepo, logr).WithCache(cacheService)
	assessmentService := service.NewAssessmentService(assessmentRepo, farmRepo, actionRepo, alertRepo, userRepo, logr).WithCache(cacheService)
	actionService := service.NewActionService(actionRepo, userRepo, logr).WithCache(cacheService)
	alertService := service.NewAlertService(alertRepo, userRepo, logr).WithCache(cacheService)
	trainingService := service.NewTrainingService(trainingRepo, validate, logr).WithCache(cacheService)
	userService := service.NewUserService(userRepo, validate, logr).WithCache(cacheService)
	settingService := service.NewSettingService(settingRepo, userRepo, logr)
	discussionService := service.NewDiscussionService(discussionRepo, uploadStorage, uploadSigner, logr, service.DiscussionConfig{
		MaxImageSize: cfg.Discussion.MaxImageSizeByte,
		AllowedMIMEs: cfg.Discussion.AllowedMIMEs,
	})
	reportService := service.NewReportService(complianceRepo, farmRepo, reportStorage, reportSigner, userRepo, logr)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Farms:       farmRepo,
		Compliance:  complianceRepo,
		Alerts:      alertRepo,
		Actions:     actionRepo,
		Assessments: assessmentRepo,
		Trainings:   trainingRepo,
		Cache:       cacheService,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	authHandler := handler.NewAuthHandler(authService)
	farmHandler := handler.NewFarmHandler(farmService)
	complianceHandler := handler.NewComplianceHandler(complianceService)
	assessmentHandler := handler.NewAssessmentHandler(assessmentService)
	actionHandler := handler.NewActionHandler(actionService)
	alertHandler := handler.NewAlertHandler(alertService)
	discussionHandler := handler.NewDiscussionHandler(discussionService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	reportHandler := handler.NewReportHandler(reportService)
	trainingHandler := handler.NewTrainingHandler(trainingService)
	userHandler := handler.NewUserHandler(userService)
	settingHandler := handler.NewSettingHandler(settingService)
	navigationHandler := handler.NewNavigationHandler()
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	api.GET("/navigation/guard", middleware.OptionalJWT(authService), navigationHandler.Guard)

	// Signed links carry their own authorisation.
	api.GET("/discussion/images", discussionHandler.Image)
	api.GET("/reports/download", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		protected.GET("/dashboard", dashboardHandler.Me)

		farms := protected.Group("/farms")
		{
			farms.GET("", farmHandler.List)
			farms.POST("", middleware.RequireAction(policy.ActionFarmCreate), farmHandler.Create)
			farms.GET("/:id", farmHandler.Get)
			farms.PUT("/:id", middleware.RequireAction(policy.ActionFarmUpdate), farmHandler.Update)
			farms.PUT("/:id/risk", middleware.RequireAction(policy.ActionRiskUpdate), farmHandler.UpdateRisk)
			farms.DELETE("/:id", middleware.RequireAction(policy.ActionFarmDelete), farmHandler.Delete)
			farms.GET("/:id/logs", complianceHandler.ListForFarm)
			farms.GET("/:id/assessments", assessmentHandler.ListForFarm)
			farms.GET("/:id/alerts", alertHandler.ListForFarm)
		}

		logs := protected.Group("/compliance-logs")
		{
			logs.GET("", complianceHandler.List)
			logs.POST("", middleware.RequireAction(policy.ActionLogSubmit), complianceHandler.Submit)
			logs.GET("/:id", complianceHandler.Get)
			logs.PUT("/:id/review", middleware.RequireAction(policy.ActionLogReview), complianceHandler.Review)
		}

		assessments := protected.Group("/assessments")
		{
			assessments.GET("", assessmentHandler.List)
			assessments.POST("", middleware.RequireAction(policy.ActionRiskUpdate), assessmentHandler.Create)
			assessments.GET("/:id", assessmentHandler.Get)
		}

		actions := protected.Group("/actions")
		{
			actions.GET("", actionHandler.List)
			actions.PUT("/:id/complete", middleware.RequireAction(policy.ActionActionComplete), actionHandler.Complete)
		}

		alerts := protected.Group("/alerts")
		{
			alerts.GET("", alertHandler.List)
			alerts.POST("", middleware.RequireAction(policy.ActionAlertBroadcast), alertHandler.Broadcast)
			alerts.PUT("/:id/acknowledge", middleware.RequireAction(policy.ActionAlertAcknowledge), alertHandler.Acknowledge)
		}

		discussion := protected.Group("/discussion")
		{
			discussion.GET("", discussionHandler.List)
			discussion.POST("", middleware.RequireAction(policy.ActionDiscussionPost), discussionHandler.Create)
		}

		reports := protected.Group("/reports")
		{
			reports.POST("/export", middleware.RequireAction(policy.ActionReportExport), reportHandler.Export)
		}

		trainings := protected.Group("/trainings")
		{
			trainings.GET("", trainingHandler.List)
			trainings.POST("", middleware.RequireAction(policy.ActionTrainingSchedule), trainingHandler.Schedule)
		}

		users := protected.Group("/users")
		users.Use(middleware.RequireAction(policy.ActionUserManage))
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Deactivate)
		}

		settings := protected.Group("/settings")
		settings.Use(middleware.RequireRoles(models.RoleNationalAdmin))
		{
			settings.GET("", settingHandler.List)
			settings.GET("/system-metrics", metricsHandler.System)
			settings.PUT("/:key", settingHandler.Update)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
