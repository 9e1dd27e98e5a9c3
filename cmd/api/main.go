package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/scolaris/recouvrement-api/api/swagger"
	"github.com/scolaris/recouvrement-api/internal/handler"
	"github.com/scolaris/recouvrement-api/internal/middleware"
	"github.com/scolaris/recouvrement-api/internal/models"
	"github.com/scolaris/recouvrement-api/internal/repository"
	"github.com/scolaris/recouvrement-api/internal/service"
	"github.com/scolaris/recouvrement-api/pkg/cache"
	"github.com/scolaris/recouvrement-api/pkg/config"
	"github.com/scolaris/recouvrement-api/pkg/database"
	"github.com/scolaris/recouvrement-api/pkg/export"
	"github.com/scolaris/recouvrement-api/pkg/logger"
	corsmiddleware "github.com/scolaris/recouvrement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scolaris/recouvrement-api/pkg/middleware/requestid"
)

// @title Recouvrement API
// @version 1.0.0
// @description School fee recovery: ledger aggregation, solvency tiers and notification campaigns
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Warnw("redis unavailable, summary caching disabled", "error", err)
		redisClient = nil
	}

	defaultElevated, err := decimal.NewFromString(cfg.Recouvrement.DefaultElevatedThreshold)
	if err != nil {
		logr.Sugar().Fatalw("invalid default elevated threshold", "error", err)
	}
	defaultCritical, err := decimal.NewFromString(cfg.Recouvrement.DefaultCriticalThreshold)
	if err != nil {
		logr.Sugar().Fatalw("invalid default critical threshold", "error", err)
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	parameterRepo := repository.NewParameterRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	feeSvc := service.NewFeeService(feeRepo, studentRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, feeRepo, studentRepo, cacheRepo, validate, logr)
	ledgerSvc := service.NewLedgerService(ledgerRepo, studentRepo, feeRepo, logr)
	solvencySvc := service.NewSolvencyService(parameterRepo, ledgerSvc, defaultElevated, defaultCritical, logr)
	campaignSvc := service.NewCampaignService(campaignRepo, studentRepo, cacheRepo, validate, logr, cfg.Campaigns.MaxRecipients)
	parameterSvc := service.NewParameterService(parameterRepo, logr)
	summarySvc := service.NewSummaryService(ledgerSvc, solvencySvc, cacheRepo, cfg.Summary.CacheTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc, solvencySvc, export.NewCSVExporter(), export.NewPDFExporter())
	campaignHandler := handler.NewCampaignHandler(campaignSvc, metricsSvc)
	parameterHandler := handler.NewParameterHandler(parameterSvc)
	summaryHandler := handler.NewSummaryHandler(summarySvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	staff := []models.UserRole{models.RoleAdmin, models.RoleBursar}

	fees := authed.Group("/fees")
	{
		fees.GET("", feeHandler.List)
		fees.GET("/:id", feeHandler.Get)
		fees.POST("", middleware.RequireRoles(staff...), middleware.Audit(userRepo, models.AuditActionCreate, "fee_definition"), feeHandler.Create)
		fees.PUT("/:id", middleware.RequireRoles(staff...), middleware.Audit(userRepo, models.AuditActionUpdate, "fee_definition"), feeHandler.Update)
		fees.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionCancel, "fee_definition"), feeHandler.Deactivate)
	}

	payments := authed.Group("/payments")
	{
		payments.GET("", paymentHandler.List)
		payments.POST("", middleware.RequireRoles(staff...), middleware.Audit(userRepo, models.AuditActionCreate, "payment"), paymentHandler.Record)
		payments.POST("/:id/complete", middleware.RequireRoles(staff...), middleware.Audit(userRepo, models.AuditActionUpdate, "payment"), paymentHandler.Complete)
		payments.POST("/:id/cancel", middleware.RequireRoles(staff...), middleware.Audit(userRepo, models.AuditActionCancel, "payment"), paymentHandler.Cancel)
	}

	authed.GET("/students/:id/debt", ledgerHandler.StudentDebt)
	authed.GET("/classes/:id/debtors", ledgerHandler.ClassDebtors)
	authed.GET("/classes/:id/debtors/export", ledgerHandler.ExportDebtors)
	authed.GET("/classes/:id/summary", summaryHandler.ClassSummary)

	campaigns := authed.Group("/campaigns")
	{
		campaigns.GET("", campaignHandler.List)
		campaigns.GET("/:id", campaignHandler.Get)
		campaigns.GET("/:id/recipients", campaignHandler.Recipients)
		campaigns.GET("/:id/progress", campaignHandler.Progress)
		campaigns.POST("", middleware.RequireRoles(staff...), middleware.Audit(userRepo, models.AuditActionCreateCampaign, "campaign"), campaignHandler.Create)
		campaigns.POST("/:id/recipients/:studentId/sent", middleware.RequireRoles(staff...), campaignHandler.MarkSent)
		campaigns.POST("/:id/recipients/:studentId/failed", middleware.RequireRoles(staff...), campaignHandler.MarkFailed)
	}

	parameters := authed.Group("/parameters")
	{
		parameters.GET("", parameterHandler.List)
		parameters.PUT("/:key", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionUpdate, "parameter"), parameterHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
