package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-bk-api/api/swagger"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/handler"
	"github.com/noah-isme/sma-bk-api/internal/middleware"
	"github.com/noah-isme/sma-bk-api/internal/models"
	"github.com/noah-isme/sma-bk-api/internal/repository"
	"github.com/noah-isme/sma-bk-api/internal/service"
	"github.com/noah-isme/sma-bk-api/pkg/cache"
	"github.com/noah-isme/sma-bk-api/pkg/config"
	"github.com/noah-isme/sma-bk-api/pkg/database"
	"github.com/noah-isme/sma-bk-api/pkg/export"
	"github.com/noah-isme/sma-bk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-bk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-bk-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-bk-api/pkg/storage"
)

// @title SMA BK API
// @version 1.0.0
// @description Case assignment and daily ledger service for the counseling office
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
		}
	}

	teacherRepo := repository.NewTeacherRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	loc, err := time.LoadLocation(cfg.Settlement.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid settlement timezone", "timezone", cfg.Settlement.Timezone, "error", err)
	}

	defaults := models.Settings{
		DailyCaseLimit:       cfg.Assignment.DailyCaseLimit,
		ScoreTest:            cfg.Assignment.ScoreTest,
		ScoreNewBonus:        cfg.Assignment.ScoreNewBonus,
		ScoreTypeReferral:    cfg.Assignment.ScoreTypeReferral,
		ScoreTypeSupport:     cfg.Assignment.ScoreTypeSupport,
		ScoreTypeBoth:        cfg.Assignment.ScoreTypeBoth,
		BackupBonusAmount:    cfg.Assignment.BackupBonusAmount,
		AbsencePenaltyAmount: cfg.Assignment.AbsencePenaltyAmount,
	}

	state, err := service.LoadState(ctx, teacherRepo, caseRepo, settingsRepo, defaults,
		engine.WithLocation(loc),
		engine.WithLogger(logr),
	)
	if err != nil {
		logr.Sugar().Fatalw("failed to load engine state", "error", err)
	}
	guard := service.NewStateGuard(state)

	validate := validator.New()

	notifier := service.NewNotifierService(service.NewLogSender(logr), metricsSvc, logr, cfg.Notify)
	notifier.Start(ctx)
	defer notifier.Stop()

	assignmentSvc := service.NewAssignmentService(guard, caseRepo, teacherRepo, notifier, cacheSvc, metricsSvc, validate, logr)
	rosterSvc := service.NewRosterService(guard, teacherRepo, cacheSvc, metricsSvc, validate, logr)
	settingsSvc := service.NewSettingsService(guard, settingsRepo, cacheSvc, validate, logr)
	settlementSvc := service.NewSettlementService(guard, caseRepo, teacherRepo, settingsRepo, cacheSvc, metricsSvc, logr)
	reportSvc := service.NewReportService(guard, export.NewCSVExporter(), export.NewPDFExporter(), cacheSvc, logr)

	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare reports directory", "dir", cfg.Reports.Dir, "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Reports.DownloadTTL)
		reportSvc.EnableExports(store, signer)
		settlementSvc.SetReportExporter(reportSvc)

		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if removed, err := store.CleanupOlderThan(cfg.Reports.RetentionTTL); err != nil {
						logr.Sugar().Warnw("report cleanup failed", "error", err)
					} else if len(removed) > 0 {
						logr.Sugar().Infow("expired reports removed", "count", len(removed))
					}
				}
			}
		}()
	}

	if cfg.Settlement.AutoEnabled {
		settlementSvc.Start(ctx)
	}

	caseHandler := handler.NewCaseHandler(assignmentSvc)
	teacherHandler := handler.NewTeacherHandler(rosterSvc)
	settlementHandler := handler.NewSettlementHandler(settlementSvc, service.SettlementTriggerManual)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	archiveHandler := handler.NewArchiveHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	cases := api.Group("/cases")
	{
		cases.POST("", caseHandler.Intake)
		cases.GET("/pending", caseHandler.Pending)
		cases.GET("/today", caseHandler.Today)
		cases.POST("/:id/confirm", caseHandler.Confirm)
		cases.POST("/:id/reject", caseHandler.Reject)
	}

	teachers := api.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.POST("", middleware.RBAC("ADMIN", "SUPERADMIN"), teacherHandler.Create)
		teachers.PATCH("/:id/flags", middleware.RBAC("ADMIN", "SUPERADMIN"), teacherHandler.UpdateFlags)
		teachers.GET("/:id/load", teacherHandler.Load)
	}

	api.POST("/settlement/run", middleware.RBAC("ADMIN", "SUPERADMIN"), settlementHandler.Run)
	api.GET("/archive/:date", archiveHandler.Day)
	api.POST("/archive/:date/export", middleware.RBAC("ADMIN", "SUPERADMIN"), archiveHandler.Export)

	// Signed download links carry their own credential; a bearer token is
	// accepted but not required.
	r.GET("/exports/:token", middleware.OptionalJWT(cfg.JWT.Secret), archiveHandler.Download)

	settings := api.Group("/settings")
	{
		settings.GET("", settingsHandler.Get)
		settings.PUT("", middleware.RBAC("ADMIN", "SUPERADMIN"), settingsHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
