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

	_ "github.com/geulbit/geulbit-api/api/swagger"
	"github.com/geulbit/geulbit-api/internal/handler"
	"github.com/geulbit/geulbit-api/internal/middleware"
	"github.com/geulbit/geulbit-api/internal/models"
	"github.com/geulbit/geulbit-api/internal/repository"
	"github.com/geulbit/geulbit-api/internal/service"
	"github.com/geulbit/geulbit-api/pkg/cache"
	"github.com/geulbit/geulbit-api/pkg/config"
	"github.com/geulbit/geulbit-api/pkg/database"
	"github.com/geulbit/geulbit-api/pkg/jobs"
	"github.com/geulbit/geulbit-api/pkg/logger"
	corsmiddleware "github.com/geulbit/geulbit-api/pkg/middleware/cors"
	reqidmiddleware "github.com/geulbit/geulbit-api/pkg/middleware/requestid"
	"github.com/geulbit/geulbit-api/pkg/storage"
)

// @title Geulbit API
// @version 1.0.0
// @description Classroom writing missions and point ledger service
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, balance cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	pointLogRepo := repository.NewPointLogRepository(db)
	missionRepo := repository.NewMissionRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	cacheClient := redisClient
	if !cfg.Cache.Enabled {
		cacheClient = nil
	}
	cacheRepo := repository.NewCacheRepository(cacheClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "geulbit-api",
	})
	classSvc := service.NewClassService(classRepo, validate, logr, service.ClassServiceConfig{
		InviteCodeLength: cfg.Ledger.InviteCodeLen,
		CodeAttempts:     cfg.Ledger.CodeAttempts,
	})
	studentSvc := service.NewStudentService(studentRepo, classRepo, authSvc, validate, logr, service.StudentServiceConfig{
		CodeLength:   cfg.Ledger.StudentCodeLen,
		CodeAttempts: cfg.Ledger.CodeAttempts,
	})
	ledgerSvc := service.NewLedgerService(pointLogRepo, studentRepo, classRepo, cacheRepo, metrics, logr, service.LedgerServiceConfig{
		MaxBatchSize: cfg.Ledger.MaxBatchSize,
		MaxAbsAmount: cfg.Ledger.MaxAbsAmount,
		CacheTTL:     cfg.Cache.BalanceTTL,
	})
	missionSvc := service.NewMissionService(missionRepo, classRepo, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rosterSvc *service.RosterService
	if cfg.Exports.Enabled {
		localStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewRosterExportService(studentRepo, classRepo, localStore, signer, service.RosterExportConfig{
			APIPrefix:   cfg.APIPrefix,
			ResultTTL:   cfg.Exports.SignedURLTTL,
			PDFFontPath: cfg.Exports.PDFFontPath,
		}, logr)
		worker := service.NewRosterWorker(exportJobRepo, exporter, metrics, cfg.Exports.WorkerRetries, logr)
		queue := jobs.NewQueue("roster-exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		rosterSvc = service.NewRosterService(exportJobRepo, classRepo, queue, exporter, logr, service.RosterServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})
		rosterSvc.RecoverPendingJobs(ctx)
		rosterSvc.StartCleanup(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	pointHandler := handler.NewPointHandler(ledgerSvc)
	missionHandler := handler.NewMissionHandler(missionSvc)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		}

		api.POST("/students/login", studentHandler.LoginByCode)
		api.GET("/classes/invite/:code", classHandler.LookupInvite)

		teacherOnly := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)

		classes := api.Group("/classes", middleware.JWT(authSvc), teacherOnly)
		{
			classes.POST("", classHandler.Create)
			classes.GET("/mine", classHandler.Mine)
		}

		students := api.Group("/students", middleware.JWT(authSvc))
		{
			students.POST("", teacherOnly, studentHandler.Add)
			students.GET("", teacherOnly, studentHandler.List)
			students.GET("/:id", teacherOnly, studentHandler.Get)
			students.DELETE("/:id", teacherOnly, studentHandler.Remove)

			selfOrTeacher := middleware.SelfOrRoles(models.RoleTeacher, models.RoleAdmin)
			students.GET("/:id/balance", selfOrTeacher, pointHandler.Balance)
			students.GET("/:id/history", selfOrTeacher, pointHandler.History)
			students.POST("/:id/reconcile", teacherOnly, pointHandler.Reconcile)
		}

		api.POST("/points/adjust", middleware.JWT(authSvc), teacherOnly, pointHandler.Adjust)

		missions := api.Group("/missions", middleware.JWT(authSvc))
		{
			missions.POST("", teacherOnly, missionHandler.Create)
			missions.GET("", missionHandler.List)
			missions.GET("/:id", missionHandler.Get)
			missions.DELETE("/:id", teacherOnly, missionHandler.Delete)
		}

		if rosterSvc != nil {
			rosterHandler := handler.NewRosterHandler(rosterSvc)
			api.GET("/roster-exports/download/:token", rosterHandler.Download)
			rosters := api.Group("/roster-exports", middleware.JWT(authSvc), teacherOnly)
			{
				rosters.POST("", rosterHandler.Export)
				rosters.GET("/:id", rosterHandler.Status)
			}
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
