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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusplan/timetable-api/api/swagger"
	"github.com/campusplan/timetable-api/internal/handler"
	"github.com/campusplan/timetable-api/internal/ilp"
	"github.com/campusplan/timetable-api/internal/middleware"
	"github.com/campusplan/timetable-api/internal/repository"
	"github.com/campusplan/timetable-api/internal/service"
	"github.com/campusplan/timetable-api/internal/solver"
	"github.com/campusplan/timetable-api/pkg/cache"
	"github.com/campusplan/timetable-api/pkg/config"
	"github.com/campusplan/timetable-api/pkg/jobs"
	"github.com/campusplan/timetable-api/pkg/logger"
	corsmiddleware "github.com/campusplan/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusplan/timetable-api/pkg/middleware/requestid"
)

// @title CampusPlan Timetable API
// @version 1.0.0
// @description Course scheduling service. Solves room and timeslot assignments with an ILP optimizer, preferring morning slots and spread-out instructor schedules.
// @BasePath /v1
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

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer client.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(client, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
	}

	engine := ilp.NewGophersatEngine(logr)
	core := solver.New(engine,
		solver.WithPenaltyLinking(cfg.Solver.LinkBackToBackPenalties),
		solver.WithLogger(logr),
	)

	solveSvc := service.NewSolveService(core, cacheSvc, metricsSvc, nil, logr, service.SolveServiceConfig{
		MaxConcurrent: cfg.Solver.MaxConcurrent,
	})

	var jobSvc *service.JobService
	if cfg.Jobs.Enabled {
		jobSvc = service.NewJobService(solveSvc, nil, nil, logr, service.JobServiceConfig{
			ResultTTL: cfg.Jobs.ResultTTL,
		})
		queue := jobs.NewQueue("solve", jobSvc.Handle, jobs.QueueConfig{
			Workers:    cfg.Jobs.Workers,
			BufferSize: cfg.Jobs.QueueSize,
			Logger:     logr,
		})
		jobSvc.AttachQueue(queue)
		queue.Start(ctx)
		defer queue.Stop()
		jobSvc.StartCleanup(ctx)
	}

	var exportSvc *service.ExportService
	if cfg.Export.Enabled {
		exportSvc = service.NewExportService(solveSvc, nil, nil, logr)
	}

	solveHandler := handler.NewSolveHandler(solveSvc, jobSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Auth.Enabled {
		api.Use(middleware.JWT(service.NewAuthService(cfg.Auth)))
	}
	api.POST("/schedule/solve", solveHandler.Solve)
	if cfg.Jobs.Enabled {
		api.POST("/schedule/solve/async", solveHandler.SolveAsync)
		api.GET("/schedule/jobs/:id", solveHandler.JobStatus)
	}
	if cfg.Export.Enabled {
		api.POST("/schedule/export", exportHandler.Export)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
