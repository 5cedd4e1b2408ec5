package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/psychodraw/api/swagger"
	"github.com/noah-isme/psychodraw/internal/handler"
	internalmiddleware "github.com/noah-isme/psychodraw/internal/middleware"
	"github.com/noah-isme/psychodraw/internal/repository"
	"github.com/noah-isme/psychodraw/internal/service"
	"github.com/noah-isme/psychodraw/pkg/cache"
	"github.com/noah-isme/psychodraw/pkg/config"
	"github.com/noah-isme/psychodraw/pkg/jobs"
	"github.com/noah-isme/psychodraw/pkg/logger"
	"github.com/noah-isme/psychodraw/pkg/media"
	corsmiddleware "github.com/noah-isme/psychodraw/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/psychodraw/pkg/middleware/requestid"
	"github.com/noah-isme/psychodraw/pkg/storage"
)

// @title Psychodraw Wizard API
// @version 0.1.0
// @description Three-step wizard: drawing uploads, child questionnaire, psychological report.
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	reports := service.NewReportService(nil, cfg.Reports.CacheTTL, logr)
	var cachePinger handler.Pinger
	if cfg.Reports.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("report cache disabled: redis unreachable", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "psychodraw:", logr)
			defer repo.Close() //nolint:errcheck
			cacheSvc := service.NewCacheService(repo, metricsSvc, cfg.Reports.CacheTTL, logr, true)
			reports = service.NewReportService(cacheSvc, cfg.Reports.CacheTTL, logr)
			cachePinger = repo
		}
	}

	blobs := storage.NewMemoryStorage()
	signer := storage.NewSignedURLSigner(cfg.Previews.SignedURLSecret, cfg.Previews.SignedURLTTL)
	policy := service.NewValidationPolicy(cfg.Uploads.MaxFileSizeBytes)

	deps := service.WizardDeps{
		Policy:      policy,
		Blobs:       blobs,
		Signer:      signer,
		PreviewPath: "/previews",
		Metrics:     metricsSvc,
		Logger:      logr,
	}
	if cfg.Previews.EnableThumbnails {
		deps.Renderer = media.NewThumbnailer(cfg.Previews.MaxWidth)
	}

	sessions := service.NewSessionService(service.NewWizardFactory(deps), signer, blobs, metricsSvc, logr, service.SessionServiceConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		MaxAge: cfg.Session.MaxAge,
	})

	teardown := jobs.NewQueue("session-teardown", sessions.HandleTeardown, jobs.QueueConfig{
		Workers:    cfg.Session.JanitorWorkers,
		MaxRetries: 1,
		Logger:     logr,
	})
	teardown.Start(ctx)
	sessions.UseQueue(teardown)
	go sessions.RunJanitor(ctx, cfg.Session.CleanupInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	routes := handler.Routes{
		Wizard: handler.NewWizardHandler(sessions, reports, handler.CookieOptions{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.MaxAge,
			Secure: cfg.Env == config.EnvProduction,
		}, policy.MaxFileSize(), logr),
		Preview: handler.NewPreviewHandler(sessions, cfg.Session.CookieName),
		Metrics: handler.NewMetricsHandler(metricsSvc, cachePinger, logr),
		Session: internalmiddleware.Session(sessions, cfg.Session.CookieName),
	}
	routes.Register(r, r.Group(cfg.APIPrefix))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	teardown.Stop()
	sessions.Shutdown()
}
