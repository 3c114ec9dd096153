package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learnloop/learnloop-backend/internal/app"
	"github.com/learnloop/learnloop-backend/internal/data/db"
	"github.com/learnloop/learnloop-backend/internal/data/repos"
	httpapi "github.com/learnloop/learnloop-backend/internal/http"
	httpH "github.com/learnloop/learnloop-backend/internal/http/handlers"
	httpMW "github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/jobs"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
	"github.com/learnloop/learnloop-backend/internal/platform/sendgrid"
	"github.com/learnloop/learnloop-backend/internal/services"
	"github.com/learnloop/learnloop-backend/internal/sources"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg := app.LoadConfig(log)

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(gdb, log)
	settingsRepo := repos.NewUserSettingsRepo(gdb, log)
	tagRepo := repos.NewTagRepo(gdb, log)
	contentRepo := repos.NewContentItemRepo(gdb, log)
	interestRepo := repos.NewUserInterestRepo(gdb, log)
	searchRepo := repos.NewSearchQueryRepo(gdb, log)
	progressRepo := repos.NewUserProgressRepo(gdb, log)
	favoriteRepo := repos.NewFavoriteContentRepo(gdb, log)

	// Content sources
	var srcs []sources.Source
	if cfg.YouTubeEnabled {
		srcs = append(srcs, sources.NewYouTubeSource(cfg.YouTubeAPIKey, log))
	}
	if cfg.HabrEnabled {
		srcs = append(srcs, sources.NewHabrSource(log))
	}
	if cfg.CourseraEnabled {
		srcs = append(srcs, sources.NewCourseraSource(cfg.CourseraAPIKey, log))
	}

	// Mailer is optional; digests degrade to no-op sends without it.
	mailer, err := sendgrid.NewFromEnv(log)
	if err != nil {
		log.Warn("SendGrid unavailable, email digests disabled", "error", err)
		mailer = nil
	}

	// Services
	log.Info("Setting up services...")
	authService := services.NewAuthService(gdb, log, userRepo, settingsRepo, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	userService := services.NewUserService(gdb, log, userRepo, settingsRepo)
	interestService := services.NewInterestService(gdb, log, interestRepo, searchRepo, cfg.MaxInterestKeywords)
	aggregatorService := services.NewAggregatorService(gdb, log, contentRepo, tagRepo, interestService, srcs, cfg.MaxInterestKeywords, cfg.MaxPerSource)
	digestService := services.NewDigestService(gdb, log, contentRepo, progressRepo, settingsRepo, interestService, mailer, cfg.MaxInterestKeywords)
	recommenderService := services.NewRecommenderService(gdb, log, contentRepo, progressRepo, favoriteRepo, interestRepo)
	progressService := services.NewProgressService(gdb, log, contentRepo, progressRepo, favoriteRepo, interestService)
	schedulerService := services.NewSchedulerService(gdb, log, settingsRepo, aggregatorService, digestService, cfg.ContentUpdateIntervalHours, cfg.DigestMaxItems)

	// Handlers
	log.Info("Setting up handlers...")
	healthHandler := httpH.NewHealthHandler()
	authHandler := httpH.NewAuthHandler(authService)
	userHandler := httpH.NewUserHandler(userService)
	interestHandler := httpH.NewInterestHandler(interestService, recommenderService)
	contentHandler := httpH.NewContentHandler(aggregatorService, interestService, cfg.SearchMaxResults)
	digestHandler := httpH.NewDigestHandler(digestService, cfg.DigestMaxItems)
	recommendationHandler := httpH.NewRecommendationHandler(recommenderService, cfg.MaxRecommendations)
	progressHandler := httpH.NewProgressHandler(progressService)
	authMiddleware := httpMW.NewAuthMiddleware(log, authService)

	server := httpapi.NewServer(httpapi.RouterConfig{
		Log:                   log,
		AuthHandler:           authHandler,
		AuthMiddleware:        authMiddleware,
		UserHandler:           userHandler,
		InterestHandler:       interestHandler,
		ContentHandler:        contentHandler,
		DigestHandler:         digestHandler,
		RecommendationHandler: recommendationHandler,
		ProgressHandler:       progressHandler,
		HealthHandler:         healthHandler,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background jobs
	jobScheduler := jobs.NewScheduler(log, schedulerService, cfg.SchedulerSpec)
	if err := jobScheduler.Start(ctx); err != nil {
		log.Fatal("Scheduler start failed", "error", err)
	}

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Engine}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		jobScheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
	}
	log.Info("Shutdown complete")
}
