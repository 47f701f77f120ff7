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

	"github.com/timmy/vodhub/internal/api"
	"github.com/timmy/vodhub/internal/config"
	"github.com/timmy/vodhub/internal/loader"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/repository"
	"github.com/timmy/vodhub/internal/service"
	"github.com/timmy/vodhub/internal/source/cms"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	gateway := cms.NewGateway(&cms.Config{
		Timeout:    cfg.Gateway.Timeout,
		RetryCount: cfg.Gateway.RetryCount,
		UserAgent:  cfg.Gateway.UserAgent,
	}, cfg.SourceSites())

	sites := gateway.Sites()
	if len(sites) == 0 {
		appLogger.Warn("No enabled video sources configured")
	}
	for _, s := range sites {
		appLogger.WithFields(logger.Fields{
			logger.FieldSource: s.Key,
			"api":              s.API,
			"rate_limit":       s.RateLimit,
		}).Info("Video source enabled")
	}

	catalogService := service.NewCatalogService(gateway, &service.CatalogConfig{
		HomeLimit:   cfg.Loader.HomeLimit,
		HomeSources: cfg.Loader.HomeSources,
		FeedSource:  cfg.Feed.Source,
		CategoryMap: cfg.Feed.CategoryMap,
	})
	sessionService := service.NewSessionService(gateway, service.SessionConfig{
		MaxSessions:   cfg.Session.MaxSessions,
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		Loader: loader.Config{
			PageSize:     cfg.Loader.PageSize,
			FetchTimeout: cfg.Loader.FetchTimeout,
		},
	})
	libraryService := service.NewLibraryService(
		repository.NewFavoriteRepository(db),
		repository.NewPlayRecordRepository(db),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go sessionService.Run(ctx)

	router := api.SetupRouter(api.Services{
		Catalog:  catalogService,
		Sessions: sessionService,
		Library:  libraryService,
		PageSize: cfg.Loader.PageSize,
	}, &cfg.Server, appLogger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	stop()
	sessionService.CloseAll()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("Server exited")
}
