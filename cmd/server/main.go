package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/fitness-sync/internal/api"
	"alcyxob/fitness-sync/internal/config"
	localstore "alcyxob/fitness-sync/internal/repository/badger"
	"alcyxob/fitness-sync/internal/repository/mongo"
	"alcyxob/fitness-sync/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	logger.Info("starting fitness sync server")

	cfg, err := config.Load(".")
	if err != nil {
		logger.Error("could not load config", "error", err)
		os.Exit(1)
	}

	// --- Cloud store ---
	dbClient, err := mongo.ConnectDB(cfg.Cloud.URI, cfg.Cloud.ConnectTimeout)
	if err != nil {
		logger.Error("could not connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", "error", err)
		}
	}()
	cloudDB := dbClient.Database(cfg.Cloud.Name)
	logger.Info("cloud store connected", "database", cfg.Cloud.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, cloudDB); err != nil {
			logger.Warn("index creation failed", "error", err)
		}
	}()

	// --- Local store ---
	localCfg := localstore.DefaultConfig(cfg.Local.Path)
	localCfg.InMemory = cfg.Local.InMemory
	localCfg.Logger = logger
	localDB, err := localstore.Open(localCfg)
	if err != nil {
		logger.Error("could not open local store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := localDB.Close(); err != nil {
			logger.Error("failed to close local store", "error", err)
		}
	}()

	// --- Repositories ---
	moduleRepo := localstore.NewModuleRepository(localDB)
	workoutRepo := localstore.NewWorkoutRepository(localDB)
	sessionRepo := localstore.NewSessionRepository(localDB)
	programRepo := localstore.NewProgramRepository(localDB)
	exerciseRepo := localstore.NewCustomExerciseRepository(localDB)
	decisionRepo := localstore.NewDecisionRepository(localDB)
	deletionRepo := localstore.NewDeletionRecordRepository(localDB)
	remoteStore := mongo.NewRemoteStore(cloudDB, cfg.Cloud.UserID)

	// --- Services ---
	tracker, err := service.NewDeletionTracker(context.Background(), deletionRepo, logger)
	if err != nil {
		logger.Error("could not load deletion journal", "error", err)
		os.Exit(1)
	}
	syncService := service.NewSyncService(service.SyncServiceDeps{
		Modules:   moduleRepo,
		Workouts:  workoutRepo,
		Sessions:  sessionRepo,
		Programs:  programRepo,
		Exercises: exerciseRepo,
		Remote:    remoteStore,
		Tracker:   tracker,
		Logger:    logger,
	})
	engine := service.NewProgressionEngine(logger)
	planner := service.NewProgressionPlanner(
		workoutRepo, moduleRepo, programRepo, sessionRepo,
		engine, cfg.Sync.SessionWindowDays, logger,
	)
	recorder := service.NewOutcomeRecorder(sessionRepo, programRepo, decisionRepo, engine, logger)

	// --- Background sync ticker ---
	tickerDone := make(chan struct{})
	if cfg.Sync.Interval > 0 {
		ticker := time.NewTicker(cfg.Sync.Interval)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := syncService.Sync(context.Background()); err != nil &&
						!errors.Is(err, service.ErrSyncInProgress) {
						logger.Warn("scheduled sync failed", "error", err)
					}
				case <-tickerDone:
					return
				}
			}
		}()
	}

	// --- HTTP surface ---
	router := gin.Default()
	api.SetupRoutes(router,
		api.NewSyncHandler(syncService),
		api.NewProgressionHandler(planner, recorder),
		api.NewAnalyticsHandler(service.NewAnalyticsService(), sessionRepo, decisionRepo, 30),
	)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	close(tickerDone)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exiting")
}
