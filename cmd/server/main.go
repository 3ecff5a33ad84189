package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"proptracker/server/config"
	"proptracker/server/internal/api"
	"proptracker/server/internal/database"
	"proptracker/server/internal/processor"
	"proptracker/server/internal/queue"
	"proptracker/server/internal/recompute"
	"proptracker/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := os.MkdirAll(filepath.Dir(cfg.Server.DatabasePath), 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", cfg.Server.DatabasePath)

	db, err := database.NewDatabase(cfg.Server.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	service := recompute.NewService(db, cfg, logger)

	recomputeQueue := queue.NewRecomputeQueue(cfg.BatchProcessing.QueueSize, logger)
	recomputeProcessor := processor.NewRecomputeProcessor(service, recomputeQueue, cfg, logger)
	recomputeProcessor.Start()
	recomputeQueue.Start()

	sched := scheduler.NewScheduler(logger)
	job := scheduler.NewRecomputeAllJob(service)
	if cfg.Recompute.Schedule != "" {
		if err := sched.AddJob(cfg.Recompute.Schedule, job); err != nil {
			logger.WithError(err).Fatal("Failed to schedule recompute job")
		}
	}
	sched.Start()
	if cfg.Recompute.RunOnStart {
		sched.RunOnStart(job)
	}

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(service, recomputeQueue, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	sched.Stop()
	recomputeProcessor.Stop()
	if err := recomputeQueue.Close(); err != nil {
		logger.WithError(err).Error("Failed to close recompute queue")
	}
	logger.Info("Server stopped")
}
