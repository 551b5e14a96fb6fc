package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/api"
	"github.com/yourusername/ytgrab/internal/app"
	"github.com/yourusername/ytgrab/internal/domain"
	"github.com/yourusername/ytgrab/internal/infrastructure"
	"github.com/yourusername/ytgrab/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting ytgrab server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Bool("cloud_mode", config.Storage.CloudMode))

	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	repo, err := infrastructure.NewSQLiteDownloadRepository(config.Queue.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	engine := infrastructure.NewYTDLPEngine(&config.Engine, config.Download.LogsDir, log)
	preflight := func() error { return infrastructure.CheckFFmpeg(config.Engine.FFmpegBinary) }

	resolver := app.NewURLResolver(log)
	selector := app.NewFormatSelector(&config.Download)
	storage := app.NewStorageManager(&config.Storage, log)
	locator := app.NewArtifactLocator(log)
	hub := app.NewProgressHub()

	executor := app.NewDownloadExecutor(engine, resolver, app.DefaultStrategyChain(), &config.Engine, log)
	downloadMgr := app.NewDownloadManager(
		repo, executor, resolver, selector, storage, locator, hub,
		notifier, preflight, &config.Download, log)
	queueMgr := app.NewQueueManager(repo, downloadMgr, &config.Queue, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := queueMgr.Start(ctx); err != nil {
		log.Fatal("Failed to start queue manager", zap.Error(err))
	}

	router := api.SetupRouter(queueMgr, downloadMgr, hub, preflight, &config.Server, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal OR auto-exit from queue manager
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case <-queueMgr.WaitForExit():
		log.Info("Queue processor exited on its own, shutting down")
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if queueMgr.IsRunning() {
		if err := queueMgr.Stop(); err != nil {
			log.Error("Error stopping queue manager", zap.Error(err))
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		config.Download.LogsDir,
		filepath.Dir(config.Queue.DatabasePath),
	}
	if config.Storage.CloudMode {
		dirs = append(dirs, config.Storage.TempRoot)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
