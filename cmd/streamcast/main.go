package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mantonx/streamcast/internal/config"
	"github.com/mantonx/streamcast/internal/database"
	"github.com/mantonx/streamcast/internal/extractor"
	"github.com/mantonx/streamcast/internal/logger"
	"github.com/mantonx/streamcast/internal/recordings"
	"github.com/mantonx/streamcast/internal/server"
	"github.com/mantonx/streamcast/internal/stream"
)

func main() {
	fmt.Println("=====================================")
	fmt.Println("  Streamcast Multi-Destination Relay ")
	fmt.Println("=====================================")

	log := logger.New("main")

	configPath := os.Getenv("STREAMCAST_CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("./streamcast.yaml"); err == nil {
			configPath = "./streamcast.yaml"
		}
	}
	if err := config.Load(configPath); err != nil {
		log.Warn("failed to load configuration, using defaults", "path", configPath, "error", err)
	} else if configPath != "" {
		log.Info("configuration loaded", "path", configPath)
	}
	cfg := config.Get()

	if err := database.Initialize(cfg.Database); err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Recordings.Dir, 0755); err != nil {
		log.Warn("failed to create recordings directory", "dir", cfg.Recordings.Dir, "error", err)
	}

	catalog := recordings.NewCatalog(logger.New("recordings"), cfg.Recordings.Dir, database.GetDB())

	manager := stream.NewManager(stream.ManagerOptions{
		Logger:        logger.New("stream-manager"),
		Recordings:    catalog,
		RecordingsDir: cfg.Recordings.Dir,
		FFmpegPath:    cfg.Stream.FFmpegPath,
		GracePeriod:   cfg.Stream.StopGracePeriod,
		StatsInterval: cfg.Stream.StatsInterval,
	})

	ex := extractor.New(logger.New("extractor"), cfg.Extractor.BinaryPath, cfg.Extractor.Timeout)

	router := server.SetupRouter(server.Dependencies{
		Manager:    manager,
		Extractor:  ex,
		Recordings: catalog,
		EnableCORS: cfg.Server.EnableCORS,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := catalog.Watch(ctx); err != nil {
			log.Warn("recordings watcher stopped", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	cancel()
	manager.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown timed out", "error", err)
	}
	log.Info("shutdown complete")
}
