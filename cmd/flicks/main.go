package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flicks/internal/config"
	"flicks/internal/core"
	"flicks/internal/handlers"
	"flicks/internal/state"
	"flicks/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	// Initialize logger to write to both file and console
	out, logFile, err := utils.NewFileWriter(cfg.App.DataPath)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	logger := utils.NewLogger(cfg.App.Debug, out)

	// Create manager and session store
	manager := core.NewManager(cfg, logger.Named("core"))
	sessions := state.NewStore(cfg.Sessions.TTL)

	if cfg.Notifications.Pushbullet.APIKey != "" {
		if err := manager.TestNotifier(); err != nil {
			logger.Warn("Notifications will not be delivered", "error", err)
		}
	}

	server, err := handlers.NewServer(cfg, manager, sessions, logger.Named("http"))
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.Watch(ctx, *configPath, logger.Named("config"), manager.ApplyConfig); err != nil {
		logger.Warn("Config hot reload disabled", "error", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	if err := manager.AddJob(cfg.Scheduler.SessionPrune, server.PruneIdle); err != nil {
		logger.Fatal("Failed to schedule session pruning", "error", err)
	}
	if err := manager.StartScheduler(); err != nil {
		logger.Fatal("Failed to start scheduler", "error", err)
	}

	logger.Info("Flicks started successfully", "port", cfg.App.Port, "mode", cfg.App.Mode)

	// Wait for interrupt
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Shutting down...")
	manager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
}
