package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/api"
	"github.com/shopkeeper-app/shopkeeper-be/internal/backup"
	"github.com/shopkeeper-app/shopkeeper-be/internal/config"
	"github.com/shopkeeper-app/shopkeeper-be/internal/database"
	"github.com/shopkeeper-app/shopkeeper-be/internal/logger"
	"github.com/shopkeeper-app/shopkeeper-be/internal/monitoring"
	"github.com/shopkeeper-app/shopkeeper-be/internal/remote"
	"github.com/shopkeeper-app/shopkeeper-be/internal/services"
	"github.com/shopkeeper-app/shopkeeper-be/internal/snapshot"
	"github.com/shopkeeper-app/shopkeeper-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	// An unusable backup directory is the one fatal startup condition.
	if err := backup.EnsureWritableDir(cfg.BackupPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.BackupPath).Msg("Backup directory is unusable")
	}

	// Set up the local database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Remote business API client
	apiClient := remote.NewClient(cfg.APIBaseURL, cfg.APITimeout)

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	scheduleService := services.NewScheduleService(db)
	builder := snapshot.NewBuilder(apiClient, cfg.AppVersion, cfg.APITimeout)
	backupService := services.NewBackupService(
		clock.WallClock,
		cfg.BackupPath,
		builder,
		scheduleService,
		eventService,
		apiClient,
		hub,
		cfg.BackupOnLaunch,
	)

	// Recovery runs once, before any scheduling can start.
	if removed, err := backupService.CheckAndRecoverExitBackup(); err != nil {
		log.Fatal().Err(err).Msg("Backup recovery failed")
	} else if removed > 0 {
		log.Warn().Int("removed", removed).Msg("Recovered from an unclean shutdown")
	}

	// Background observers
	countdown := monitoring.NewCountdownBroadcaster(clock.WallClock, backupService, hub)
	go countdown.Run()

	statUpdater := monitoring.NewStatUpdater(cfg.BackupPath, eventService, hub)
	go statUpdater.Run()

	// Set up router
	router := api.NewRouter(hub, apiClient, apiClient, backupService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Agent starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down...")

	statUpdater.Stop()
	countdown.Stop()
	backupService.Shutdown() // prevents future ticks; an in-flight write finishes

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Agent exiting")
}
