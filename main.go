package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/delivery-services/config"
	"github.com/yeremiapane/delivery-services/database"
	"github.com/yeremiapane/delivery-services/events"
	"github.com/yeremiapane/delivery-services/router"
	"github.com/yeremiapane/delivery-services/services"
	"github.com/yeremiapane/delivery-services/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	if cfg.SeedNotificationTypes && cfg.Enabled(config.ServiceNotification) {
		if _, err := database.SeedNotificationTypes(context.Background(), db); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed notification types: %v", err)
		}
	}

	// Sibling services default to this process.
	local := "http://127.0.0.1:" + cfg.Port
	accountURL := cfg.AccountServiceURL
	if accountURL == "" {
		accountURL = local + "/account"
	}
	notificationURL := cfg.NotificationServiceURL
	if notificationURL == "" {
		notificationURL = local + "/notification"
	}

	hub := events.NewHub()
	dispatcher := services.NewNotificationDispatcher(db, services.NewSiblingClient(accountURL, notificationURL, cfg.HTTPTimeout()), hub)
	dispatcher.Interval = cfg.DispatchInterval()
	dispatcher.MaxAttempts = cfg.DispatchMaxAttempts

	r := router.SetupRouter(cfg, db, dispatcher, hub)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Only the process hosting orders drains the outbox.
	if cfg.Enabled(config.ServiceOrder) {
		dispatcher.Start()
	}

	go func() {
		utils.InfoLogger.WithField("services", cfg.Services).Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
	dispatcher.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
