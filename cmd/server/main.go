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

	"github.com/ikkim/wishlist-backend/config"
	"github.com/ikkim/wishlist-backend/internal/app/controller"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/internal/app/service"
	"github.com/ikkim/wishlist-backend/internal/db"
	"github.com/ikkim/wishlist-backend/internal/middleware"
	"github.com/ikkim/wishlist-backend/internal/router"
	"github.com/ikkim/wishlist-backend/internal/scheduler"
	ws "github.com/ikkim/wishlist-backend/internal/websocket"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"github.com/ikkim/wishlist-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Wishlist Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Live change fan-out
	hub := ws.NewHub(ws.Options{
		WriteWait:            cfg.WebSocket.WriteWait,
		PongWait:             cfg.WebSocket.PongWait,
		SendBuffer:           cfg.WebSocket.SendBuffer,
		MaxMessagesPerSecond: cfg.WebSocket.MaxMessagesPerSecond,
	})
	go hub.Run(ctx)

	var notifier service.ChangeNotifier = hub
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, live changes stay on this instance", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			relay := ws.NewRelay(hub, redis.PubSub{}, cfg.Redis.Channel)
			notifier = relay
			go func() {
				if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Change relay stopped", err)
				}
			}()
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	wishlistRepo := repository.NewWishlistRepository(db.GetDB())
	itemRepo := repository.NewItemRepository(db.GetDB())
	ledger := repository.NewLedgerRepository(db.GetDB())

	// Initialize services
	reservationService := service.NewReservationService(ledger, itemRepo, userRepo, notifier)
	wishlistService := service.NewWishlistService(wishlistRepo, itemRepo, ledger, userRepo, notifier)

	// Initialize controllers
	wishlistController := controller.NewWishlistController(wishlistService)
	itemController := controller.NewItemController(wishlistService)
	reservationController := controller.NewReservationController(reservationService)
	liveController := controller.NewLiveController(hub, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		wishlistController,
		itemController,
		reservationController,
		liveController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	auditScheduler := scheduler.NewLedgerAuditScheduler(ledger, cfg.Ledger.AuditSchedule)
	if err := auditScheduler.Start(); err != nil {
		logger.Warn("Ledger audit scheduler not started", map[string]interface{}{
			"schedule": cfg.Ledger.AuditSchedule,
		})
	} else {
		defer auditScheduler.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	cancel()

	logger.Info("Server stopped successfully")
}
