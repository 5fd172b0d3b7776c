package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"servio_backend/internal/config"
	"servio_backend/internal/email"
	"servio_backend/internal/handlers"
	"servio_backend/internal/logger"
	"servio_backend/internal/middleware"
	"servio_backend/internal/models"
	"servio_backend/internal/repositories"
	"servio_backend/internal/routes"
	"servio_backend/internal/services"
	"servio_backend/ws"
)

// Run wires the application together and blocks until shutdown.
func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Booking{},
		&models.Notification{},
	); err != nil {
		logger.Fatal("Database migration failed", "error", err)
	}

	registry := ws.NewRegistry(ws.Config{
		SweepInterval: cfg.SweepInterval(),
		IdleTimeout:   cfg.IdleTimeout(),
	})
	registry.StartSweep()

	emailQueue := buildEmailQueue(cfg)
	queueCtx, cancelQueue := context.WithCancel(context.Background())
	emailQueue.Start(queueCtx)

	ginRouter := SetupRouter(cfg, gormDB, registry, emailQueue)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: address, Handler: ginRouter}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	// Stop accepting HTTP traffic first, then drain the long-lived
	// pieces: open sockets, then the outbound email queue.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	registry.Shutdown()
	emailQueue.Stop()
	cancelQueue()
	logger.Info("Server stopped")
}

// SetupRouter builds the gin engine with every route registered. Split
// out of Run so tests can stand up the full router without a server.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, registry *ws.Registry, emailQueue *email.Queue) *gin.Engine {
	userRepo := repositories.NewUserRepository(gormDB)
	bookingRepo := repositories.NewBookingRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)

	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	dispatcher := services.NewNotificationDispatcher(bookingRepo, userRepo, notificationRepo, registry, emailQueue)
	bookingService := services.NewBookingService(bookingRepo, userRepo, dispatcher)

	authenticator := ws.NewAuthenticator(cfg.JWT.Secret, userRepo)
	wsHandler := ws.NewHandler(registry, authenticator)

	appHandlers := &routes.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(authService),
		BookingHandler:      handlers.NewBookingHandler(bookingService),
		NotificationHandler: handlers.NewNotificationHandler(notificationRepo),
		HealthHandler:       handlers.NewHealthHandler(registry),
	}

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)
	return ginRouter
}

func buildEmailQueue(cfg *config.Config) *email.Queue {
	sender, err := email.NewSMTPSender(email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	})
	if err != nil {
		logger.Warn("SMTP sender unavailable, outbound email disabled", "error", err)
		return email.NewQueue(email.NopSender{}, cfg.Email.Workers, cfg.Email.QueueSize)
	}
	return email.NewQueue(sender, cfg.Email.Workers, cfg.Email.QueueSize)
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}
