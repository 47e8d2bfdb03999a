package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"picoworker_backend/database"
	"picoworker_backend/internal/config"
	"picoworker_backend/internal/email"
	"picoworker_backend/internal/handlers"
	"picoworker_backend/internal/logger"
	"picoworker_backend/internal/middleware"
	"picoworker_backend/internal/routes"
	"picoworker_backend/internal/services"
	"picoworker_backend/internal/validator"
	"picoworker_backend/internal/workers"
	"picoworker_backend/pkg/apperrors"
	"picoworker_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	if err := config.LoadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			logger.Fatal("Migration failed", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer, err := newMailer(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize email provider", "error", err)
	}

	application := SetupRouter(ctx, cfg, gormDB, services.Dependencies{Mailer: mailer})

	if err := seedFirstAdmin(ctx, gormDB, cfg, application.Services); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	workers.NewTempPurchaseWorker(gormDB, application.Services.PaymentService,
		cfg.Workers.TempPurchaseTTL, cfg.Workers.TempPurchaseInterval).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	_ = sqlDB.Close()
}

// Application - собранный роутер и сервисы (нужны воркерам и тестам)
type Application struct {
	Router    *gin.Engine
	Services  *services.ServiceContainer
	WSManager *ws.WebSocketManager
}

// SetupRouter собирает сервисы, хэндлеры и маршруты. Менеджер websocket живет до отмены ctx.
func SetupRouter(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, deps services.Dependencies) *Application {
	apperrors.DebugErrors = cfg.Server.Env == "development"

	// 1. WebSocket
	wsManager := ws.NewWebSocketManager()
	go wsManager.Run(ctx)
	if deps.Pusher == nil {
		deps.Pusher = wsManager
	}

	// 2. Сервисы
	serviceContainer := services.NewServiceContainer(cfg, deps)

	// 3. Хэндлеры
	requireAuth := middleware.AuthMiddleware(serviceContainer.Tokens)
	appHandlers := initializeHandlers(serviceContainer, requireAuth)
	wsHandler := ws.NewWebSocketHandler(wsManager, cfg.Server.AllowedOrigins)

	// 4. Gin
	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, requireAuth)

	return &Application{
		Router:    ginRouter,
		Services:  serviceContainer,
		WSManager: wsManager,
	}
}

func initializeHandlers(container *services.ServiceContainer, requireAuth gin.HandlerFunc) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New(), requireAuth)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, container.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, container.UserService),
		TaskHandler:         handlers.NewTaskHandler(baseHandler, container.TaskService),
		SubmissionHandler:   handlers.NewSubmissionHandler(baseHandler, container.SubmissionService),
		WithdrawalHandler:   handlers.NewWithdrawalHandler(baseHandler, container.WithdrawalService),
		PaymentHandler:      handlers.NewPaymentHandler(baseHandler, container.PaymentService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.NotificationService),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.TimeoutMiddleware(cfg.Server.RequestTimeout))
	router.Use(middleware.DBMiddleware(db))
	return router
}

func newMailer(cfg *config.Config) (email.Provider, error) {
	if !cfg.Email.Enabled {
		logger.Warn("Email delivery disabled, notifications are only logged")
		return &MockEmailProvider{}, nil
	}

	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	provider := email.NewGomailProvider(cfg.Email, renderer)
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	return provider, nil
}

// seedFirstAdmin создает или повышает администратора из FIRST_ADMIN_EMAIL
func seedFirstAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, container *services.ServiceContainer) error {
	if cfg.FirstAdminEmail == "" {
		logger.Warn("FIRST_ADMIN_EMAIL is not set. Skipping admin seeding.")
		return nil
	}

	if err := container.UserService.EnsureAdmin(ctx, db, cfg.FirstAdminEmail); err != nil {
		return err
	}
	logger.Info("Admin account ensured", "email", cfg.FirstAdminEmail)
	return nil
}
