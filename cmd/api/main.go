package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/suportebot/helpdesk/internal/api/http"
	"github.com/suportebot/helpdesk/internal/api/http/handlers"
	"github.com/suportebot/helpdesk/internal/auth"
	"github.com/suportebot/helpdesk/internal/config"
	"github.com/suportebot/helpdesk/internal/events"
	"github.com/suportebot/helpdesk/internal/observability"
	"github.com/suportebot/helpdesk/internal/persistence"
	"github.com/suportebot/helpdesk/internal/repository"
	"github.com/suportebot/helpdesk/internal/security"
	"github.com/suportebot/helpdesk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger.Level, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := persistence.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := persistence.RunMigrations(ctx, pool, "migrations", logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := persistence.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewDispatcher(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	limiter := security.NewRateLimiter(redisClient, "helpdesk:rl")

	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	confirmationRepo := repository.NewConfirmationRepository(pool)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:         userRepo,
		Tokens:           tokens,
		Limiter:          limiter,
		Logger:           logger,
		LoginMaxAttempts: cfg.Auth.LoginMaxAttempts,
		LoginWindow:      cfg.Auth.LoginWindow,
		RegisterMaxPerIP: cfg.Auth.RegisterMaxPerIP,
		RegisterWindow:   cfg.Auth.RegisterWindow,
	})
	departmentService := service.NewDepartmentService(departmentRepo, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		InteractionRepo:  interactionRepo,
		DepartmentRepo:   departmentRepo,
		ConfirmationRepo: confirmationRepo,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		TicketRepo:      ticketRepo,
		InteractionRepo: interactionRepo,
		Dispatcher:      dispatcher,
		Limiter:         limiter,
		Logger:          logger,
		MessageLimit:    cfg.Auth.MessageMaxPerUser,
		MessageWindow:   cfg.Auth.MessageRateWindow,
	})
	notificationService := service.NewNotificationService(notificationRepo, userRepo, logger)
	escalation := service.NewEscalationScheduler(service.EscalationDependencies{
		TicketRepo:       ticketRepo,
		InteractionRepo:  interactionRepo,
		Logger:           logger,
		TimeCheckDelay:   cfg.Bot.TimeCheckDelay,
		UrgentCheckDelay: cfg.Bot.UrgentCheckDelay,
	})

	notificationService.RegisterHandlers(dispatcher)
	escalation.RegisterHandlers(dispatcher)

	if err := departmentService.EnsureSeed(ctx); err != nil {
		logger.Fatal("failed to seed departments", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		BodyLimit:    cfg.App.BodyLimitBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.ReadTimeout)
	app.Use(httptransport.RateLimit(limiter, cfg.Auth.GlobalMaxPerIP, cfg.Auth.GlobalRateWindow))

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(pool, redisClient, metrics),
		Users:         handlers.NewUsersHandler(authService),
		Tickets:       handlers.NewTicketsHandler(ticketService, departmentService),
		Chat:          handlers.NewChatHandler(chatService),
		Notifications: handlers.NewNotificationsHandler(notificationService),
		Tokens:        tokens,
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
