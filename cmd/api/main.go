package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	complaintRepo := repository.NewComplaintRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	historyRepo := repository.NewComplaintHistoryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	txManager := repository.NewTxManager(pool)

	metrics := observability.NewMetrics()
	policy, err := auth.NewPolicy()
	if err != nil {
		logger.Fatal("failed to build access policy", zap.Error(err))
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	dispatcher := events.NewInMemoryDispatcher(logger)
	forwarder := events.NewKafkaForwarder(cfg.Kafka, logger)
	defer forwarder.Close() //nolint:errcheck

	var email notify.EmailSender
	if cfg.Notification.SMTPEnabled() {
		email = notify.NewSMTPSender(cfg.Notification)
	} else {
		logger.Info("smtp relay not configured, email notifications disabled")
	}
	sms := notify.NewLogSMSSender(cfg.Notification.SMSSenderID, logger)

	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:     complaintRepo,
		ProductRepo:       productRepo,
		StaffRepo:         staffRepo,
		HistoryRepo:       historyRepo,
		TxManager:         txManager,
		Dispatcher:        dispatcher,
		Metrics:           metrics,
		Logger:            logger,
		TicketMaxAttempts: cfg.Tickets.MaxAttempts,
	})
	productService := service.NewProductService(service.ProductDependencies{
		ProductRepo: productRepo,
		StaffRepo:   staffRepo,
	})
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{StaffRepo: staffRepo})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
		TxManager:         txManager,
		Email:             email,
		TokenManager:      tokens,
		Logger:            logger,
	})
	exportService := service.NewExportService(service.ExportDependencies{
		ComplaintService: complaintService,
		ProductService:   productService,
		StaffService:     staffService,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		ComplaintRepo: complaintRepo,
		StaffRepo:     staffRepo,
		ProductRepo:   productRepo,
		Cache:         redis,
		CacheTTL:      cfg.Dashboard.CacheTTL(),
		Metrics:       metrics,
		Logger:        logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		ComplaintRepo:    complaintRepo,
		NotificationRepo: notificationRepo,
		SMS:              sms,
		Email:            email,
		Metrics:          metrics,
		Logger:           logger,
		DeliveryTimeout:  cfg.Notification.DeliveryTimeout(),
	})
	worker.StartNotificationWorker(dispatcher, notificationService, forwarder)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Complaints:     handlers.NewComplaintsHandler(complaintService, exportService),
		Products:       handlers.NewProductsHandler(productService, exportService),
		Staff:          handlers.NewStaffHandler(staffService, exportService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, staffRepo),
		Policy:         policy,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
