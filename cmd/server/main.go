package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradvillage.backend/internal/config"
	"gradvillage.backend/internal/infrastructure/datasources/postgres"
	"gradvillage.backend/internal/infrastructure/gateway"
	"gradvillage.backend/internal/infrastructure/jobs"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/internal/infrastructure/notification"
	"gradvillage.backend/internal/infrastructure/receipt"
	"gradvillage.backend/internal/infrastructure/repositories"
	"gradvillage.backend/internal/infrastructure/storage"
	"gradvillage.backend/internal/interfaces/http/handlers"
	"gradvillage.backend/internal/interfaces/http/middleware"
	"gradvillage.backend/internal/interfaces/http/response"
	"gradvillage.backend/internal/usecases"
	"gradvillage.backend/pkg/jwt"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/metrics"
	"gradvillage.backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.NewConnection
	newMailer  = notification.NewMailer
	newStorage = storage.New
	runServer  = func(srv *http.Server) error { return srv.ListenAndServe() }
	getStdDB   = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		response.SetProduction(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis only backs the request idempotency lock; the durable key lives in postgres.
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Warn(ctx, "Redis unavailable, idempotency lock disabled", zap.Error(err))
	} else {
		defer redis.Close()
		logger.Info(ctx, "Redis initialized")
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	logger.Info(ctx, "Connected to PostgreSQL via GORM")

	m := metrics.New("gradvillage")
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.SessionExpiry)

	mailer, err := newMailer(cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	receiptStorage, err := newStorage(ctx, cfg.Storage, cfg.Server.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	paymentGateway := gateway.NewStripeGateway(gateway.StripeConfig{
		SecretKey:     cfg.Payment.SecretKey,
		WebhookSecret: cfg.Payment.WebhookSecret,
		APIBaseURL:    cfg.Payment.APIBaseURL,
	})

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	schoolRepo := repositories.NewSchoolRepository(db)
	verificationRepo := repositories.NewSchoolVerificationRepository(db)
	feeRepo := repositories.NewRegistrationFeeRepository(db)
	donationRepo := repositories.NewDonationRepository(db)
	txRepo := repositories.NewPaymentTransactionRepository(db)
	receiptRepo := repositories.NewTaxReceiptRepository(db)
	welcomeBoxRepo := repositories.NewWelcomeBoxRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	outbox := usecases.NewOutboxDispatcher(outboxRepo, usecases.OutboxConfig{
		MaxAttempts: cfg.Outbox.MaxAttempts,
		BaseBackoff: cfg.Outbox.BaseBackoff,
		MaxBackoff:  cfg.Outbox.MaxBackoff,
		LockTimeout: cfg.Outbox.LockTimeout,
	}, m)
	chargeCfg := usecases.ChargeConfig{
		AllowTestCards: cfg.Payment.AllowTestCards && !cfg.Server.IsProduction(),
		SyntheticDelay: cfg.Payment.SyntheticDelay,
		Currency:       cfg.Payment.Currency,
		FeePercentage:  cfg.Payment.NetFeePercentage,
		FeeFixedCents:  cfg.Payment.NetFeeFixedCents,
	}

	authUsecase := usecases.NewAuthUsecase(userRepo, studentRepo, jwtService)
	receiptUsecase := usecases.NewTaxReceiptUsecase(receiptRepo, feeRepo, donationRepo, studentRepo,
		receipt.NewPDFRenderer(), receiptStorage, usecases.Nonprofit{
			Name:    cfg.Nonprofit.Name,
			EIN:     cfg.Nonprofit.EIN,
			Address: cfg.Nonprofit.Address,
		})
	registrationUsecase := usecases.NewRegistrationPaymentUsecase(uow, userRepo, studentRepo, feeRepo, txRepo, receiptRepo,
		paymentGateway, outbox, jwtService, chargeCfg, m)
	donationUsecase := usecases.NewDonationUsecase(uow, studentRepo, donationRepo, txRepo, receiptRepo,
		paymentGateway, outbox, chargeCfg, m)
	webhookUsecase := usecases.NewWebhookUsecase(paymentGateway, donationUsecase)
	studentUsecase := usecases.NewStudentUsecase(uow, studentRepo, schoolRepo, verificationRepo, welcomeBoxRepo, feeRepo, receiptRepo)
	adminUsecase := usecases.NewAdminUsecase(uow, studentRepo, verificationRepo, welcomeBoxRepo, feeRepo, donationRepo, outboxRepo, outbox)
	notificationUsecase := usecases.NewNotificationUsecase(mailer, receiptUsecase, receiptRepo, studentRepo, feeRepo,
		donationRepo, verificationRepo, cfg.Server.FrontendURL)
	notificationUsecase.RegisterHandlers(outbox)

	// Background jobs
	outboxJob := jobs.NewOutboxDispatchJob(outbox, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)
	go outboxJob.Start(ctx)
	expiryJob := jobs.NewPendingDonationExpiryJob(donationUsecase, cfg.Donation.SweepInterval, cfg.Donation.PendingExpiry)
	go expiryJob.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(m))

	applyCORSMiddleware(r, corsOrigins(cfg.Server))
	registerHealthRoute(r)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		r.Static("/static", cfg.Storage.LocalDir)
	}
	registerAPIRoutes(r, routeDeps{
		authHandler:                handlers.NewAuthHandler(authUsecase),
		registrationPaymentHandler: handlers.NewRegistrationPaymentHandler(registrationUsecase, receiptUsecase),
		donationHandler:            handlers.NewDonationHandler(donationUsecase),
		webhookHandler:             handlers.NewWebhookHandler(webhookUsecase),
		studentHandler:             handlers.NewStudentHandler(studentUsecase),
		adminHandler:               handlers.NewAdminHandler(adminUsecase),
		authMiddleware:             middleware.AuthMiddleware(jwtService),
		optionalAuthMiddleware:     middleware.OptionalAuthMiddleware(jwtService),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info(context.Background(), "Shutting down server")
		outboxJob.Stop()
		expiryJob.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "GradVillage backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("gateway", paymentGateway.Name()),
		zap.Bool("testCards", chargeCfg.AllowTestCards),
	)

	if err := runServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// corsOrigins pins CORS to the frontend in production.
func corsOrigins(cfg config.ServerConfig) []string {
	if !cfg.IsProduction() {
		return nil
	}
	return []string{cfg.FrontendURL}
}
