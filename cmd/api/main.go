package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"apptrueq/internal/adapter/api"
	"apptrueq/internal/adapter/api/handler"
	apimiddleware "apptrueq/internal/adapter/api/middleware"
	"apptrueq/internal/adapter/api/router"
	"apptrueq/internal/adapter/repository"
	"apptrueq/internal/domain/service"
	"apptrueq/internal/infrastructure/events"
	"apptrueq/internal/infrastructure/firebase"
	"apptrueq/internal/infrastructure/ratelimit"
	"apptrueq/internal/infrastructure/storage"
	"apptrueq/internal/infrastructure/websocket"
	"apptrueq/internal/usecase"
	"apptrueq/pkg/config"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/metrics"
	"apptrueq/pkg/response"
)

func credentials(cfg *config.Config) option.ClientOption {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	}

	if cfg.ServiceAccountPath == "" {
		logger.Info("No service account configured, using application default credentials")
		return nil
	}
	if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
		logger.Fatal("Service account file does not exist: %s", cfg.ServiceAccountPath)
	}

	logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
	return option.WithCredentialsFile(cfg.ServiceAccountPath)
}

func newEventPublisher(cfg *config.Config, m *metrics.Metrics) service.EventPublisher {
	if cfg.NatsURL == "" {
		logger.Info("NATS_URL not set, domain events disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.NewNATSPublisher(cfg.NatsURL, m)
	if err != nil {
		logger.Error("Failed to connect to NATS at %s, domain events disabled: %v", cfg.NatsURL, err)
		return events.NopPublisher{}
	}
	return publisher
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	logger.SetDebug(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	if opt := credentials(cfg); opt != nil {
		opts = append(opts, opt)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		logger.Fatal("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	m := metrics.New()

	eventPublisher := newEventPublisher(cfg, m)
	defer eventPublisher.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	publicationRepo := repository.NewFirestorePublicationRepository(firestoreClient)
	proposalRepo := repository.NewFirestoreProposalRepository(firestoreClient)
	tradeRepo := repository.NewFirestoreTradeRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	reportRepo := repository.NewFirestoreReportRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine(ctx.Done())

	userUseCase := usecase.NewUserUseCase(userRepo, firebaseAuthClient)
	publicationUseCase := usecase.NewPublicationUseCase(publicationRepo, userRepo, storageClient, limiter, cfg.ExploreFetchLimit, cfg.MaxUploadBytes)
	proposalUseCase := usecase.NewProposalUseCase(proposalRepo, publicationRepo, userRepo, limiter, eventPublisher, m)
	tradeUseCase := usecase.NewTradeUseCase(tradeRepo)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo)
	reportUseCase := usecase.NewReportUseCase(reportRepo, publicationRepo, proposalRepo, limiter, eventPublisher, m)
	feedUseCase := usecase.NewFeedUseCase(publicationRepo, proposalRepo, tradeRepo, notificationRepo, cfg.ExploreFetchLimit)

	handler.Setup(userUseCase, publicationUseCase, proposalUseCase, tradeUseCase, notificationUseCase, reportUseCase)
	handler.SetupHealthHandler()
	handler.SetupDevTokenHandler(firebaseAuthClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)
	wsHandler := handler.NewWebSocketHandler(ctx, wsManager, websocket.NewMessageHandler(m), feedUseCase)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		response.Error(c, err)
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes+1024*1024, 10)))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	moderatorMiddleware := apimiddleware.NewModeratorMiddleware(userRepo)

	router.Setup(e, authMiddleware, moderatorMiddleware)
	router.SetupMetricsRouter(e, m.Handler())
	router.SetupWebSocketRouter(e, wsHandler, authMiddleware)
	router.SetupDevRouter(e, cfg.Environment)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
