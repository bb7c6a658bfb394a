package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/sixnames/next-marketplace-sub004/internal/handlers"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/config"
	pfirestore "github.com/sixnames/next-marketplace-sub004/internal/platform/firestore"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/jobs"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/observability"
	firestoreRepo "github.com/sixnames/next-marketplace-sub004/internal/repositories/firestore"
	"github.com/sixnames/next-marketplace-sub004/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	catalogRepo, err := firestoreRepo.NewCatalogRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise catalog repository", zap.Error(err))
	}
	shopRepo, err := firestoreRepo.NewShopRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise shop repository", zap.Error(err))
	}
	taskRepo, err := firestoreRepo.NewTaskRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise task repository", zap.Error(err))
	}

	publisher, closePublisher, err := newTaskEventPublisher(ctx, logger, cfg.PubSub)
	if err != nil {
		logger.Fatal("failed to initialise task event publisher", zap.Error(err))
	}
	defer closePublisher()

	summaryService, err := services.NewSummaryService(services.SummaryServiceDeps{
		Catalog:            catalogRepo,
		Tasks:              taskRepo,
		Logger:             logger.Named("summary"),
		DefaultLocale:      cfg.Catalog.DefaultLocale,
		DefaultCompanySlug: cfg.Catalog.DefaultCompanySlug,
	})
	if err != nil {
		logger.Fatal("failed to initialise summary service", zap.Error(err))
	}

	barcodeService, err := services.NewBarcodeService(services.BarcodeServiceDeps{
		Catalog: catalogRepo,
		Shops:   shopRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise barcode service", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog:  catalogRepo,
		Shops:    shopRepo,
		Barcodes: barcodeService,
		Summary:  summaryService,
		Logger:   logger.Named("catalog"),
		Clock:    time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	moderationService, err := services.NewModerationService(services.ModerationServiceDeps{
		Catalog:   catalogRepo,
		Tasks:     taskRepo,
		Summary:   summaryService,
		Publisher: publisher,
		Logger:    logger.Named("moderation"),
		Clock:     time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise moderation service", zap.Error(err))
	}

	productHandlers := handlers.NewProductHandlers(summaryService, catalogService, barcodeService)
	shopHandlers := handlers.NewShopHandlers(catalogService, barcodeService)
	taskHandlers := handlers.NewTaskHandlers(moderationService)

	router := handlers.NewRouter(
		handlers.WithLogger(logger.Named("http")),
		handlers.WithTraceProject(cfg.Firestore.ProjectID),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithShopRoutes(shopHandlers.Routes),
		handlers.WithTaskRoutes(taskHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("catalog api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newTaskEventPublisher builds the Pub/Sub publisher when a topic is
// configured. With no topic the service runs without event publishing.
func newTaskEventPublisher(ctx context.Context, logger *zap.Logger, cfg config.PubSubConfig) (services.TaskEventPublisher, func(), error) {
	if strings.TrimSpace(cfg.TaskEventTopic) == "" {
		logger.Info("task event topic not configured; publishing disabled")
		return nil, func() {}, nil
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, nil, errors.New("pubsub project id is required when a task event topic is set")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	topic := client.Topic(cfg.TaskEventTopic)

	publisher, err := jobs.NewPubSubTaskEventPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	closeFn := func() {
		topic.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}
	return publisher, closeFn, nil
}
