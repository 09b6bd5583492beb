package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"balans/wellbeing-app/internal/adaptation"
	"balans/wellbeing-app/internal/api"
	"balans/wellbeing-app/internal/catalog"
	"balans/wellbeing-app/internal/config"
	"balans/wellbeing-app/internal/repository/mongo"
	"balans/wellbeing-app/internal/service"
	"balans/wellbeing-app/internal/storage"
	"balans/wellbeing-app/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting wellbeing app server", zap.String("environment", cfg.Environment))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureDraftIndexes(ctx, appDB.Collection("drafts"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("plans"))
		mongo.EnsureVersionIndexes(ctx, appDB.Collection("plan_versions"))
		mongo.EnsureHistoryIndexes(ctx, appDB.Collection("adaptation_history"))
		logger.Info("index creation completed")
	}()

	// --- Initialize Storage ---
	// Object storage is optional: media URLs and the s3 catalog source need
	// it, the rest of the app runs without it.
	var objectStorage storage.ObjectStorage
	if cfg.S3.BucketName != "" {
		objectStorage, err = storage.NewS3Storage(cfg.S3, logger)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
	} else {
		logger.Info("object storage not configured, media endpoints disabled")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	draftRepo := mongo.NewMongoDraftRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	versionRepo := mongo.NewMongoVersionRepository(appDB)
	historyRepo := mongo.NewMongoHistoryRepository(appDB)
	catalogRepo := mongo.NewMongoCatalogRepository(appDB)
	uow := mongo.NewUnitOfWork(dbClient)

	// --- Content Library ---
	var catalogSource catalog.Source
	switch cfg.Catalog.Source {
	case "s3":
		if objectStorage == nil {
			logger.Fatal("catalog source is s3 but object storage is not configured")
		}
		catalogSource = catalog.ObjectSource{Storage: objectStorage, Key: cfg.Catalog.ObjectKey}
	default:
		catalogSource = catalog.FileSource{Path: cfg.Catalog.FilePath}
	}

	catalogService := service.NewCatalogService(catalogSource, catalogRepo, logger)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := catalogService.Refresh(ctx); err != nil {
			logger.Error("initial catalog load failed, serving empty library until refresh", zap.Error(err))
		}
		cancel()
	}

	// --- Initialize Services ---
	engine := adaptation.NewEngine(catalogService)
	scheduler := service.NewLogDeliveryScheduler(logger)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	planService := service.NewPlanService(userRepo, draftRepo, planRepo, uow, catalogService, scheduler, logger)
	adaptationService := service.NewAdaptationService(userRepo, planRepo, versionRepo, historyRepo, uow, engine, scheduler, logger)

	// --- Initialize Gin Engine ---
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api.SetupRoutes(router, cfg.JWT.Secret, authService, planService, adaptationService, catalogService, objectStorage)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("server starting", zap.String("address", cfg.Server.Address))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
