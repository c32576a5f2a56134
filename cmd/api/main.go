package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peermarking/peermark-api/internal/config"
	"github.com/peermarking/peermark-api/internal/database"
	"github.com/peermarking/peermark-api/internal/handler"
	"github.com/peermarking/peermark-api/internal/middleware"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/repository"
	"github.com/peermarking/peermark-api/internal/router"
	"github.com/peermarking/peermark-api/internal/service"
	cloud "github.com/peermarking/peermark-api/pkg/cloudinary"
	"github.com/peermarking/peermark-api/pkg/gcs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Submission{}, &models.UserProfile{}, &models.Notification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	blobStore, err := gcs.New(appCtx, gcs.Config{
		Bucket:          cfg.GCSBucket,
		CredentialsFile: cfg.GCSCredentialsFile,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create storage client: %v", err)
	}
	defer blobStore.Close()

	avatarStore, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	janitor := service.NewStorageJanitor(blobStore, natsConn, cfg.CleanupSubject, logger)
	janitor.Start(appCtx)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)
	notificationService.Start(appCtx)

	submissionService := service.NewSubmissionService(submissionRepo, blobStore, janitor, validate, cfg.SignedURLTTL, logger)
	reviewService := service.NewReviewService(submissionRepo, blobStore, janitor, notificationService, validate, cfg.SignedURLTTL, logger)
	communityService := service.NewCommunityService(submissionRepo, blobStore, redisClient, cfg.CommunityCacheTTL, cfg.SignedURLTTL, logger)
	dashboardService := service.NewDashboardService(submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)
	profileService := service.NewProfileService(profileRepo, avatarStore, validate, logger)

	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	communityHandler := handler.NewCommunityHandler(communityService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	profileHandler := handler.NewProfileHandler(profileService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    32 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:   submissionHandler,
		ReviewHandler:       reviewHandler,
		CommunityHandler:    communityHandler,
		DashboardHandler:    dashboardHandler,
		ProfileHandler:      profileHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopApp)
}

func waitForShutdown(app *fiber.App, stopApp context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopApp()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
