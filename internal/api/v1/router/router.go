package router

import (
	"context"
	"net/http"
	"strings"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pgmq"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the HTTP API: repositories over one pgx pool, services, handlers
// and middleware. The returned pool is shared with callers for shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, normalizeDSN(cfg))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// S3 client for avatar storage
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	pubSubPublisher, err := pubsub.NewPublisher(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
		return nil, nil, err
	}

	secretSvc, err := service.NewSecretService(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Secret Manager client")
		return nil, nil, err
	}

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool, logger)
	usageRepo := repository.NewUsageRepo(pool)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)
	friendRepo := repository.NewFriendRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)
	invitationRepo := repository.NewInvitationRepo(pool)
	marketplaceRepo := repository.NewMarketplaceRepo(pool)
	whiteboardRepo := repository.NewWhiteboardRepo(pool)
	generationRepo := repository.NewGenerationRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)

	queue := pgmq.New(pool)

	// Services
	subscriptionSvc := service.NewSubscriptionService(subscriptionRepo, logger)
	limitSvc := service.NewLimitService(usageRepo, subscriptionSvc, logger)
	stripeSvc := service.NewStripeService(cfg, userRepo, subscriptionSvc, logger)
	userSvc := service.NewUserService(userRepo, stripeSvc, secretSvc, logger)
	avatarSvc := service.NewAvatarService(s3Client, cfg.S3Bucket, userRepo, logger)
	courseSvc := service.NewCourseService(courseRepo, limitSvc, logger)
	notificationSvc := service.NewNotificationService(notificationRepo, pubSubPublisher, cfg.PubSubNotificationTopic, logger)
	friendSvc := service.NewFriendService(friendRepo, invitationRepo, userRepo, courseRepo, notificationSvc, logger)
	marketplaceSvc := service.NewMarketplaceService(marketplaceRepo, courseRepo, logger)
	liveblocksSvc := service.NewLiveblocksService(cfg.LiveblocksSecretKey, logger)
	whiteboardSvc := service.NewWhiteboardService(whiteboardRepo, friendRepo, limitSvc, liveblocksSvc, logger)
	modelClient := service.NewModelClient(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.ModelName, cfg.ModelRPM, logger)
	generationSvc := service.NewGenerationService(modelClient, userRepo, secretSvc, logger)
	generationJobSvc := service.NewGenerationJobService(generationRepo, limitSvc, queue, cfg.GenerationQueueName, logger)
	dlqSvc := service.NewDLQService(dlqRepo)

	// Handlers
	userHandler := handler.NewUserHandler(userSvc, avatarSvc, subscriptionSvc, limitSvc, validate, logger)
	courseHandler := handler.NewCourseHandler(courseSvc, validate)
	generationHandler := handler.NewGenerationHandler(generationJobSvc, generationSvc, validate, logger)
	friendHandler := handler.NewFriendHandler(friendSvc, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, logger)
	marketplaceHandler := handler.NewMarketplaceHandler(marketplaceSvc, validate, logger)
	billingHandler := handler.NewBillingHandler(stripeSvc, subscriptionSvc, logger)
	whiteboardHandler := handler.NewWhiteboardHandler(whiteboardSvc, userSvc, validate, logger)
	dlqHandler := handler.NewDLQHandler(dlqSvc, logger)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.DLQEndpointURL, cfg.PubSubPushServiceAccountEmail, logger)

	apiV1Mux := http.NewServeMux()
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	courseHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	generationHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	friendHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	notificationHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	marketplaceHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	billingHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	whiteboardHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	dlqHandler.RegisterRoutes(apiV1Mux, pubsubAuthMiddleware)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppBaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}

// normalizeDSN adapts the connection string to the environment: local runs
// get sslmode=disable, pooled production runs need the simple query protocol.
func normalizeDSN(cfg *config.Config) string {
	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		dsn += dsnSeparator(dsn) + "sslmode=disable"
	}
	if cfg.Environment != "development" && !strings.Contains(dsn, "default_query_exec_mode") {
		dsn += dsnSeparator(dsn) + "default_query_exec_mode=simple_protocol"
	}
	return dsn
}

func dsnSeparator(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return "&"
		}
		return "?"
	}
	return " "
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services. See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
