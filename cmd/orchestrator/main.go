package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/orchestrator/generation"
	"app/internal/pgmq"
	"app/internal/repository"
	"app/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	mode := flag.String("mode", "", "Orchestrator mode: generation")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	pgmqClient := pgmq.New(pool)

	secretSvc, err := service.NewSecretService(ctx, cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
	}

	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool, logger)
	generationRepo := repository.NewGenerationRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)

	modelClient := service.NewModelClient(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.ModelName, cfg.ModelRPM, logger)
	generationSvc := service.NewGenerationService(modelClient, userRepo, secretSvc, logger)
	dlqSvc := service.NewDLQService(dlqRepo)

	var runErr error
	switch *mode {
	case "generation":
		worker := generation.NewWorker(cfg, pgmqClient, generationRepo, courseRepo, generationSvc, dlqSvc, logger)
		runErr = worker.Run(ctx)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
