package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/config"
	"github.com/noah-isme/englishmastery-api/internal/database"
	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/handler"
	"github.com/noah-isme/englishmastery-api/internal/middleware"
	"github.com/noah-isme/englishmastery-api/internal/repository"
	"github.com/noah-isme/englishmastery-api/internal/router"
	"github.com/noah-isme/englishmastery-api/internal/service"
	"github.com/noah-isme/englishmastery-api/pkg/ai"
	cloud "github.com/noah-isme/englishmastery-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	rootCtx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(rootCtx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, evaluation quota disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, evaluation events will not be published to nats")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	var storage service.FileStorage
	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("cloudinary not configured, recording uploads disabled")
	} else {
		storage = uploader
	}

	retry := ai.DefaultRetry()
	retry.MaxRetries = cfg.AIMaxRetries

	modelName := cfg.AIModel
	var modelClient ai.ModelClient
	client, err := ai.NewModelClient(rootCtx, ai.ProviderConfig{
		Provider:    cfg.AIProvider,
		APIKey:      cfg.AIAPIKey,
		Model:       cfg.AIModel,
		BaseURL:     cfg.AIBaseURL,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
		Retry:       retry,
		Logger:      logger,
	})
	if err != nil {
		var cfgErr *ai.ConfigurationError
		if !errors.As(err, &cfgErr) {
			logger.Fatal().Err(err).Msg("failed to create model client")
		}
		logger.Warn().Err(err).Msg("evaluator not configured, evaluation requests will be rejected")
	} else {
		modelClient = client
		modelName = client.Model()
	}

	evaluator := ai.NewService(ai.Config{
		APIKey:            cfg.AIAPIKey,
		Timeout:           cfg.AITimeout,
		EnforceWordLimits: cfg.AIEnforceWordLimits,
	}, modelClient, logger)

	validate := dto.NewValidator()

	lessonRepo := repository.NewLessonRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	quotaService := service.NewQuotaService(redisClient, cfg.EvaluationDailyQuota, logger)
	achievementService := service.NewAchievementService(achievementRepo, logger)
	eventPublisher := service.NewEventPublisher(natsConn, redisClient, cfg.RealtimeChannel, logger)
	lessonService := service.NewLessonService(lessonRepo, validate, logger)
	seedService := service.NewSeedService(lessonRepo, validate, cfg.SeedEnabled, cfg.SeedToken, logger)
	recordingService := service.NewRecordingService(storage, cfg.RecordingMaxSizeMB, logger)
	progressService := service.NewProgressService(evaluationRepo, redisClient, cfg.ProgressCacheTTL, logger)
	evaluationService := service.NewEvaluationService(service.EvaluationDependencies{
		Evaluator:    evaluator,
		Evaluations:  evaluationRepo,
		Lessons:      lessonRepo,
		Quota:        quotaService,
		Achievements: achievementService,
		Events:       eventPublisher,
		Progress:     progressService,
		Validator:    validate,
	}, service.EvaluationServiceConfig{Provider: cfg.AIProvider, Model: modelName}, logger)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return errors.New(natsConn.Status().String())
			}
			return nil
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.RecordingMaxSizeMB + 1) * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler:  handler.NewEvaluationHandler(evaluationService, logger),
		StreamHandler:      handler.NewEvaluationStreamHandler(service.NewEvaluationFeed(redisClient, cfg.RealtimeChannel, logger), logger),
		LessonHandler:      handler.NewLessonHandler(lessonService, logger),
		RecordingHandler:   handler.NewRecordingHandler(recordingService, logger),
		AchievementHandler: handler.NewAchievementHandler(achievementService, logger),
		ProgressHandler:    handler.NewProgressHandler(progressService, logger),
		SeedHandler:        handler.NewSeedHandler(seedService, logger),
		HealthProbes:       probes,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
