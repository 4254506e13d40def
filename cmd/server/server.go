package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"creatorhub/services/creation-api/internal/config"
	"creatorhub/services/creation-api/internal/domain/creation"
	"creatorhub/services/creation-api/internal/domain/entitlement"
	"creatorhub/services/creation-api/internal/domain/generation"
	"creatorhub/services/creation-api/internal/infrastructure/auth"
	"creatorhub/services/creation-api/internal/infrastructure/database"
	"creatorhub/services/creation-api/internal/infrastructure/extract"
	"creatorhub/services/creation-api/internal/infrastructure/inference"
	"creatorhub/services/creation-api/internal/infrastructure/logger"
	"creatorhub/services/creation-api/internal/infrastructure/observability"
	"creatorhub/services/creation-api/internal/infrastructure/repository/creationrepo"
	"creatorhub/services/creation-api/internal/infrastructure/repository/profilerepo"
	"creatorhub/services/creation-api/internal/infrastructure/storage"
	"creatorhub/services/creation-api/internal/infrastructure/transform"
	"creatorhub/services/creation-api/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DatabaseURL: cfg.DatabaseURL,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxLifetime: cfg.DBConnLifetime,
		LogLevel:    gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if cfg.AutoMigrate {
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}

	featureTable, err := entitlement.LoadTable(cfg.FeatureLimitsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load feature limits")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}

	objectStore, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	textClient := inference.NewTextClient(inference.TextOptions{
		APIKey:      cfg.TextAPIKey,
		BaseURL:     cfg.TextBaseURL,
		Model:       cfg.TextModel,
		MaxTokens:   cfg.TextMaxTokens,
		Temperature: cfg.TextTemperature,
		Timeout:     cfg.TextTimeout,
	})
	safetyClient := inference.NewTextClient(inference.TextOptions{
		APIKey:     cfg.TextAPIKey,
		BaseURL:    cfg.TextBaseURL,
		Model:      cfg.SafetyModel,
		MaxTokens:  16,
		Timeout:    cfg.TextTimeout,
		MetricName: "safety",
	})
	imageClient := inference.NewImageClient(inference.ImageOptions{
		Endpoint: cfg.ImageEndpoint,
		Model:    cfg.ImageModel,
		Width:    cfg.ImageWidth,
		Height:   cfg.ImageHeight,
		Timeout:  cfg.ImageTimeout,
	})
	transformClient := transform.NewClient(transform.Options{
		Endpoint: cfg.TransformEndpoint,
		APIKey:   cfg.TransformAPIKey,
		Timeout:  cfg.TransformTimeout,
	})

	creationService := creation.NewService(creationrepo.NewRepository(db), log)
	resolver := entitlement.NewResolver(profilerepo.NewRepository(db), log)

	generationService := generation.NewService(generation.Deps{
		Table:          featureTable,
		Resolver:       resolver,
		Safety:         generation.NewSafetyGate(safetyClient, log),
		Creations:      creationService,
		Text:           textClient,
		Images:         imageClient,
		Transform:      transformClient,
		Objects:        objectStore,
		Extractor:      extract.NewPDFExtractor(log),
		BackendTimeout: cfg.TextTimeout,
	}, log)

	httpServer := httpserver.New(cfg, log, generationService, creationService, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
