//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
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
	"creatorhub/services/creation-api/internal/infrastructure/repository/creationrepo"
	"creatorhub/services/creation-api/internal/infrastructure/repository/profilerepo"
	"creatorhub/services/creation-api/internal/infrastructure/storage"
	"creatorhub/services/creation-api/internal/infrastructure/transform"
	"creatorhub/services/creation-api/internal/interfaces/httpserver"
)

var repositorySet = wire.NewSet(
	creationrepo.NewRepository,
	wire.Bind(new(creation.Repository), new(*creationrepo.Repository)),
	profilerepo.NewRepository,
	wire.Bind(new(entitlement.Store), new(*profilerepo.Repository)),
)

// BuildApplication assembles the creation API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		provideLogger,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		repositorySet,
		provideFeatureTable,
		entitlement.NewResolver,
		provideGenerationDeps,
		creation.NewService,
		generation.NewService,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func provideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

func provideFeatureTable(cfg *config.Config) (*entitlement.Table, error) {
	return entitlement.LoadTable(cfg.FeatureLimitsFile)
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DatabaseURL: cfg.DatabaseURL,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxLifetime: cfg.DBConnLifetime,
		LogLevel:    gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg *config.Config, dbCfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(dbCfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func provideGenerationDeps(
	ctx context.Context,
	cfg *config.Config,
	table *entitlement.Table,
	resolver *entitlement.Resolver,
	creationService *creation.Service,
	log zerolog.Logger,
) (generation.Deps, error) {
	objectStore, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		return generation.Deps{}, err
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

	return generation.Deps{
		Table:     table,
		Resolver:  resolver,
		Safety:    generation.NewSafetyGate(safetyClient, log),
		Creations: creationService,
		Text:      textClient,
		Images: inference.NewImageClient(inference.ImageOptions{
			Endpoint: cfg.ImageEndpoint,
			Model:    cfg.ImageModel,
			Width:    cfg.ImageWidth,
			Height:   cfg.ImageHeight,
			Timeout:  cfg.ImageTimeout,
		}),
		Transform: transform.NewClient(transform.Options{
			Endpoint: cfg.TransformEndpoint,
			APIKey:   cfg.TransformAPIKey,
			Timeout:  cfg.TransformTimeout,
		}),
		Objects:        objectStore,
		Extractor:      extract.NewPDFExtractor(log),
		BackendTimeout: cfg.TextTimeout,
	}, nil
}
