package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"creatorhub/services/creation-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.Profile{}, &entities.Creation{}); err != nil {
		return err
	}
	log.Info().Msg("applied profile and creation migrations")
	return nil
}
