// Package profilerepo persists entitlement records in the profiles table.
package profilerepo

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"creatorhub/services/creation-api/internal/domain/entitlement"
	"creatorhub/services/creation-api/internal/infrastructure/database/entities"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// Repository implements entitlement.Store on gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the caller's record, or (nil, nil) when none exists yet.
func (r *Repository) Get(ctx context.Context, userID string) (*entitlement.Record, error) {
	var entity entities.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load profile",
			err,
			"6e9a1c4f-2d78-4b35-80e6-3f5a7c9d1b24",
		)
	}
	return mapEntity(ctx, entity)
}

func (r *Repository) Create(ctx context.Context, record *entitlement.Record) error {
	entity, err := mapRecord(record)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to encode profile",
			err,
			"0b3d6f8a-4e17-4c92-a5b0-7d9f1e3c5a68",
		)
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create profile",
			err,
			"8f1b4d6e-0a39-4c57-92e4-5b7d9f1a3c60",
		)
	}
	return nil
}

// SetUsage writes an absolute counter value for one feature inside the
// usage JSONB object, leaving the other features' counters untouched.
func (r *Repository) SetUsage(ctx context.Context, userID string, feature entitlement.Feature, count int) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Profile{}).
		Where("user_id = ?", userID).
		Update("usage", gorm.Expr(
			"jsonb_set(usage, ?, ?::jsonb, true)",
			fmt.Sprintf("{%s}", feature),
			fmt.Sprintf("%d", count),
		))
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update usage counter",
			result.Error,
			"a2c4e6f8-1b50-4d73-96a8-0c2e4f6b8d15",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"profile not found",
			nil,
			"c6e8a0b2-3d71-4f59-85c2-9e1a3b5d7f04",
		)
	}
	return nil
}

func mapEntity(ctx context.Context, entity entities.Profile) (*entitlement.Record, error) {
	usage := map[entitlement.Feature]int{}
	if len(entity.Usage) > 0 {
		if err := json.Unmarshal(entity.Usage, &usage); err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeInternal,
				"failed to decode usage counters",
				err,
				"e0a2c4d6-5f93-4b17-a8e0-1c3f5b7d9a26",
			)
		}
	}
	return &entitlement.Record{
		UserID: entity.UserID,
		Tier:   entitlement.Tier(entity.Tier),
		Usage:  usage,
	}, nil
}

func mapRecord(record *entitlement.Record) (entities.Profile, error) {
	usage := record.Usage
	if usage == nil {
		usage = map[entitlement.Feature]int{}
	}
	raw, err := json.Marshal(usage)
	if err != nil {
		return entities.Profile{}, err
	}
	return entities.Profile{
		UserID: record.UserID,
		Tier:   string(record.Tier),
		Usage:  datatypes.JSON(raw),
	}, nil
}
