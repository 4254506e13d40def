// Package creationrepo persists generation artifacts in the creations
// table.
package creationrepo

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"creatorhub/services/creation-api/internal/domain/creation"
	"creatorhub/services/creation-api/internal/infrastructure/database/entities"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// Repository implements creation.Repository on gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, c *creation.Creation) error {
	entity, err := mapDomain(c)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to encode creation",
			err,
			"1d3f5a7c-9e20-4b64-a8d1-3f5b7d9e1c42",
		)
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to insert creation",
			err,
			"3f5b7d9e-1c42-4a86-90f3-5b7d9e1c3a64",
		)
	}
	return nil
}

// GetByID returns (nil, nil) when no creation has the given ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*creation.Creation, error) {
	var entity entities.Creation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load creation",
			err,
			"5b7d9e1c-3a64-4c08-92b5-7d9e1c3a5f86",
		)
	}
	return mapEntity(ctx, entity)
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]creation.Creation, error) {
	var rows []entities.Creation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list creations",
			err,
			"7d9e1c3a-5f86-4e2a-b4d7-9e1c3a5f7b08",
		)
	}
	return mapEntities(ctx, rows)
}

func (r *Repository) ListPublished(ctx context.Context) ([]creation.Creation, error) {
	var rows []entities.Creation
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list published creations",
			err,
			"9e1c3a5f-7b08-4d4c-a6f9-1c3a5f7b9d20",
		)
	}
	return mapEntities(ctx, rows)
}

func (r *Repository) UpdateLikes(ctx context.Context, id string, likes []string) error {
	if likes == nil {
		likes = []string{}
	}
	raw, err := json.Marshal(likes)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to encode likes",
			err,
			"b0d2f4a6-8c31-4e75-90b2-d4f6a8c0e153",
		)
	}
	return r.updateColumn(ctx, id, "likes", datatypes.JSON(raw),
		"d2f4a6b8-0e53-4f97-82d4-f6a8b0c2e475")
}

func (r *Repository) SetPublished(ctx context.Context, id string, published bool) error {
	return r.updateColumn(ctx, id, "published", published,
		"f4a6b8d0-2e75-41b9-94f6-a8b0d2e4c697")
}

func (r *Repository) updateColumn(ctx context.Context, id, column string, value interface{}, errUUID string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Creation{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update creation",
			result.Error,
			errUUID,
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"creation not found",
			nil,
			"a6b8d0f2-4e97-43db-86a8-b0d2f4e6c819",
		)
	}
	return nil
}

func mapDomain(c *creation.Creation) (entities.Creation, error) {
	likes := c.Likes
	if likes == nil {
		likes = []string{}
	}
	raw, err := json.Marshal(likes)
	if err != nil {
		return entities.Creation{}, err
	}
	return entities.Creation{
		ID:            c.ID,
		UserID:        c.UserID,
		Prompt:        c.Prompt,
		Content:       c.Content,
		Type:          c.Type,
		Published:     c.Published,
		Likes:         datatypes.JSON(raw),
		EstimatedCost: c.EstimatedCost,
	}, nil
}

func mapEntity(ctx context.Context, entity entities.Creation) (*creation.Creation, error) {
	likes := []string{}
	if len(entity.Likes) > 0 {
		if err := json.Unmarshal(entity.Likes, &likes); err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeInternal,
				"failed to decode likes",
				err,
				"c8e0a2b4-6d19-4f3b-98c0-e2a4b6d8f031",
			)
		}
	}
	return &creation.Creation{
		ID:            entity.ID,
		UserID:        entity.UserID,
		Prompt:        entity.Prompt,
		Content:       entity.Content,
		Type:          entity.Type,
		Published:     entity.Published,
		Likes:         likes,
		EstimatedCost: entity.EstimatedCost,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}, nil
}

func mapEntities(ctx context.Context, rows []entities.Creation) ([]creation.Creation, error) {
	out := make([]creation.Creation, 0, len(rows))
	for _, row := range rows {
		c, err := mapEntity(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}
