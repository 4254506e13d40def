package creation

import (
	"context"

	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/utils/creationid"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// Service exposes the artifact log and the community operations.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "creation-service").Logger(),
	}
}

// Append records a produced artifact. Append-only: nothing in the
// generation flow ever updates or deletes a creation.
func (s *Service) Append(ctx context.Context, c *Creation) error {
	if c.ID == "" {
		c.ID = creationid.New()
	}
	if c.Likes == nil {
		c.Likes = []string{}
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "persist creation")
	}
	return nil
}

// ListByUser returns the caller's creations, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Creation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListPublished returns all published creations, newest first.
func (s *Service) ListPublished(ctx context.Context) ([]Creation, error) {
	return s.repo.ListPublished(ctx)
}

// ToggleLike adds or removes the caller from a creation's likes set and
// returns the updated creation.
func (s *Service) ToggleLike(ctx context.Context, id, userID string) (*Creation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load creation")
	}
	if c == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"creation not found", nil, "6b1d9c3a-7e52-4f08-b4a6-0d2c8e5f1a37")
	}

	if c.LikedBy(userID) {
		next := make([]string, 0, len(c.Likes)-1)
		for _, likerID := range c.Likes {
			if likerID != userID {
				next = append(next, likerID)
			}
		}
		c.Likes = next
	} else {
		c.Likes = append(c.Likes, userID)
	}

	if err := s.repo.UpdateLikes(ctx, id, c.Likes); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "update likes")
	}
	return c, nil
}

// TogglePublish flips a creation's published flag. Only the owner may
// publish or unpublish.
func (s *Service) TogglePublish(ctx context.Context, id, userID string) (*Creation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load creation")
	}
	if c == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"creation not found", nil, "c9f2d4e6-1a83-47b5-9e0c-3f6a8b2d5c71")
	}
	if c.UserID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"only the owner can change publication", nil, "e4a7b1c3-8d52-4960-af39-7b0e2c5d8f14")
	}

	c.Published = !c.Published
	if err := s.repo.SetPublished(ctx, id, c.Published); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "update publication")
	}
	return c, nil
}
