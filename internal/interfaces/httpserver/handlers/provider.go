package handlers

import (
	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/config"
	"creatorhub/services/creation-api/internal/domain/creation"
	"creatorhub/services/creation-api/internal/domain/generation"
)

// Provider wires HTTP handlers.
type Provider struct {
	Generation *GenerationHandler
	Creation   *CreationHandler
}

func NewProvider(cfg *config.Config, generationService *generation.Service, creationService *creation.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Generation: NewGenerationHandler(cfg, generationService, log),
		Creation:   NewCreationHandler(creationService, log),
	}
}
