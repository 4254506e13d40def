package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/domain/creation"
	"creatorhub/services/creation-api/internal/infrastructure/auth"
	"creatorhub/services/creation-api/internal/interfaces/httpserver/responses"
)

// CreationHandler exposes the creation log and community endpoints.
type CreationHandler struct {
	service *creation.Service
	log     zerolog.Logger
}

func NewCreationHandler(service *creation.Service, log zerolog.Logger) *CreationHandler {
	return &CreationHandler{
		service: service,
		log:     log.With().Str("component", "creation-handler").Logger(),
	}
}

// List handles GET /v1/creations, returning the caller's creations newest
// first.
func (h *CreationHandler) List(c *gin.Context) {
	list, err := h.service.ListByUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		responses.HandleError(c, err, "failed to list creations")
		return
	}
	c.JSON(http.StatusOK, responses.NewCreationListResponse(list))
}

// ListPublished handles GET /v1/creations/published.
func (h *CreationHandler) ListPublished(c *gin.Context) {
	list, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list published creations")
		return
	}
	c.JSON(http.StatusOK, responses.NewCreationListResponse(list))
}

// ToggleLike handles POST /v1/creations/:id/like.
func (h *CreationHandler) ToggleLike(c *gin.Context) {
	updated, err := h.service.ToggleLike(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		responses.HandleError(c, err, "failed to toggle like")
		return
	}
	c.JSON(http.StatusOK, responses.NewCreationResponse(updated))
}

// TogglePublish handles POST /v1/creations/:id/publish.
func (h *CreationHandler) TogglePublish(c *gin.Context) {
	updated, err := h.service.TogglePublish(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		responses.HandleError(c, err, "failed to toggle publication")
		return
	}
	c.JSON(http.StatusOK, responses.NewCreationResponse(updated))
}
