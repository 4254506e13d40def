package v1

import (
	"github.com/gin-gonic/gin"

	"creatorhub/services/creation-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	ai := group.Group("/ai")
	ai.POST("/generate-article", r.handlers.Generation.GenerateArticle)
	ai.POST("/generate-blog-title", r.handlers.Generation.GenerateBlogTitle)
	ai.POST("/generate-image", r.handlers.Generation.GenerateImage)
	ai.POST("/remove-background", r.handlers.Generation.RemoveBackground)
	ai.POST("/remove-object", r.handlers.Generation.RemoveObject)
	ai.POST("/review-resume", r.handlers.Generation.ReviewResume)

	creations := group.Group("/creations")
	creations.GET("", r.handlers.Creation.List)
	creations.GET("/published", r.handlers.Creation.ListPublished)
	creations.POST("/:id/like", r.handlers.Creation.ToggleLike)
	creations.POST("/:id/publish", r.handlers.Creation.TogglePublish)
}
