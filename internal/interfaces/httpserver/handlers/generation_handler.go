package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/config"
	"creatorhub/services/creation-api/internal/domain/entitlement"
	"creatorhub/services/creation-api/internal/domain/generation"
	"creatorhub/services/creation-api/internal/infrastructure/auth"
	"creatorhub/services/creation-api/internal/interfaces/httpserver/responses"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// GenerationHandler exposes the AI generation endpoints.
type GenerationHandler struct {
	cfg     *config.Config
	service *generation.Service
	log     zerolog.Logger
}

func NewGenerationHandler(cfg *config.Config, service *generation.Service, log zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "generation-handler").Logger(),
	}
}

type textPromptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type imagePromptRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	Publish bool   `json:"publish"`
}

// GenerateArticle handles POST /v1/ai/generate-article.
func (h *GenerationHandler) GenerateArticle(c *gin.Context) {
	h.handleTextPrompt(c, entitlement.FeatureArticle)
}

// GenerateBlogTitle handles POST /v1/ai/generate-blog-title.
func (h *GenerationHandler) GenerateBlogTitle(c *gin.Context) {
	h.handleTextPrompt(c, entitlement.FeatureBlogTitle)
}

func (h *GenerationHandler) handleTextPrompt(c *gin.Context, feature entitlement.Feature) {
	var req textPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "prompt is required",
			"b8d0f2a4-6c19-4e3d-95b8-d0f2a4c6e83b")
		return
	}

	h.submit(c, generation.SubmitRequest{
		UserID:  auth.UserID(c),
		Feature: feature,
		Prompt:  req.Prompt,
	})
}

// GenerateImage handles POST /v1/ai/generate-image.
func (h *GenerationHandler) GenerateImage(c *gin.Context) {
	var req imagePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "prompt is required",
			"d0f2a4b6-8e31-4f5b-a7d0-f2a4b6d8e05d")
		return
	}

	h.submit(c, generation.SubmitRequest{
		UserID:  auth.UserID(c),
		Feature: entitlement.FeatureImage,
		Prompt:  req.Prompt,
		Publish: req.Publish,
	})
}

// RemoveBackground handles POST /v1/ai/remove-background. Multipart form
// with an "image" file.
func (h *GenerationHandler) RemoveBackground(c *gin.Context) {
	image, ok := h.readUpload(c, "image", h.cfg.MaxImageBytes)
	if !ok {
		return
	}

	h.submit(c, generation.SubmitRequest{
		UserID:  auth.UserID(c),
		Feature: entitlement.FeatureImageEdit,
		Image:   image,
	})
}

// RemoveObject handles POST /v1/ai/remove-object. Multipart form with an
// "image" file and an "object" field naming what to remove.
func (h *GenerationHandler) RemoveObject(c *gin.Context) {
	object := c.PostForm("object")
	if object == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "object field is required",
			"f2a4b6d0-0e53-4a7d-b9f2-a4b6d0e2f47f")
		return
	}
	image, ok := h.readUpload(c, "image", h.cfg.MaxImageBytes)
	if !ok {
		return
	}

	h.submit(c, generation.SubmitRequest{
		UserID:      auth.UserID(c),
		Feature:     entitlement.FeatureImageEdit,
		Instruction: object,
		Image:       image,
	})
}

// ReviewResume handles POST /v1/ai/review-resume. Multipart form with a
// "resume" PDF file.
func (h *GenerationHandler) ReviewResume(c *gin.Context) {
	document, ok := h.readUpload(c, "resume", h.cfg.MaxResumeBytes)
	if !ok {
		return
	}

	h.submit(c, generation.SubmitRequest{
		UserID:   auth.UserID(c),
		Feature:  entitlement.FeatureResume,
		Document: document,
	})
}

func (h *GenerationHandler) submit(c *gin.Context, req generation.SubmitRequest) {
	created, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		responses.HandleError(c, err, "generation failed")
		return
	}
	c.JSON(http.StatusOK, responses.NewCreationResponse(created))
}

// readUpload reads one multipart file, enforcing the configured size cap
// before buffering.
func (h *GenerationHandler) readUpload(c *gin.Context, field string, maxBytes int64) ([]byte, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("%s file is required", field),
			"a4b6d0f2-2c75-4b9f-81a4-b6d0f2c4a69b")
		return nil, false
	}
	if fileHeader.Size > maxBytes {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("%s file exceeds the %d byte limit", field, maxBytes),
			"b6d0f2a4-4e97-4cb1-93b6-d0f2a4e6c8bd")
		return nil, false
	}

	data, err := readAll(fileHeader)
	if err != nil {
		h.log.Error().Err(err).Str("field", field).Msg("failed to read upload")
		responses.HandleNewError(c, platformerrors.ErrorTypeInternal, "failed to read upload",
			"d0f2a4b6-6eb9-4dd3-a5d0-f2a4b6e8d0df")
		return nil, false
	}
	return data, true
}

func readAll(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
