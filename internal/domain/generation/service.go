package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/domain/creation"
	"creatorhub/services/creation-api/internal/domain/entitlement"
	"creatorhub/services/creation-api/internal/infrastructure/metrics"
	"creatorhub/services/creation-api/internal/utils/creationid"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// SubmitRequest is the transient value describing one generation request.
// It lives for the duration of Submit and is never persisted.
type SubmitRequest struct {
	UserID      string
	Feature     entitlement.Feature
	Prompt      string
	Instruction string // object-removal target; empty selects background removal
	Image       []byte
	Document    []byte
	Publish     bool
}

// backendResult is what one backend invocation yields for persistence.
type backendResult struct {
	prompt  string
	content string
	kind    string
	// uploaded is set when an object-store upload succeeded before a later
	// step failed, so the orphaned object can be logged.
	uploaded string
}

// Service is the generation orchestrator. For each request it resolves
// entitlement, gates on quota, optionally screens content, invokes the
// feature's backend, persists the artifact and commits usage — in that
// order, with no step starting before its predecessor completed.
type Service struct {
	table     *entitlement.Table
	resolver  *entitlement.Resolver
	safety    *SafetyGate
	creations *creation.Service
	text      TextGenerator
	images    ImageSynthesizer
	transform ImageTransformer
	objects   ObjectStore
	extractor DocumentExtractor

	backendTimeout time.Duration
	log            zerolog.Logger
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Table     *entitlement.Table
	Resolver  *entitlement.Resolver
	Safety    *SafetyGate
	Creations *creation.Service
	Text      TextGenerator
	Images    ImageSynthesizer
	Transform ImageTransformer
	Objects   ObjectStore
	Extractor DocumentExtractor

	BackendTimeout time.Duration
}

func NewService(deps Deps, log zerolog.Logger) *Service {
	timeout := deps.BackendTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		table:          deps.Table,
		resolver:       deps.Resolver,
		safety:         deps.Safety,
		creations:      deps.Creations,
		text:           deps.Text,
		images:         deps.Images,
		transform:      deps.Transform,
		objects:        deps.Objects,
		extractor:      deps.Extractor,
		backendTimeout: timeout,
		log:            log.With().Str("component", "generation-orchestrator").Logger(),
	}
}

// Submit runs one request through the state machine. On success the
// persisted creation is returned; every failure terminates without a
// usage increment and, before the persistence stage, without an artifact.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*creation.Creation, error) {
	start := time.Now()
	outcome := "failed"
	defer func() {
		metrics.RecordGeneration(string(req.Feature), outcome, time.Since(start).Seconds())
	}()

	desc, err := s.table.Lookup(ctx, req.Feature)
	if err != nil {
		// Code/data mismatch, not caller input. Fail loudly.
		var platformErr *platformerrors.PlatformError
		if errors.As(err, &platformErr) {
			platformerrors.LogError(s.log, platformErr)
		}
		return nil, err
	}

	if err := validate(ctx, req); err != nil {
		outcome = "invalid"
		return nil, err
	}

	record, err := s.resolver.Resolve(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	decision := entitlement.Admit(record, desc)
	if !decision.Admitted {
		outcome = "rejected_quota"
		metrics.RecordQuotaRejection(string(req.Feature), string(record.Tier))
		s.log.Info().
			Str("user_id", req.UserID).
			Str("feature", string(req.Feature)).
			Str("stage", string(StageRejected)).
			Msg("quota gate rejected request")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeQuotaExceeded,
			"free usage limit reached, upgrade to premium to continue", nil,
			"f2b8d4a6-9c13-4e57-b0a2-8e6f1c3d5a79")
	}
	s.logStage(req, StageAdmitted)

	if err := s.runSafetyStage(ctx, req, desc); err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnsafeContent) {
			outcome = "rejected_safety"
			metrics.RecordSafetyBlock(string(req.Feature))
		}
		return nil, err
	}

	// Backend and storage calls run on a detached context so a caller
	// disconnect does not abort work already in flight; the result is
	// discarded before persistence if the caller is gone.
	backendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.backendTimeout)
	defer cancel()

	result, err := s.invokeBackend(backendCtx, req)
	if err != nil {
		return nil, err
	}
	s.logStage(req, StageBackendInvoked)

	if ctx.Err() != nil {
		outcome = "cancelled"
		if result.uploaded != "" {
			s.log.Warn().
				Str("object", result.uploaded).
				Msg("caller disconnected after upload; object is orphaned")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal,
			"request cancelled before the result could be recorded", ctx.Err(),
			"3e7a9b1d-5f24-4c86-a0d3-6b8e2f4c9a15")
	}

	artifact := &creation.Creation{
		ID:            creationid.New(),
		UserID:        req.UserID,
		Prompt:        result.prompt,
		Content:       result.content,
		Type:          result.kind,
		Published:     req.Publish && req.Feature == entitlement.FeatureImage,
		EstimatedCost: EstimateCost(req.Feature),
	}
	if err := s.creations.Append(backendCtx, artifact); err != nil {
		// Generation cost was incurred but the result is lost; the caller
		// is not charged (no usage increment). An uploaded object becomes
		// an orphan; accepted as a bounded leak.
		if result.uploaded != "" {
			s.log.Warn().
				Str("object", result.uploaded).
				Msg("artifact insert failed after upload; object is orphaned")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"could not record the result, please try again", err,
			"b4c6e8f0-1a35-4d79-92b6-5e8f0a2c4d61")
	}
	s.logStage(req, StageArtifactPersisted)

	if err := s.resolver.CommitUsage(backendCtx, record, desc.Name); err != nil {
		// The artifact exists and the caller has the result; failing the
		// request now would charge a retry for a delivered generation.
		// Surface success, leave the counter to the next period reset.
		s.log.Error().
			Err(err).
			Str("user_id", req.UserID).
			Str("feature", string(req.Feature)).
			Msg("usage commit failed after successful persistence")
	} else {
		s.logStage(req, StageUsageCommitted)
	}

	s.logStage(req, StageDone)
	outcome = "success"
	return artifact, nil
}

func validate(ctx context.Context, req SubmitRequest) error {
	missing := ""
	switch req.Feature {
	case entitlement.FeatureArticle, entitlement.FeatureBlogTitle, entitlement.FeatureImage:
		if strings.TrimSpace(req.Prompt) == "" {
			missing = "prompt is required"
		}
	case entitlement.FeatureImageEdit:
		if len(req.Image) == 0 {
			missing = "image is required"
		}
	case entitlement.FeatureResume:
		if len(req.Document) == 0 {
			missing = "resume file is required"
		}
	}
	if missing != "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, missing, nil,
			"7d9f1b3e-5c27-4a68-80e4-9f2b6d8a0c53")
	}

	// Usability guard, not a security check: the object-removal transform
	// handles one object per request.
	if req.Feature == entitlement.FeatureImageEdit && req.Instruction != "" {
		if len(strings.Fields(req.Instruction)) > 1 {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation,
				"describe a single object to remove", nil,
				"5a8c0e2f-7b49-4d13-96a5-1c3e7f9b2d64")
		}
	}
	return nil
}

// runSafetyStage screens the request text when the feature's policy asks
// for it. Image prompts are screened per the feature table; the
// object-removal instruction is screened whenever present.
func (s *Service) runSafetyStage(ctx context.Context, req SubmitRequest, desc entitlement.Descriptor) error {
	var candidate string
	switch {
	case desc.CheckPrompt:
		candidate = req.Prompt
	case req.Feature == entitlement.FeatureImageEdit && req.Instruction != "":
		candidate = req.Instruction
	default:
		return nil
	}

	verdict, err := s.safety.Classify(ctx, candidate)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"content check is unavailable, please try again", err,
			"9c2e4a6b-8d10-4f35-b7c9-0e3a5d7f1b82")
	}
	if verdict == VerdictUnsafe {
		s.log.Info().
			Str("user_id", req.UserID).
			Str("feature", string(req.Feature)).
			Str("stage", string(StageRejected)).
			Msg("safety gate rejected request")
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeUnsafeContent,
			"this request was blocked by our content policy", nil,
			"d6e8f0a2-3b57-4c91-85d0-7f9b1e3c5a26")
	}
	s.logStage(req, StageSafetyChecked)
	return nil
}

func (s *Service) invokeBackend(ctx context.Context, req SubmitRequest) (*backendResult, error) {
	switch req.Feature {
	case entitlement.FeatureArticle:
		return s.generateText(ctx, req.Prompt, req.Prompt, "article")
	case entitlement.FeatureBlogTitle:
		return s.generateText(ctx, req.Prompt, req.Prompt, "blog-title")
	case entitlement.FeatureImage:
		return s.generateImage(ctx, req)
	case entitlement.FeatureImageEdit:
		return s.transformImage(ctx, req)
	case entitlement.FeatureResume:
		return s.reviewResume(ctx, req)
	default:
		// Unreachable: Lookup already rejected unknown features.
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration,
			fmt.Sprintf("no flow for feature %q", req.Feature), nil,
			"1b3d5f7a-9c60-4e24-a8b1-4d6f8a0c2e95")
	}
}

func (s *Service) generateText(ctx context.Context, prompt, label, kind string) (*backendResult, error) {
	content, err := s.text.Generate(ctx, prompt)
	if err != nil {
		return nil, s.backendFailure(ctx, err)
	}
	return &backendResult{prompt: label, content: content, kind: kind}, nil
}

func (s *Service) generateImage(ctx context.Context, req SubmitRequest) (*backendResult, error) {
	data, err := s.images.Synthesize(ctx, req.Prompt)
	if err != nil {
		return nil, s.backendFailure(ctx, err)
	}

	// Upload is a sub-step of backend invocation: the creation can only
	// reference durable storage.
	key := fmt.Sprintf("generated/%s.png", creationid.New())
	url, err := s.objects.Upload(ctx, key, data, "image/png")
	if err != nil {
		return nil, s.backendFailure(ctx, err)
	}
	return &backendResult{prompt: req.Prompt, content: url, kind: "image", uploaded: key}, nil
}

func (s *Service) transformImage(ctx context.Context, req SubmitRequest) (*backendResult, error) {
	if req.Instruction != "" {
		url, err := s.transform.RemoveObject(ctx, req.Image, req.Instruction)
		if err != nil {
			return nil, s.backendFailure(ctx, err)
		}
		return &backendResult{
			prompt:  fmt.Sprintf("Removed %s from image", req.Instruction),
			content: url,
			kind:    "image",
		}, nil
	}

	url, err := s.transform.RemoveBackground(ctx, req.Image)
	if err != nil {
		return nil, s.backendFailure(ctx, err)
	}
	return &backendResult{prompt: "Remove background from image", content: url, kind: "image"}, nil
}

func (s *Service) reviewResume(ctx context.Context, req SubmitRequest) (*backendResult, error) {
	extracted, err := s.extractor.ExtractText(ctx, req.Document)
	if err != nil {
		// A malformed document is caller input, not upstream weather:
		// keep the extractor's error class so the response is not
		// presented as retryable.
		var platformErr *platformerrors.PlatformError
		if errors.As(err, &platformErr) {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "extract resume text")
		}
		return nil, s.backendFailure(ctx, err)
	}
	if strings.TrimSpace(extracted) == "" {
		// Non-retryable with the same input; the generation backend must
		// never be called with empty text.
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeExtractionEmpty,
			"could not read any text from the document, make sure it is a text-based PDF", nil,
			"8e0a2c4d-6f18-4b72-93e5-2a4c6e8f0b17")
	}

	prompt := "Review the following resume and provide constructive feedback on its strengths, " +
		"weaknesses, and areas for improvement. Resume content:\n\n" + extracted
	content, err := s.text.Generate(ctx, prompt)
	if err != nil {
		return nil, s.backendFailure(ctx, err)
	}
	return &backendResult{prompt: "Review the uploaded resume", content: content, kind: "resume-review"}, nil
}

// backendFailure maps any backend or storage error to a retryable
// upstream failure. No automatic retry: the caller decides whether to
// resubmit, and a failed attempt left no state behind.
func (s *Service) backendFailure(ctx context.Context, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain,
		platformerrors.ErrorTypeUpstreamUnavailable,
		"generation failed, please try again in a moment", err,
		"2c4e6a8b-0d39-4f51-87a3-9b1d3f5e7c08")
}

func (s *Service) logStage(req SubmitRequest, stage Stage) {
	s.log.Debug().
		Str("user_id", req.UserID).
		Str("feature", string(req.Feature)).
		Str("stage", string(stage)).
		Msg("state transition")
}
