package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/domain/creation"
	"creatorhub/services/creation-api/internal/domain/entitlement"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

type fakeProfileStore struct {
	mu      sync.Mutex
	records map[string]*entitlement.Record
	getErr  error
	setErr  error
	sets    []string
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{records: map[string]*entitlement.Record{}}
}

func (s *fakeProfileStore) Get(_ context.Context, userID string) (*entitlement.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	usage := map[entitlement.Feature]int{}
	for feature, count := range record.Usage {
		usage[feature] = count
	}
	return &entitlement.Record{UserID: record.UserID, Tier: record.Tier, Usage: usage}, nil
}

func (s *fakeProfileStore) Create(_ context.Context, record *entitlement.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = record
	return nil
}

func (s *fakeProfileStore) SetUsage(_ context.Context, userID string, feature entitlement.Feature, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	record, ok := s.records[userID]
	if !ok {
		return fmt.Errorf("no record for %s", userID)
	}
	record.Usage[feature] = count
	s.sets = append(s.sets, fmt.Sprintf("%s/%s=%d", userID, feature, count))
	return nil
}

func (s *fakeProfileStore) seed(userID string, tier entitlement.Tier, usage map[entitlement.Feature]int) {
	if usage == nil {
		usage = map[entitlement.Feature]int{}
	}
	s.records[userID] = &entitlement.Record{UserID: userID, Tier: tier, Usage: usage}
}

func (s *fakeProfileStore) count(userID string, feature entitlement.Feature) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		return 0
	}
	return record.Usage[feature]
}

type fakeCreationRepo struct {
	insertErr error
	inserted  []*creation.Creation
}

func (r *fakeCreationRepo) Insert(_ context.Context, c *creation.Creation) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, c)
	return nil
}

func (r *fakeCreationRepo) GetByID(context.Context, string) (*creation.Creation, error) {
	return nil, nil
}
func (r *fakeCreationRepo) ListByUser(context.Context, string) ([]creation.Creation, error) {
	return nil, nil
}
func (r *fakeCreationRepo) ListPublished(context.Context) ([]creation.Creation, error) {
	return nil, nil
}
func (r *fakeCreationRepo) UpdateLikes(context.Context, string, []string) error { return nil }
func (r *fakeCreationRepo) SetPublished(context.Context, string, bool) error    { return nil }

type fakeTextBackend struct {
	reply   string
	err     error
	calls   int
	prompts []string
	// onCall runs inside Generate, letting a test cancel the inbound
	// request context mid-invocation.
	onCall func()
}

func (b *fakeTextBackend) Generate(_ context.Context, prompt string) (string, error) {
	b.calls++
	b.prompts = append(b.prompts, prompt)
	if b.onCall != nil {
		b.onCall()
	}
	return b.reply, b.err
}

type fakeImageBackend struct {
	data  []byte
	err   error
	calls int
}

func (b *fakeImageBackend) Synthesize(context.Context, string) ([]byte, error) {
	b.calls++
	return b.data, b.err
}

type fakeTransformBackend struct {
	url      string
	err      error
	bgCalls  int
	objCalls int
	object   string
}

func (b *fakeTransformBackend) RemoveBackground(context.Context, []byte) (string, error) {
	b.bgCalls++
	return b.url, b.err
}

func (b *fakeTransformBackend) RemoveObject(_ context.Context, _ []byte, object string) (string, error) {
	b.objCalls++
	b.object = object
	return b.url, b.err
}

type fakeObjectStore struct {
	url   string
	err   error
	calls int
	keys  []string
}

func (s *fakeObjectStore) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	s.calls++
	s.keys = append(s.keys, key)
	if s.err != nil {
		return "", s.err
	}
	return s.url, s.err
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (e *fakeExtractor) ExtractText(context.Context, []byte) (string, error) {
	e.calls++
	return e.text, e.err
}

type harness struct {
	svc        *Service
	store      *fakeProfileStore
	repo       *fakeCreationRepo
	text       *fakeTextBackend
	classifier *fakeTextBackend
	images     *fakeImageBackend
	transform  *fakeTransformBackend
	objects    *fakeObjectStore
	extractor  *fakeExtractor
}

func newHarness() *harness {
	log := zerolog.Nop()
	h := &harness{
		store:      newFakeProfileStore(),
		repo:       &fakeCreationRepo{},
		text:       &fakeTextBackend{reply: "generated text"},
		classifier: &fakeTextBackend{reply: "SAFE"},
		images:     &fakeImageBackend{data: []byte("png-bytes")},
		transform:  &fakeTransformBackend{url: "https://cdn.example/edited.png"},
		objects:    &fakeObjectStore{url: "https://cdn.example/generated.png"},
		extractor:  &fakeExtractor{text: "Jane Doe. Ten years of plumbing."},
	}
	h.svc = NewService(Deps{
		Table:     entitlement.DefaultTable(),
		Resolver:  entitlement.NewResolver(h.store, log),
		Safety:    NewSafetyGate(h.classifier, log),
		Creations: creation.NewService(h.repo, log),
		Text:      h.text,
		Images:    h.images,
		Transform: h.transform,
		Objects:   h.objects,
		Extractor: h.extractor,
	}, log)
	return h
}

func wantErrorType(t *testing.T, err error, errorType platformerrors.ErrorType) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", errorType)
	}
	if !platformerrors.IsErrorType(err, errorType) {
		t.Fatalf("expected %s error, got %v", errorType, err)
	}
}

func TestSubmitArticleSuccess(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	got, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "write about beekeeping",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Content != "generated text" {
		t.Errorf("content = %q", got.Content)
	}
	if got.Type != "article" {
		t.Errorf("type = %q, want article", got.Type)
	}
	if len(h.repo.inserted) != 1 {
		t.Fatalf("inserted %d creations, want 1", len(h.repo.inserted))
	}
	if !strings.HasPrefix(got.ID, "cre_") {
		t.Errorf("id = %q, want cre_ prefix", got.ID)
	}
	if n := h.store.count("user-1", entitlement.FeatureArticle); n != 1 {
		t.Errorf("usage = %d, want 1", n)
	}
	// Text features never touch the safety classifier.
	if h.classifier.calls != 0 {
		t.Errorf("classifier calls = %d, want 0", h.classifier.calls)
	}
}

func TestSubmitSeedsFirstTimeCaller(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "newcomer",
		Feature: entitlement.FeatureBlogTitle,
		Prompt:  "titles about sourdough",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n := h.store.count("newcomer", entitlement.FeatureBlogTitle); n != 1 {
		t.Errorf("usage = %d, want 1", n)
	}
}

func TestSubmitRejectsFreeUserAtLimit(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, map[entitlement.Feature]int{
		entitlement.FeatureArticle: 2,
	})

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "one more article",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeQuotaExceeded)

	// Rejection happens before any backend work or usage change.
	if h.text.calls != 0 {
		t.Errorf("text backend calls = %d, want 0", h.text.calls)
	}
	if len(h.repo.inserted) != 0 {
		t.Errorf("inserted %d creations, want 0", len(h.repo.inserted))
	}
	if n := h.store.count("user-1", entitlement.FeatureArticle); n != 2 {
		t.Errorf("usage = %d, want unchanged 2", n)
	}
}

func TestSubmitQuotaIsPerFeature(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, map[entitlement.Feature]int{
		entitlement.FeatureArticle: 2,
	})

	// Article quota exhausted; blog titles still available.
	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureBlogTitle,
		Prompt:  "titles about beekeeping",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSubmitPremiumBypassesQuotaAndCommit(t *testing.T) {
	h := newHarness()
	h.store.seed("vip", entitlement.TierPremium, map[entitlement.Feature]int{
		entitlement.FeatureArticle: 9000,
	})

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "vip",
		Feature: entitlement.FeatureArticle,
		Prompt:  "yet another article",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.store.sets) != 0 {
		t.Errorf("premium caller triggered usage writes: %v", h.store.sets)
	}
}

func TestSubmitImageLastFreeSlot(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, map[entitlement.Feature]int{
		entitlement.FeatureImage: 2,
	})

	got, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImage,
		Prompt:  "a watercolor fox",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Content != h.objects.url {
		t.Errorf("content = %q, want stored object URL", got.Content)
	}
	if h.classifier.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", h.classifier.calls)
	}
	if h.objects.calls != 1 {
		t.Errorf("upload calls = %d, want 1", h.objects.calls)
	}
	if n := h.store.count("user-1", entitlement.FeatureImage); n != 3 {
		t.Errorf("usage = %d, want 3", n)
	}

	// The slot is now gone.
	_, err = h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImage,
		Prompt:  "a second fox",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeQuotaExceeded)
}

func TestSubmitImagePublishFlag(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	got, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImage,
		Prompt:  "a lighthouse",
		Publish: true,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !got.Published {
		t.Error("image creation should honor the publish flag")
	}

	// The flag only applies to image generation.
	got, err = h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "an essay",
		Publish: true,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Published {
		t.Error("text creation must not be publishable at submit time")
	}
}

func TestSubmitUnsafeImagePrompt(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.classifier.reply = "UNSAFE"

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImage,
		Prompt:  "something terrible",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeUnsafeContent)

	if h.images.calls != 0 {
		t.Errorf("image backend calls = %d, want 0", h.images.calls)
	}
	if len(h.repo.inserted) != 0 {
		t.Errorf("inserted %d creations, want 0", len(h.repo.inserted))
	}
	if n := h.store.count("user-1", entitlement.FeatureImage); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitClassifierFailure(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.classifier.err = errors.New("classifier 503")
	h.classifier.reply = ""

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImage,
		Prompt:  "a castle",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeUpstreamUnavailable)

	// A classifier failure is never treated as a verdict.
	if h.images.calls != 0 {
		t.Errorf("image backend calls = %d, want 0", h.images.calls)
	}
	if n := h.store.count("user-1", entitlement.FeatureImage); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitBackendFailureNoIncrement(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.text.err = errors.New("model overloaded")
	h.text.reply = ""

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "an article",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeUpstreamUnavailable)

	if len(h.repo.inserted) != 0 {
		t.Errorf("inserted %d creations, want 0", len(h.repo.inserted))
	}
	if n := h.store.count("user-1", entitlement.FeatureArticle); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}

	// Failed attempts are free: the same request is admitted again.
	h.text.err = nil
	h.text.reply = "generated text"
	if _, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "an article",
	}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if n := h.store.count("user-1", entitlement.FeatureArticle); n != 1 {
		t.Errorf("usage after retry = %d, want 1", n)
	}
}

func TestSubmitUploadFailureNoIncrement(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.objects.err = errors.New("bucket unavailable")

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImage,
		Prompt:  "a fox",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeUpstreamUnavailable)

	if len(h.repo.inserted) != 0 {
		t.Errorf("inserted %d creations, want 0", len(h.repo.inserted))
	}
	if n := h.store.count("user-1", entitlement.FeatureImage); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitPersistFailureNoIncrement(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.repo.insertErr = errors.New("db down")

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "an article",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeUpstreamUnavailable)

	if n := h.store.count("user-1", entitlement.FeatureArticle); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitCommitFailureStillSucceeds(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.store.setErr = errors.New("db down")

	got, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "an article",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got == nil || got.Content == "" {
		t.Fatal("caller should still receive the persisted result")
	}
	if len(h.repo.inserted) != 1 {
		t.Errorf("inserted %d creations, want 1", len(h.repo.inserted))
	}
}

func TestSubmitObjectRemoval(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	got, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:      "user-1",
		Feature:     entitlement.FeatureImageEdit,
		Instruction: "watermark",
		Image:       []byte("jpeg-bytes"),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if h.transform.objCalls != 1 || h.transform.object != "watermark" {
		t.Errorf("object removal calls = %d object = %q", h.transform.objCalls, h.transform.object)
	}
	// The instruction text is screened even though the feature's prompt is not.
	if h.classifier.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", h.classifier.calls)
	}
	if got.Content != h.transform.url {
		t.Errorf("content = %q, want transform URL", got.Content)
	}
}

func TestSubmitBackgroundRemovalSkipsClassifier(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImageEdit,
		Image:   []byte("jpeg-bytes"),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if h.transform.bgCalls != 1 {
		t.Errorf("background removal calls = %d, want 1", h.transform.bgCalls)
	}
	if h.classifier.calls != 0 {
		t.Errorf("classifier calls = %d, want 0", h.classifier.calls)
	}
}

func TestSubmitMultiWordInstructionRejected(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:      "user-1",
		Feature:     entitlement.FeatureImageEdit,
		Instruction: "a car a dog",
		Image:       []byte("jpeg-bytes"),
	})
	wantErrorType(t, err, platformerrors.ErrorTypeValidation)

	if h.transform.objCalls != 0 || h.transform.bgCalls != 0 {
		t.Error("validation failure must not reach the transform backend")
	}
	if h.classifier.calls != 0 {
		t.Errorf("classifier calls = %d, want 0", h.classifier.calls)
	}
	if n := h.store.count("user-1", entitlement.FeatureImageEdit); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitResumeReview(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	got, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:   "user-1",
		Feature:  entitlement.FeatureResume,
		Document: []byte("%PDF-1.7 ..."),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if h.extractor.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", h.extractor.calls)
	}
	if len(h.text.prompts) != 1 || !strings.Contains(h.text.prompts[0], "Ten years of plumbing") {
		t.Errorf("review prompt does not contain extracted text: %v", h.text.prompts)
	}
	if got.Type != "resume-review" {
		t.Errorf("type = %q, want resume-review", got.Type)
	}
}

func TestSubmitEmptyExtraction(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.extractor.text = "   \n\t "

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:   "user-1",
		Feature:  entitlement.FeatureResume,
		Document: []byte("%PDF-1.7 scanned"),
	})
	wantErrorType(t, err, platformerrors.ErrorTypeExtractionEmpty)

	// The generation backend is never invoked with empty text.
	if h.text.calls != 0 {
		t.Errorf("text backend calls = %d, want 0", h.text.calls)
	}
	if n := h.store.count("user-1", entitlement.FeatureResume); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitMalformedDocumentKeepsErrorClass(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)
	h.extractor.err = platformerrors.NewError(context.Background(),
		platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
		"could not parse the uploaded PDF", nil,
		"2e4a6c8d-0f31-4755-b92e-4a6c8d0f2b87")

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:   "user-1",
		Feature:  entitlement.FeatureResume,
		Document: []byte("not a pdf at all"),
	})

	// A bad document is caller input: the response must not be relabelled
	// as a retryable upstream failure.
	wantErrorType(t, err, platformerrors.ErrorTypeValidation)
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeUpstreamUnavailable) {
		t.Errorf("malformed document surfaced as upstream failure: %v", err)
	}
	if h.text.calls != 0 {
		t.Errorf("text backend calls = %d, want 0", h.text.calls)
	}
	if n := h.store.count("user-1", entitlement.FeatureResume); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitMissingInputValidation(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	cases := []struct {
		name string
		req  SubmitRequest
	}{
		{"article without prompt", SubmitRequest{UserID: "user-1", Feature: entitlement.FeatureArticle, Prompt: "  "}},
		{"image without prompt", SubmitRequest{UserID: "user-1", Feature: entitlement.FeatureImage}},
		{"edit without image", SubmitRequest{UserID: "user-1", Feature: entitlement.FeatureImageEdit}},
		{"resume without document", SubmitRequest{UserID: "user-1", Feature: entitlement.FeatureResume}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Submit(context.Background(), tc.req)
			wantErrorType(t, err, platformerrors.ErrorTypeValidation)
		})
	}
}

func TestSubmitUnknownFeature(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: "teleportation",
		Prompt:  "beam me up",
	})
	wantErrorType(t, err, platformerrors.ErrorTypeConfiguration)
}

func TestSubmitProfileStoreFailureIsFatal(t *testing.T) {
	h := newHarness()
	h.store.getErr = errors.New("db down")

	_, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "an article",
	})
	if err == nil {
		t.Fatal("expected error when the profile store is unavailable")
	}
	if h.text.calls != 0 {
		t.Errorf("text backend calls = %d, want 0", h.text.calls)
	}
}

func TestSubmitCallerDisconnectDiscardsResult(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	ctx, cancel := context.WithCancel(context.Background())
	// The inbound context is cancelled while the backend call is in
	// flight; the detached backend context lets the call complete, and
	// the result is discarded before persistence.
	h.text.onCall = cancel

	_, err := h.svc.Submit(ctx, SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureArticle,
		Prompt:  "an article",
	})
	if err == nil {
		t.Fatal("expected error after caller disconnect")
	}
	if h.text.calls != 1 {
		t.Errorf("text backend calls = %d, want 1 (in-flight call completes)", h.text.calls)
	}
	if len(h.repo.inserted) != 0 {
		t.Errorf("inserted %d creations, want 0", len(h.repo.inserted))
	}
	if n := h.store.count("user-1", entitlement.FeatureArticle); n != 0 {
		t.Errorf("usage = %d, want 0", n)
	}
}

func TestSubmitSnapshotCommitOvershoot(t *testing.T) {
	// Two requests admitted against the same snapshot both commit
	// snapshot+1; the counter lands at 1, not 2. Accepted bounded
	// overshoot of the read-modify-write scheme.
	log := zerolog.Nop()
	store := newFakeProfileStore()
	store.seed("user-1", entitlement.TierFree, nil)
	resolver := entitlement.NewResolver(store, log)

	first, err := resolver.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := resolver.CommitUsage(context.Background(), first, entitlement.FeatureArticle); err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}
	if err := resolver.CommitUsage(context.Background(), second, entitlement.FeatureArticle); err != nil {
		t.Fatalf("CommitUsage: %v", err)
	}
	if n := store.count("user-1", entitlement.FeatureArticle); n != 1 {
		t.Errorf("usage = %d, want 1 (both commits wrote snapshot+1)", n)
	}
}

func TestSubmitEstimatedCost(t *testing.T) {
	h := newHarness()
	h.store.seed("user-1", entitlement.TierFree, nil)

	got, err := h.svc.Submit(context.Background(), SubmitRequest{
		UserID:  "user-1",
		Feature: entitlement.FeatureImage,
		Prompt:  "a fox",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.EstimatedCost.IsZero() {
		t.Error("image creation should carry a nonzero estimated cost")
	}
}
