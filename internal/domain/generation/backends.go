// Package generation drives the quota-gated orchestration pipeline: admit,
// safety-check, invoke a backend, persist the artifact, commit usage.
package generation

import "context"

// TextGenerator produces free-form text from an instruction or prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageSynthesizer renders an image from a text prompt.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, prompt string) ([]byte, error)
}

// ImageTransformer applies an edit to caller-supplied image bytes and
// returns a hosted reference URL for the result.
type ImageTransformer interface {
	RemoveBackground(ctx context.Context, image []byte) (string, error)
	RemoveObject(ctx context.Context, image []byte, object string) (string, error)
}

// ObjectStore uploads a binary and returns a durable secure reference URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// DocumentExtractor pulls plain text out of an uploaded document.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, document []byte) (string, error)
}
