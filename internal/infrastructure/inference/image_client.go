package inference

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"creatorhub/services/creation-api/internal/infrastructure/metrics"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// ImageOptions configures the image synthesis client.
type ImageOptions struct {
	Endpoint string
	Model    string
	Width    int
	Height   int
	Timeout  time.Duration
}

// ImageClient fetches synthesized images from a prompt-in-URL endpoint.
type ImageClient struct {
	client *resty.Client
	opts   ImageOptions
}

func NewImageClient(opts ImageOptions) *ImageClient {
	opts.Endpoint = strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &ImageClient{client: client, opts: opts}
}

// Synthesize returns the raw image bytes for a prompt. A fresh seed per
// call keeps identical prompts from returning cached identical images.
func (c *ImageClient) Synthesize(ctx context.Context, prompt string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/prompt/%s", c.opts.Endpoint, url.PathEscape(prompt))

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"width":  fmt.Sprintf("%d", c.opts.Width),
			"height": fmt.Sprintf("%d", c.opts.Height),
			"model":  c.opts.Model,
			"seed":   fmt.Sprintf("%d", rand.Intn(1_000_000)),
			"nologo": "true",
		}).
		Get(endpoint)
	status := "ok"
	if err != nil || (resp != nil && resp.IsError()) {
		status = "error"
	}
	metrics.RecordBackendCall("image", status, time.Since(start).Seconds())

	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"image synthesis request failed", err,
			"0a2c4e6d-8f13-4547-b90a-2c4e6d8f0b73")
	}
	if resp.IsError() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			fmt.Sprintf("image synthesis returned status %d", resp.StatusCode()), nil,
			"2c4e6d8f-0a35-4769-cb2c-4e6d8f0a2d95")
	}
	body := resp.Bytes()
	if len(body) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"image synthesis returned an empty body", nil,
			"4e6d8f0a-2c57-498b-ad4e-6d8f0a2c4fb7")
	}
	return body, nil
}
