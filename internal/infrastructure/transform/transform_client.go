// Package transform calls the hosted image transformation service used
// for background and object removal.
package transform

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"creatorhub/services/creation-api/internal/infrastructure/metrics"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// Options configures the transformation client.
type Options struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client posts an image with an effect directive and receives the URL of
// the transformed image.
type Client struct {
	client *resty.Client
	opts   Options
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(opts Options) *Client {
	opts.Endpoint = strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &Client{client: client, opts: opts}
}

// RemoveBackground returns the URL of the image with its background
// removed.
func (c *Client) RemoveBackground(ctx context.Context, image []byte) (string, error) {
	return c.apply(ctx, image, "background_removal")
}

// RemoveObject returns the URL of the image with the named object
// removed.
func (c *Client) RemoveObject(ctx context.Context, image []byte, object string) (string, error) {
	return c.apply(ctx, image, fmt.Sprintf("gen_remove:%s", object))
}

func (c *Client) apply(ctx context.Context, image []byte, effect string) (string, error) {
	start := time.Now()
	var respBody uploadResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.opts.APIKey)).
		SetFileReader("file", "image", bytes.NewReader(image)).
		SetFormData(map[string]string{"effect": effect}).
		SetResult(&respBody).
		Post(c.opts.Endpoint + "/image/upload")
	status := "ok"
	if err != nil || (resp != nil && resp.IsError()) {
		status = "error"
	}
	metrics.RecordBackendCall("transform", status, time.Since(start).Seconds())

	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"image transformation request failed", err,
			"6d8f0a2c-4e79-4b1d-8a6d-8f0a2c4e6db9")
	}
	if resp.IsError() {
		message := respBody.Error.Message
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode())
		}
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			fmt.Sprintf("image transformation rejected: %s", message), nil,
			"8f0a2c4e-6d91-4d3f-9c8f-0a2c4e6d80db")
	}
	if respBody.SecureURL == "" {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"image transformation returned no url", nil,
			"0a2c4e6d-8f13-4f61-be0a-2c4e6d8f02fd")
	}
	return respBody.SecureURL, nil
}
