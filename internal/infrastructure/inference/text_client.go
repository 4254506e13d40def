// Package inference holds the clients for the external generation
// backends.
package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"creatorhub/services/creation-api/internal/infrastructure/metrics"
	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

const defaultTextBaseURL = "https://api.openai.com/v1"

// TextOptions configures one TextClient instance. The safety classifier
// and the generation path share the implementation but may use different
// models.
type TextOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	// MetricName labels backend metrics; defaults to "text".
	MetricName string
}

// TextClient calls an OpenAI-compatible chat completions endpoint.
type TextClient struct {
	client *resty.Client
	opts   TextOptions
}

func NewTextClient(opts TextOptions) *TextClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultTextBaseURL
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if opts.MetricName == "" {
		opts.MetricName = "text"
	}
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &TextClient{client: client, opts: opts}
}

// Generate returns the completion text for a single-message prompt.
func (c *TextClient) Generate(ctx context.Context, prompt string) (string, error) {
	request := openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}

	start := time.Now()
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(request).
		SetResult(&respBody).
		Post(c.opts.BaseURL + "/chat/completions")
	status := "ok"
	if err != nil || (resp != nil && resp.IsError()) {
		status = "error"
	}
	metrics.RecordBackendCall(c.opts.MetricName, status, time.Since(start).Seconds())

	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"chat completion request failed", err,
			"4b6d8f0a-2c57-4e91-83b4-d6f8a0c2e417")
	}
	if resp.IsError() {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			fmt.Sprintf("chat completion returned status %d", resp.StatusCode()), nil,
			"6d8f0a2c-4e79-4103-95d6-f8a0c2e4b639")
	}
	if len(respBody.Choices) == 0 {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			"chat completion returned no choices", nil,
			"8f0a2c4e-6d91-4325-a7f8-0c2e4b6d8a51")
	}
	return respBody.Choices[0].Message.Content, nil
}

func (c *TextClient) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(c.opts.APIKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.opts.APIKey))
	}
	return req
}
