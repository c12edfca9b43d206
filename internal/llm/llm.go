// Package llm wraps the Anthropic Messages API behind a single Complete call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/danielolaszy/jassist/internal/logging"
)

const defaultMaxTokens = 1024

// Prompt is a system/user prompt pair.
type Prompt struct {
	System string
	User   string
}

// ProviderError is a transport, authentication or rate-limit failure of the
// model provider.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("language model provider error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("language model provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Temporary reports whether retrying later could succeed.
func (e *ProviderError) Temporary() bool {
	if e.StatusCode == 429 || e.StatusCode >= 500 {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Client wraps the Anthropic API.
type Client struct {
	api       *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewClient creates a client with the given API key and model.
// SDK retries are off so that one Complete is one request; later options
// may turn them back on.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	all := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		all = append(all, option.WithAPIKey(apiKey))
	}
	all = append(all, opts...)
	client := anthropic.NewClient(all...)
	return &Client{
		api:       &client,
		model:     anthropic.Model(model),
		maxTokens: defaultMaxTokens,
	}
}

// Complete sends a single request and returns the first text block. It makes
// exactly one API call; callers own any retry policy.
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	logging.Debug("calling language model", "model", string(c.model), "prompt_chars", len(p.System)+len(p.User))

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", asProviderError(err)
	}

	logging.Debug("language model responded",
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens)

	for _, block := range msg.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", nil
}

func asProviderError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Err: err}
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{StatusCode: apiErr.StatusCode, Err: err}
	}
	return &ProviderError{Err: err}
}
