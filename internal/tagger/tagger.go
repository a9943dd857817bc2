// Package tagger submits trading-card text to the Anthropic Messages API
// using a per-session credential.
package tagger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Default model parameters, matching the values the service shipped with.
const (
	DefaultModel     = string(anthropic.ModelClaudeSonnet4_20250514)
	DefaultMaxTokens = 4096
)

// ErrInvalidAPIKey indicates the API rejected the presented credential.
var ErrInvalidAPIKey = errors.New("invalid api key")

// APIError is a non-authentication failure reported by the Anthropic API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic api error (status %d): %s", e.StatusCode, e.Message)
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithRequestOptions adds Anthropic client options applied to every request,
// e.g. a custom base URL or HTTP client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(t *Tagger) {
		t.clientOpts = append(t.clientOpts, opts...)
	}
}

// Tagger analyzes card text with a fixed model configuration. The API key is
// supplied per call because each browser session carries its own credential.
type Tagger struct {
	model      anthropic.Model
	maxTokens  int64
	clientOpts []option.RequestOption
}

// New creates a Tagger. Empty model or non-positive maxTokens fall back to
// the defaults.
func New(model string, maxTokens int64, opts ...Option) *Tagger {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	t := &Tagger{
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Analyze sends the card text to the Messages API and returns the model's
// text output. A 401 from the API surfaces as ErrInvalidAPIKey, other API
// rejections as *APIError; transport failures are wrapped.
func (t *Tagger) Analyze(ctx context.Context, apiKey, cardData string) (string, error) {
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, t.clientOpts...)
	client := anthropic.NewClient(clientOpts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(cardData)),
		},
	})
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			if apierr.StatusCode == http.StatusUnauthorized {
				return "", ErrInvalidAPIKey
			}
			return "", &APIError{StatusCode: apierr.StatusCode, Message: apierr.Error()}
		}
		return "", fmt.Errorf("messages request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
