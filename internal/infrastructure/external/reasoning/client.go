// Package reasoning implements the OpenAI-compatible chat-completion client
// used to judge course progress and to answer student chat messages.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/eduplatform/insight-hub/internal/application/query"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
	"github.com/eduplatform/insight-hub/pkg/circuitbreaker"
	"github.com/eduplatform/insight-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// ClientConfig contains configuration for the reasoning client.
type ClientConfig struct {
	// APIKey authenticates requests. Empty means "not configured".
	APIKey string

	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string

	// Model is the chat-completion model name.
	Model string

	// Temperature and MaxTokens apply to structured judgments.
	Temperature float32
	MaxTokens   int

	// ChatTemperature and ChatMaxTokens apply to chat replies.
	ChatTemperature float32
	ChatMaxTokens   int

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimitBaseDelay is the wait before the first retry after a 429.
	RateLimitBaseDelay time.Duration

	// MaxRateLimitRetries is the number of retries after a 429.
	MaxRateLimitRetries int

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:              apiKey,
		BaseURL:             DefaultBaseURL,
		Model:               "llama-3.1-8b-instant",
		Temperature:         0.7,
		MaxTokens:           2000,
		ChatTemperature:     0.3,
		ChatMaxTokens:       800,
		Timeout:             60 * time.Second,
		RateLimitBaseDelay:  2 * time.Second,
		MaxRateLimitRetries: 3,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client calls the chat-completion API with rate-limit retries and a
// circuit breaker.
type Client struct {
	config  ClientConfig
	api     *openai.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

var (
	_ query.Reasoner      = (*Client)(nil)
	_ query.ChatResponder = (*Client)(nil)
)

// NewClient creates a new reasoning client. A client without an API key is
// valid and reports shared.ErrReasoningNotConfigured on every call.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger.With("component", "reasoning")

	c := &Client{config: config, logger: logger}
	if config.APIKey == "" {
		return c
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	apiConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	c.api = openai.NewClientWithConfig(apiConfig)
	c.breaker = circuitbreaker.ReasoningBreaker(countsAsFailure, func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	})
	return c
}

// Configured reports whether an API key was provided.
func (c *Client) Configured() bool {
	return c.api != nil
}

// Judge sends a single-prompt request and returns the raw model reply.
func (c *Client) Judge(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "Judge", openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
}

// Chat sends a conversation and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, messages []query.ChatMessage) (string, error) {
	return c.complete(ctx, "Chat", openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: c.config.ChatTemperature,
		MaxTokens:   c.config.ChatMaxTokens,
	})
}

func (c *Client) complete(ctx context.Context, op string, req openai.ChatCompletionRequest) (string, error) {
	if !c.Configured() {
		return "", shared.ErrReasoningNotConfigured
	}

	start := time.Now()
	var reply string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		opts := append(
			retry.RateLimitOptions(c.config.RateLimitBaseDelay, c.config.MaxRateLimitRetries, IsRateLimited),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				c.logger.Warn("rate limited, retrying",
					"operation", op, "attempt", attempt, "delay", delay, "error", err)
			}),
		)

		var err error
		reply, err = retry.DoWithData(ctx, func(ctx context.Context) (string, error) {
			resp, err := c.api.CreateChatCompletion(ctx, req)
			if err != nil {
				return "", err
			}
			if len(resp.Choices) == 0 {
				return "", retry.Permanent(errors.New("empty choices in completion response"))
			}
			return resp.Choices[0].Message.Content, nil
		}, opts...)
		return err
	})
	if err != nil {
		c.logger.Warn("completion failed", "operation", op, "latency", time.Since(start), "error", err)
		return "", classify(op, err)
	}

	c.logger.Debug("completion done", "operation", op, "latency", time.Since(start), "chars", len(reply))
	return reply, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// StatusCode extracts the HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// IsRateLimited reports whether the upstream answered 429.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// countsAsFailure keeps caller mistakes and cancellations out of the breaker.
func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	code := StatusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return shared.WrapError("reasoning", op, shared.ErrReasoningUnavailable, "circuit open", err)
	case IsRateLimited(err):
		return shared.WrapError("reasoning", op, shared.ErrReasoningRateLimited, "rate limit retries exhausted", err)
	default:
		return shared.WrapError("reasoning", op, shared.ErrReasoningUnavailable, fmt.Sprintf("completion failed (status %d)", StatusCode(err)), err)
	}
}

func toOpenAIMessages(messages []query.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case query.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case query.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
