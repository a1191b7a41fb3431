// Package extractor implements the HTTP client for the document
// text-extraction service.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
	"github.com/eduplatform/insight-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// maxBodyBytes bounds the response body read from the service.
const maxBodyBytes = 8 << 20

// ClientConfig contains configuration for the extraction client.
type ClientConfig struct {
	// BaseURL is the academic service base URL.
	BaseURL string

	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client fetches extracted document text over HTTP.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a new extraction client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	logger := config.Logger.With("component", "extractor")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker: circuitbreaker.ExtractorBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
		logger: logger,
	}
}

// contentResponse is the body of GET /documents/{id}/content.
type contentResponse struct {
	Content string `json:"content"`
}

// StatusError is a non-200 answer from the extraction service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("extractor: status %d", e.StatusCode)
	}
	return fmt.Sprintf("extractor: status %d: %s", e.StatusCode, e.Body)
}

// Extract returns the text of a document. Any failure is reported as an
// error of kind shared.ErrDocumentFetchFailed; an empty text is a success.
func (c *Client) Extract(ctx context.Context, doc academic.Document) (string, error) {
	var text string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		text, err = c.fetch(ctx, doc.ID)
		return err
	})
	if err != nil {
		c.logger.Warn("document fetch failed", "document_id", doc.ID.String(), "error", err)
		return "", shared.WrapError("extractor", "Extract", shared.ErrDocumentFetchFailed,
			fmt.Sprintf("document %s", doc.ID), err)
	}
	return text, nil
}

func (c *Client) fetch(ctx context.Context, id academic.ID) (string, error) {
	fullURL := fmt.Sprintf("%s/documents/%s/content", c.config.BaseURL, url.PathEscape(id.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var out contentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return out.Content, nil
}

// IsHealthy reports whether the breaker currently lets calls through.
func (c *Client) IsHealthy() bool {
	return c.breaker.State() != circuitbreaker.StateOpen
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
