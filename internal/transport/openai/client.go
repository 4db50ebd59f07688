package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/metrics"
)

// ClientConfig holds connection settings shared by every model adapter.
type ClientConfig struct {
	APIKey  string
	BaseURL string // empty keeps the public OpenAI endpoint
	Timeout time.Duration
}

// NewAPIClient builds the go-openai client shared by all adapters.
func NewAPIClient(cfg ClientConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

// Prober checks model API availability.
type Prober struct {
	client *openai.Client
}

// NewProber creates an availability probe.
func NewProber(client *openai.Client) *Prober {
	return &Prober{client: client}
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (p *Prober) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// classifyAPIError extracts a readable message from an API failure and wraps it
// with domain.ErrUpstream. errType is the metrics label for the failure.
func classifyAPIError(op string, err error) (errType string, wrapped error) {
	wrap := domain.ErrUpstream

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return "request_error", fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return "api_error", fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "timeout", fmt.Errorf("%s request: %w: %w", op, err, wrap)
	}

	return "transport", fmt.Errorf("%s request failed: %v: %w", op, err, wrap)
}

// emptyResponse reports a successful call that carried no usable payload.
func emptyResponse(op string) error {
	return fmt.Errorf("empty %s response: %w", op, domain.ErrUpstream)
}

// extractDetail extracts the "detail" or "error.message" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}

// observe records the call outcome and returns the classified error, if any.
func observe(op, model string, start time.Time, err error) error {
	if err == nil {
		metrics.ObserveUpstream(op, model, time.Since(start), "")
		return nil
	}
	errType, wrapped := classifyAPIError(op, err)
	metrics.ObserveUpstream(op, model, time.Since(start), errType)
	return wrapped
}
