package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/strategist/internal/logging"
)

const (
	messagesURL      = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 2000

	// responses beyond this are cut before decoding
	maxResponseBytes = 10 << 20
)

// ErrNotConfigured is returned by Generate when there is no API key.
var ErrNotConfigured = errors.New("claude provider not configured")

// APIError is a non-200 reply from the Messages API.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("claude API error (status %d)", e.Status)
	}
	return fmt.Sprintf("claude API error (status %d): %s", e.Status, e.Message)
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ClaudeProvider calls Anthropic's Messages API, paced to about one request
// per second with a burst of two.
type ClaudeProvider struct {
	key      string
	model    string
	endpoint string
	http     *http.Client
	pace     *rate.Limiter
}

// NewClaudeProvider builds a provider for model, or the default model when
// empty. An empty key yields a provider that is not Available.
func NewClaudeProvider(apiKey, model string) *ClaudeProvider {
	if model == "" {
		model = defaultModel
	}
	return &ClaudeProvider{
		key:      apiKey,
		model:    model,
		endpoint: messagesURL,
		http:     &http.Client{Timeout: 2 * time.Minute},
		pace:     rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

func (c *ClaudeProvider) Name() string    { return "claude" }
func (c *ClaudeProvider) Available() bool { return c.key != "" }

// Generate sends req as a single user turn and joins the text blocks of the
// reply with blank lines.
func (c *ClaudeProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !c.Available() {
		return Response{}, ErrNotConfigured
	}
	if err := c.pace.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("waiting for rate limit: %w", err)
	}

	payload := messagesRequest{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
		System:    req.SystemPrompt,
		Messages:  []message{{Role: "user", Content: req.UserPrompt}},
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = defaultMaxTokens
	}

	raw, status, err := c.post(ctx, payload)
	if err != nil {
		return Response{}, err
	}
	if status != http.StatusOK {
		apiErr := &APIError{Status: status}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			apiErr.Type, apiErr.Message = eb.Error.Type, eb.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		logging.Error("claude request rejected", "status", status, "type", apiErr.Type, "message", apiErr.Message)
		return Response{}, apiErr
	}

	var mr messagesResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return Response{}, fmt.Errorf("decoding claude response: %w", err)
	}
	var texts []string
	for _, block := range mr.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}

	out := Response{Content: strings.Join(texts, "\n\n"), Model: mr.Model, StopReason: mr.StopReason}
	if out.Truncated() {
		logging.Warn("claude reply hit the token limit", "model", mr.Model, "max_tokens", payload.MaxTokens)
	}
	logging.Debug("claude reply", "model", mr.Model, "stop_reason", mr.StopReason, "blocks", len(mr.Content))
	return out, nil
}

// post sends payload and returns the (size-capped) body and status code.
func (c *ClaudeProvider) post(ctx context.Context, payload messagesRequest) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding claude request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("building claude request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.key)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	logging.Debug("claude request", "model", payload.Model, "prompt_len", len(payload.Messages[0].Content))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("claude request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading claude response: %w", err)
	}
	return raw, resp.StatusCode, nil
}
