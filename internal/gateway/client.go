package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/strategist/internal/logging"
	"github.com/abelbrown/strategist/internal/model"
	"github.com/abelbrown/strategist/internal/otel"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	events     *otel.Logger
	backoffs   []time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRate paces requests to rps per second. rps <= 0 disables pacing.
func WithRate(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithEvents records one event per request.
func WithEvents(l *otel.Logger) Option {
	return func(c *Client) { c.events = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		backoffs:   []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Gateway = (*Client)(nil)

// ListProjects returns all projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.doJSONRequest(ctx, "list projects", http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project. The caller is responsible for trimming
// and rejecting empty names.
func (c *Client) CreateProject(ctx context.Context, name string) (model.Project, error) {
	var p model.Project
	payload := map[string]string{"name": name}
	err := c.doJSONRequest(ctx, "create project", http.MethodPost, "/projects", payload, &p)
	return p, err
}

// Upload sends a spreadsheet of articles to a project.
func (c *Client) Upload(ctx context.Context, projectID, filename string, data []byte) (model.UploadSummary, error) {
	var summary model.UploadSummary

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return summary, fmt.Errorf("upload: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return summary, fmt.Errorf("upload: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return summary, fmt.Errorf("upload: build form: %w", err)
	}

	path := "/projects/" + url.PathEscape(projectID) + "/upload-excel"
	err = c.do(ctx, "upload", http.MethodPost, path, mw.FormDataContentType(), body.Bytes(), &summary)
	return summary, err
}

// ListArticles returns a project's articles in server order.
func (c *Client) ListArticles(ctx context.Context, projectID string) ([]model.Article, error) {
	var articles []model.Article
	path := "/projects/" + url.PathEscape(projectID) + "/articles"
	if err := c.doJSONRequest(ctx, "list articles", http.MethodGet, path, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// Analyze runs one analysis. It blocks for as long as the server takes.
func (c *Client) Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	path := "/articles/" + url.PathEscape(req.ArticleID) + "/analyze"
	if err := c.doJSONRequest(ctx, "analyze", http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchArticle returns one article with its stored analysis, if any.
func (c *Client) FetchArticle(ctx context.Context, articleID string) (*model.ArticleDetail, error) {
	var detail model.ArticleDetail
	path := "/articles/" + url.PathEscape(articleID)
	if err := c.doJSONRequest(ctx, "fetch article", http.MethodGet, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Export returns every opportunity of a project's completed articles.
func (c *Client) Export(ctx context.Context, projectID string) (model.Export, error) {
	var exp model.Export
	path := "/projects/" + url.PathEscape(projectID) + "/export"
	err := c.doJSONRequest(ctx, "export", http.MethodPost, path, nil, &exp)
	return exp, err
}

// doJSONRequest marshals payload (if any) and decodes the response into result.
func (c *Client) doJSONRequest(ctx context.Context, op, method, path string, payload, result interface{}) error {
	var body []byte
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = data
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, contentType, body, result)
}

// do executes the request. GETs are retried on 429, 502, 503 and 504; a 500
// is the server's own verdict and is not retried. Other methods are sent once because analysis and upload are not safe to repeat.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body []byte, result interface{}) error {
	attempts := 1
	if method == http.MethodGet {
		attempts += len(c.backoffs)
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(c.backoffs[attempt-1]):
			}
		}

		status, err := c.once(ctx, op, method, path, contentType, body, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(status) {
			break
		}
		logging.Debug("gateway retry", "op", op, "status", status, "attempt", attempt+1)
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, op, method, path, contentType string, body []byte, result interface{}) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%s: rate limiter: %w", op, err)
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("%s: create request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)
		c.record(op, 0, time.Since(start), err)
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		err = fmt.Errorf("%s: read response: %w", op, err)
		c.record(op, resp.StatusCode, time.Since(start), err)
		return resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{Op: op, Status: resp.StatusCode, Detail: errorDetail(data)}
		c.record(op, resp.StatusCode, time.Since(start), rerr)
		return resp.StatusCode, rerr
	}
	c.record(op, resp.StatusCode, time.Since(start), nil)

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) record(op string, status int, dur time.Duration, err error) {
	ev := otel.Event{Level: otel.LevelDebug, Kind: otel.KindGatewayRequest, Comp: "gateway", Msg: op, Status: status, Dur: dur}
	if err != nil {
		ev.Level = otel.LevelWarn
		ev.Kind = otel.KindGatewayError
		ev.Err = err.Error()
		logging.Warn("gateway request failed", "op", op, "status", status, "err", err)
	}
	c.events.Emit(ev)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

// errorDetail extracts {"detail": "..."} from an error body, falling back
// to the trimmed body text.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
		return string(payload.Detail)
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
