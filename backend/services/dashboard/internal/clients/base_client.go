package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"equipviz/backend/services/dashboard/internal/apperr"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Authorizer attaches credentials to an outgoing request.
type Authorizer interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// invalidator is implemented by authorizers that cache credentials.
type invalidator interface {
	Invalidate()
}

// Recorder observes completed backend calls.
type Recorder interface {
	ObserveRequest(endpoint, method string, status int, elapsed time.Duration)
}

// BaseClient provides request helpers against the equipment backend.
type BaseClient struct {
	baseURL  string
	client   HTTPDoer
	auth     Authorizer
	recorder Recorder
}

// Option customises a BaseClient.
type Option func(*BaseClient)

// WithAuthorizer sets the credential source used for every request.
func WithAuthorizer(auth Authorizer) Option {
	return func(c *BaseClient) { c.auth = auth }
}

// WithRecorder sets the metrics sink for backend calls.
func WithRecorder(r Recorder) Option {
	return func(c *BaseClient) { c.recorder = r }
}

// NewBaseClient builds client with base URL.
func NewBaseClient(baseURL string, client HTTPDoer, opts ...Option) *BaseClient {
	c := &BaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *BaseClient) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do executes HTTP request and returns status/body. endpoint labels the call for metrics.
func (c *BaseClient) Do(ctx context.Context, endpoint, method, path string, body io.Reader, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		if err := c.auth.Authorize(ctx, req); err != nil {
			return 0, nil, fmt.Errorf("authorize request: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(endpoint, method, 0, start)
		return 0, nil, err
	}
	defer resp.Body.Close()
	c.observe(endpoint, method, resp.StatusCode, start)

	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := c.auth.(invalidator); ok {
			inv.Invalidate()
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// Call performs the request and classifies the outcome: transport failures become
// BackendUnavailable, non-2xx answers become ServerRejected with the backend's message.
func (c *BaseClient) Call(ctx context.Context, endpoint, method, path string, body io.Reader, headers map[string]string) ([]byte, error) {
	status, respBody, err := c.Do(ctx, endpoint, method, path, body, headers)
	if err != nil {
		return nil, apperr.BackendUnavailable(err)
	}
	if status < 200 || status > 299 {
		return nil, apperr.ServerRejected(status, errorMessage(respBody))
	}
	return respBody, nil
}

// GetJSON fetches path and decodes the JSON answer into out.
func (c *BaseClient) GetJSON(ctx context.Context, endpoint, path string, out interface{}) error {
	body, err := c.Call(ctx, endpoint, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.BackendUnavailable(fmt.Errorf("decode %s: %w", endpoint, err))
	}
	return nil
}

func (c *BaseClient) observe(endpoint, method string, status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveRequest(endpoint, method, status, time.Since(start))
	}
}

// errorMessage extracts {"error": "..."} or {"detail": "..."} from a backend error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
