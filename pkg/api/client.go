package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// Client talks to the task and statistics REST services.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a client rooted at baseURL. httpClient carries authentication;
// a nil client falls back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// envelope is the shape every service response is wrapped in.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success *bool           `json:"success,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, "", nil, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindValidation, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, nil, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &Error{Kind: KindValidation, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return &Error{Kind: KindServer, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	if resp.StatusCode >= 300 {
		return &Error{Kind: kindFromStatus(resp.StatusCode), Status: resp.StatusCode, Message: env.errorMessage()}
	}
	if env.Success != nil && !*env.Success {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: env.errorMessage()}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response data: %w", err)}
	}
	return nil
}

func (e envelope) errorMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
