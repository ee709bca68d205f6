package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fallback metadata headers. Read before the body is consumed and used
// only when no meta event supplies the values.
const (
	HeaderModel     = "X-Model"
	HeaderSessionID = "X-Session-Id"
)

// ErrUpstreamStatus wraps a non-2xx response from the agent backend.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// StatusError carries the upstream status code so facades can mirror it.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// Client talks to the agent backend. The backend is a black box: it takes
// a chat request and answers with a newline-delimited event feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 0)
}

// NewClientWithTimeout creates a client with a request timeout. A zero
// timeout means no limit, which streaming connections need: a turn may
// legitimately run longer than any fixed budget.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StreamResponse is an open upstream event feed plus the transport-level
// metadata read from headers before the body is consumed.
type StreamResponse struct {
	Body      io.ReadCloser
	Model     string
	SessionID string
}

// Stream POSTs a chat request and returns the live event feed. A non-2xx
// status is decoded into a StatusError; the body is consumed and closed
// in that case.
func (c *Client) Stream(ctx context.Context, req ChatRequest) (*StreamResponse, error) {
	req.Stream = true

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/agent/chat", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeStatusError(resp)
	}

	if resp.Body == nil {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: "upstream response has no body"}
	}

	return &StreamResponse{
		Body:      resp.Body,
		Model:     resp.Header.Get(HeaderModel),
		SessionID: resp.Header.Get(HeaderSessionID),
	}, nil
}

// ListThreads fetches the backend's conversation threads.
func (c *Client) ListThreads(ctx context.Context) (*ThreadsResponse, error) {
	var out ThreadsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/agent/threads", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateThread asks the backend for a new conversation thread.
func (c *Client) CreateThread(ctx context.Context, req CreateThreadRequest) (*Thread, error) {
	var out Thread
	if err := c.doJSON(ctx, http.MethodPost, "/api/agent/threads", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UndoLastAction reverts the agent's most recent action on a thread.
func (c *Client) UndoLastAction(ctx context.Context, req UndoRequest) (*UndoResponse, error) {
	var out UndoResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/agent/actions/undo", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON performs a request/response call, forwarded verbatim and
// independent of the streaming path.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeStatusError reads an error body, preferring the backend's own
// {"error": "..."} shape and falling back to the raw text.
func decodeStatusError(resp *http.Response) error {
	errorBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	var errorResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(errorBody, &errorResp) == nil && errorResp.Error != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorResp.Error}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(errorBody))}
}
