// Package api implements the HTTP client for the hosted chart assistant.
//
// The client handles everything that is not real-time:
// - GET  /push - fetch a short-lived push channel token
// - GET  /v1/workspaces - list the account's workspaces
// - POST /v1/workspaces/{id}/messages - submit a chat prompt
// - POST /v1/plans/{id}/proceed - approve a plan in review
//
// Streaming responses arrive over the push channel, not through this client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client is the assistant HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string // API credential for Bearer auth
}

// New creates a new client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewWithToken creates a new client with Bearer authentication.
func NewWithToken(baseURL, token string) *Client {
	c := New(baseURL)
	c.token = token
	return c
}

// PushTokenResponse is the response from GET /push.
type PushTokenResponse struct {
	PushToken string `json:"pushToken"`
}

// PushToken fetches a short-lived token for the push broker connection.
func (c *Client) PushToken(ctx context.Context) (*PushTokenResponse, error) {
	var resp PushTokenResponse
	if err := c.get(ctx, "/push", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Workspace represents one chart-editing workspace on the server.
type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ChartName string `json:"chartName,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// WorkspacesResponse is the response from GET /v1/workspaces.
type WorkspacesResponse struct {
	Workspaces []Workspace `json:"workspaces"`
}

// Workspaces lists the account's workspaces.
func (c *Client) Workspaces(ctx context.Context) (*WorkspacesResponse, error) {
	var resp WorkspacesResponse
	if err := c.get(ctx, "/v1/workspaces", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitMessageRequest is the request body for POST /v1/workspaces/{id}/messages.
type SubmitMessageRequest struct {
	Prompt string `json:"prompt"`
}

// SubmitMessageResponse is the response from POST /v1/workspaces/{id}/messages.
// The response text itself streams in over the push channel afterwards.
type SubmitMessageResponse struct {
	MessageID string `json:"messageId"`
}

// SubmitMessage submits a chat prompt to a workspace.
func (c *Client) SubmitMessage(ctx context.Context, workspaceID string, req *SubmitMessageRequest) (*SubmitMessageResponse, error) {
	var resp SubmitMessageResponse
	path := fmt.Sprintf("/v1/workspaces/%s/messages", url.PathEscape(workspaceID))
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProceedPlanResponse is the response from POST /v1/plans/{id}/proceed.
type ProceedPlanResponse struct {
	PlanID string `json:"planId"`
	Status string `json:"status"`
}

// ProceedPlan approves a plan that is in review, letting the server apply it.
func (c *Client) ProceedPlan(ctx context.Context, planID string) (*ProceedPlanResponse, error) {
	var resp ProceedPlanResponse
	path := fmt.Sprintf("/v1/plans/%s/proceed", url.PathEscape(planID))
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Error represents an error response from the assistant server.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("assistant error (status %d): %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is a server error with the given status code.
func IsStatus(err error, status int) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.StatusCode == status
}

// post sends a POST request and decodes the JSON response.
func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req, respBody)
}

// get sends a GET request with query parameters and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}

	return c.do(req, respBody)
}

func (c *Client) do(req *http.Request, respBody any) error {
	// Correlates client requests with server-side logs
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read maxResponseSize+1 to detect oversized responses while still accepting
	// responses exactly at the limit. If we read more than maxResponseSize, reject.
	respBodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if int64(len(respBodyBytes)) > maxResponseSize {
		return fmt.Errorf("response exceeds maximum size of %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       string(respBodyBytes),
		}
	}

	if err := json.Unmarshal(respBodyBytes, respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
