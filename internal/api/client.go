// Package api is the REST client for the draft-queue backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Draft statuses. Sent, deleted and failed are terminal.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusDeleted = "deleted"
	StatusFailed  = "failed"
)

// Draft is the read view of one review item. The backend owns the entity;
// this layer only caches what it is shown.
type Draft struct {
	ID            int64          `json:"id"`
	FromAddress   string         `json:"fromAddress"`
	Subject       string         `json:"subject"`
	OriginalBody  string         `json:"originalBody"`
	DraftResponse string         `json:"draftResponse"`
	FinalResponse string         `json:"finalResponse,omitempty"`
	Status        string         `json:"status"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ReceivedAt    int64          `json:"receivedAt"` // unix millis
}

// Stats are the aggregate queue counters.
type Stats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// User is the authenticated operator.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// MonitorStatus describes the backend's mailbox ingestion loop.
type MonitorStatus struct {
	Enabled        bool  `json:"enabled"`
	LastCheck      int64 `json:"lastCheck,omitempty"` // unix millis
	ProcessedCount int   `json:"processedCount"`
}

// Error is a non-2xx backend response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("backend: status %d", e.StatusCode)
}

// Client talks to the queue backend. Mutating calls are not retried; callers
// surface failures once and leave local state untouched.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken replaces the bearer token (after login).
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		Token string `json:"token"`
		User  *User  `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.User, nil
}

// Me returns the user for the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// ListDrafts fetches the full item list for a filter/search combination.
// status "all" (or empty) means no status filter.
func (c *Client) ListDrafts(ctx context.Context, status, search string, limit int) ([]Draft, error) {
	params := url.Values{}
	if status != "" && status != "all" {
		params.Set("status", status)
	}
	if search != "" {
		params.Set("search", search)
	}
	if limit <= 0 {
		limit = 100
	}
	params.Set("limit", strconv.Itoa(limit))

	var out struct {
		Drafts []Draft `json:"drafts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/queue/drafts?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Drafts, nil
}

// ApproveDraft sends the draft response as-is.
func (c *Client) ApproveDraft(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/queue/drafts/%d/approve", id), nil, nil)
}

// EditDraft sends an edited response.
func (c *Client) EditDraft(ctx context.Context, id int64, response string) error {
	body := map[string]string{"response": response}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/queue/drafts/%d/edit", id), body, nil)
}

// DeleteDraft discards the draft without sending.
func (c *Client) DeleteDraft(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/queue/drafts/%d/delete", id), nil, nil)
}

// QueueStats fetches the aggregate counters.
func (c *Client) QueueStats(ctx context.Context) (Stats, error) {
	var out struct {
		Stats Stats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/queue/stats", nil, &out); err != nil {
		return Stats{}, err
	}
	return out.Stats, nil
}

// GetMonitorStatus fetches the mailbox ingestion status.
func (c *Client) GetMonitorStatus(ctx context.Context) (*MonitorStatus, error) {
	var out struct {
		Status *MonitorStatus `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/monitor/status", nil, &out); err != nil {
		return nil, err
	}
	return out.Status, nil
}

// ToggleMonitor enables or disables mailbox ingestion.
func (c *Client) ToggleMonitor(ctx context.Context, enabled bool) (*MonitorStatus, error) {
	var out struct {
		Status *MonitorStatus `json:"status"`
	}
	body := map[string]bool{"enabled": enabled}
	if err := c.do(ctx, http.MethodPost, "/api/v1/monitor/toggle", body, &out); err != nil {
		return nil, err
	}
	return out.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
