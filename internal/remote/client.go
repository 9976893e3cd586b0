package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// Client talks to the remote business API, the source of truth for entities,
// settings and authentication. Every call carries a bounded timeout; a hung
// server surfaces as an error instead of blocking the caller indefinitely.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu       sync.RWMutex
	token    string
	username string
}

// apiEnvelope is the remote API's uniform response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Login authenticates against the remote API and retains the issued bearer
// token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	body := map[string]string{"username": username, "password": password}
	data, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body)
	if err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}

	var result struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return models.User{}, fmt.Errorf("decode login response: %w", err)
	}
	if result.Token == "" {
		return models.User{}, fmt.Errorf("login response missing token")
	}

	c.mu.Lock()
	c.token = result.Token
	c.username = result.Username
	c.mu.Unlock()

	return models.User{ID: result.ID, Username: result.Username}, nil
}

// Username returns the currently authenticated username, or "" before login.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// do performs one request and unwraps the API envelope.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("%s %s: %s", method, path, envelope.Message)
	}
	return envelope.Data, nil
}
