package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"storefront-checkout/internal/domain"
)

// Error codes the commerce backend returns in error bodies.
const (
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// Auth identifies the tenant and, for signed-in customers, the session token
// sent with every backend call.
type Auth struct {
	TenantKey string
	Token     string
}

// Authenticated reports whether a customer token is present.
func (a Auth) Authenticated() bool {
	return a.Token != ""
}

// Config holds the backend connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks JSON over HTTP to the commerce backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// New builds a Client. A zero timeout defaults to 15 seconds.
func New(cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend base url is required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:     logger,
	}, nil
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: status %d code %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// Unwrap maps backend codes onto domain sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == CodeEmailAlreadyExists:
		return domain.ErrEmailTaken
	case e.Code == CodeInvalidCredentials, e.Status == http.StatusUnauthorized:
		return domain.ErrInvalidCredentials
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status == http.StatusConflict:
		return domain.ErrAlreadyExists
	}
	return nil
}

func (c *Client) do(ctx context.Context, auth Auth, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth.TenantKey != "" {
		req.Header.Set("X-Tenant", auth.TenantKey)
	}
	if auth.Token != "" {
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("backend: %s %s err=%v", method, path, err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Printf("backend: %s %s status=%d code=%s", method, path, resp.StatusCode, apiErr.Code)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
