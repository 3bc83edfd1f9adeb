package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/recruit-inbox/internal/model"
)

// DefaultCookieName is the session cookie name the backend issues.
const DefaultCookieName = "session"

// Client is a thin HTTP client for the recruiting platform REST API.
// Session credentials travel as a cookie held in a cookie jar, so cookies
// the backend rotates through Set-Cookie are picked up automatically.
// HTTP 429 is retried with exponential backoff.
type Client struct {
	baseURL    string
	base       *url.URL
	cookieName string
	httpClient *http.Client
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithSessionCookie seeds the cookie jar with the session cookie.
func WithSessionCookie(name, value string) Option {
	return func(c *Client) {
		if name != "" {
			c.cookieName = name
		}
		if value == "" {
			return
		}
		c.httpClient.Jar.SetCookies(c.base, []*http.Cookie{{
			Name:  c.cookieName,
			Value: value,
			Path:  "/",
		}})
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries overrides how many times a rate-limited request is
// retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates a client for the backend rooted at baseURL
// (e.g. https://company.jobs.example.com/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    trimmed,
		base:       base,
		cookieName: DefaultCookieName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionCookie returns the current session cookie value held in the jar,
// which may differ from the seeded value after a rotation.
func (c *Client) SessionCookie() string {
	for _, ck := range c.httpClient.Jar.Cookies(c.base) {
		if ck.Name == c.cookieName {
			return ck.Value
		}
	}
	return ""
}

// ListNotifications fetches up to limit of the most recent notifications,
// newest first.
func (c *Client) ListNotifications(
	ctx context.Context,
	limit int,
) ([]model.Notification, error) {
	path := "/notifications?limit=" + strconv.Itoa(limit)

	var resp NotificationsResponse
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	if resp.Notifications == nil {
		return []model.Notification{}, nil
	}
	return resp.Notifications, nil
}

// MarkRead marks one notification read on the backend.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := "/notifications/" + url.PathEscape(id) + "/read"
	if err := c.Patch(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every notification of the session user read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.Patch(ctx, "/notifications/read-all", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// PresignMedia asks the backend for a fetchable URL for a storage key.
func (c *Client) PresignMedia(
	ctx context.Context,
	key string,
) (*PresignResponse, error) {
	path := "/media/presign?key=" + url.QueryEscape(key)

	var resp PresignResponse
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("presigning media %q: %w", key, err)
	}
	if resp.URL == "" {
		return nil, fmt.Errorf("presigning media %q: empty url in response", key)
	}
	return &resp, nil
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(
	ctx context.Context,
	path string,
	result interface{},
) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Patch performs an HTTP PATCH request with an optional JSON body.
func (c *Client) Patch(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// do builds the request, handles rate limiting with exponential backoff,
// and maps error statuses onto AuthError and StatusError.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	endpoint := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)
			if attempt == c.maxRetries {
				break
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				BaseURL: c.baseURL,
				Message: "session rejected (401); sign in again",
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &StatusError{
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Body:       errorMessage(respBody),
			}
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries, lastErr,
	)
}

// errorMessage extracts the backend's error text from a response body,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var envelope errorResponse
	if json.Unmarshal(body, &envelope) == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
