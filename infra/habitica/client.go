package habitica

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

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/CrestNiraj12/groupchat/domain"
	"github.com/CrestNiraj12/groupchat/infra/auth"
)

const clientName = "groupchat"

// Client is a thin HTTP wrapper for the Habitica v3 API.
// It handles base URL construction, credential headers, pacing and the
// response envelope.
type Client struct {
	baseURL       string
	userID        string
	tokenProvider auth.TokenProvider
	http          *http.Client
	limiter       *rate.Limiter
	logger        *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRequestsPerMinute paces outgoing requests. Zero disables pacing.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), min(n, 5))
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Habitica API client for userID.
func NewClient(baseURL, userID string, tp auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		userID:        userID,
		tokenProvider: tp,
		http:          &http.Client{Timeout: 30 * time.Second},
		limiter:       rate.NewLimiter(rate.Every(2*time.Second), 5),
		logger:        log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID returns the id the client authenticates as.
func (c *Client) UserID() string { return c.userID }

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("API %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the domain error kinds.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return domain.ErrPermissionDenied
	case e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500:
		return domain.ErrNetworkFailure
	case e.StatusCode >= 400:
		return domain.ErrValidation
	default:
		return domain.ErrNetworkFailure
	}
}

// envelope is the wrapper around every v3 response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Get performs an authenticated GET request and returns the envelope data.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put performs an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete performs an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := c.tokenProvider.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("auth: %w: %w", domain.ErrUnauthorized, err)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-user", c.userID)
	req.Header.Set("x-api-key", token)
	req.Header.Set("x-client", c.userID+"-"+clientName)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w: %w", domain.ErrNetworkFailure, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w: %w", path, domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w: %w", domain.ErrNetworkFailure, err)
	}
	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = firstNonEmpty(env.Message, env.Error)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parsing response of %s: %w", path, decodeErr)
	}
	if !env.Success {
		return nil, &APIError{Method: method, Path: path, StatusCode: http.StatusBadRequest, Message: firstNonEmpty(env.Message, env.Error)}
	}
	return env.Data, nil
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
