// Package auth is a client for the avatarlink account backend.
//
// The backend issues short-lived bearer access tokens and keeps the
// refresh token in an HttpOnly cookie, so the client carries a cookie
// jar and sends it on every request.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/avarynx/avatarlink/internal/httpc"
)

// DefaultTimeout bounds every auth API call.
const DefaultTimeout = 15 * time.Second

// User is the account profile returned by the backend.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	EmailVerified bool   `json:"email_verified"`
}

// Token is the access token issued on login and refresh.
// TokenType is always "Bearer".
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Ack is the generic acknowledgement the backend returns for
// fire-and-forget operations.
type Ack struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Client talks to the auth REST API.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "auth")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client. The replacement
// must carry a cookie jar or refresh will not work.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates an auth client for the given API base URL,
// e.g. "https://api.avarynx.mywire.org".
func NewClient(base string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("auth: empty API base URL")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("auth: create cookie jar: %w", err)
	}

	hc := httpc.NewClient(DefaultTimeout)
	hc.Jar = jar

	c := &Client{
		base:   strings.TrimRight(base, "/"),
		http:   hc,
		logger: slog.Default().With("component", "auth"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register creates a new account. Username is optional.
func (c *Client) Register(ctx context.Context, email, password, username string) (*Ack, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	if u := strings.TrimSpace(username); u != "" {
		body["username"] = u
	}

	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, "", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Login authenticates with an email or username plus password.
// The refresh token cookie is captured by the client's jar.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Token, error) {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var tok Token
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, "", &tok); err != nil {
		return nil, err
	}
	c.logger.Debug("logged in", "token_type", tok.TokenType)
	return &tok, nil
}

// Logout invalidates the refresh token on the backend.
func (c *Client) Logout(ctx context.Context) error {
	var ack Ack
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, "", &ack)
}

// Refresh exchanges the refresh token cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) (*Token, error) {
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, "", &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Me fetches the account profile for the given access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrNoToken
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestPasswordReset asks the backend to email a reset link. The
// backend answers generically whether or not the account exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*Ack, error) {
	body := map[string]string{"email": email}

	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", body, "", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (*Ack, error) {
	body := map[string]string{
		"token":    token,
		"password": password,
	}

	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/auth/reset-password", body, "", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// GoogleOAuthURL returns the URL that starts the Google OAuth flow.
func (c *Client) GoogleOAuthURL() string {
	return c.base + "/api/auth/google/login"
}

// do executes one request and decodes the JSON response into out.
// Error responses are mapped to APIError using the backend's
// detail/message fields.
func (c *Client) do(ctx context.Context, method, path string, body any, accessToken string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("auth: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("auth: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("auth: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data, resp.Status),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("auth: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the backend's error text. FastAPI puts it in
// "detail", other handlers use "message".
func errorMessage(data []byte, fallback string) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fallback
}
