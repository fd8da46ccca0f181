// Package discovery resolves the AI pipeline WebSocket endpoint through
// the gateway's /api/ws-url side channel. The gateway decides which
// provider backs the chat session, so clients never hardcode a socket URL.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avarynx/avatarlink/internal/httpc"
)

// Endpoint is the discovery document returned by the gateway.
type Endpoint struct {
	// WSPath is the relative WebSocket path, e.g. "/api/chat/ws-models_api".
	WSPath string `json:"ws_url"`

	// FullWSURL is the complete URL for external servers. Preferred
	// when present.
	FullWSURL string `json:"full_ws_url"`

	// Host is the server host, used to build a URL when FullWSURL is absent.
	Host string `json:"host"`

	// Provider names the backing AI provider ("local", "openai").
	Provider string `json:"provider"`
}

// URL returns the socket URL to dial. secure selects wss:// when the
// full URL must be built from host and path.
func (e Endpoint) URL(secure bool) string {
	if e.FullWSURL != "" {
		return e.FullWSURL
	}
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s%s", scheme, e.Host, e.WSPath)
}

// Client fetches endpoint documents from a gateway.
type Client struct {
	base   string
	secure bool
	http   *http.Client
}

// NewClient creates a discovery client for the gateway at base
// (e.g. "http://localhost:7300"). secure controls the ws/wss choice
// when the gateway returns no full URL.
func NewClient(base string, secure bool) *Client {
	return &Client{
		base:   base,
		secure: secure,
		http:   httpc.NewClient(10 * time.Second),
	}
}

// Lookup fetches the discovery document.
func (c *Client) Lookup(ctx context.Context) (Endpoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/ws-url", nil)
	if err != nil {
		return Endpoint{}, fmt.Errorf("discovery: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Endpoint{}, fmt.Errorf("discovery: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Endpoint{}, fmt.Errorf("discovery: unexpected status %d", resp.StatusCode)
	}

	var ep Endpoint
	if err := json.NewDecoder(resp.Body).Decode(&ep); err != nil {
		return Endpoint{}, fmt.Errorf("discovery: decode response: %w", err)
	}
	return ep, nil
}

// Resolve implements channel.Resolver: it returns the socket URL to dial.
func (c *Client) Resolve(ctx context.Context) (string, error) {
	ep, err := c.Lookup(ctx)
	if err != nil {
		return "", err
	}
	return ep.URL(c.secure), nil
}
