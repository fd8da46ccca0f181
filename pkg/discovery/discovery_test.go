package discovery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avarynx/avatarlink/pkg/discovery"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws-url" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ws_url": "/api/chat/ws-models_api",
			"full_ws_url": "wss://frontend.avarynx.mywire.org/api/chat/ws-models_api",
			"host": "frontend.avarynx.mywire.org",
			"provider": "local"
		}`))
	}))
	defer srv.Close()

	c := discovery.NewClient(srv.URL, true)
	ep, err := c.Lookup(context.Background())
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if ep.WSPath != "/api/chat/ws-models_api" {
		t.Errorf("unexpected path %q", ep.WSPath)
	}
	if ep.Provider != "local" {
		t.Errorf("unexpected provider %q", ep.Provider)
	}
	if ep.URL(true) != "wss://frontend.avarynx.mywire.org/api/chat/ws-models_api" {
		t.Errorf("unexpected URL %q", ep.URL(true))
	}
}

func TestLookupErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := discovery.NewClient(srv.URL, false)
	if _, err := c.Lookup(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestEndpointURL(t *testing.T) {
	t.Run("full URL wins", func(t *testing.T) {
		ep := discovery.Endpoint{
			WSPath:    "/ws",
			FullWSURL: "wss://example.org/ws",
			Host:      "other.example.org",
		}
		if got := ep.URL(false); got != "wss://example.org/ws" {
			t.Errorf("unexpected URL %q", got)
		}
	})

	t.Run("built from host and path", func(t *testing.T) {
		ep := discovery.Endpoint{WSPath: "/ws", Host: "example.org"}
		if got := ep.URL(false); got != "ws://example.org/ws" {
			t.Errorf("unexpected URL %q", got)
		}
		if got := ep.URL(true); got != "wss://example.org/ws" {
			t.Errorf("unexpected URL %q", got)
		}
	})
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ws_url": "/ws", "host": "example.org", "provider": "openai"}`))
	}))
	defer srv.Close()

	c := discovery.NewClient(srv.URL, false)
	url, err := c.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if url != "ws://example.org/ws" {
		t.Errorf("unexpected URL %q", url)
	}
}
