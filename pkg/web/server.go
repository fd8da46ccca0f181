// Package web is the HTTP gateway for the avatar front-end. It serves
// the WebSocket endpoint discovery route, proxies text-to-speech, and
// bridges the legacy OAuth callback redirect.
package web

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/avarynx/avatarlink/internal/config"
	"github.com/avarynx/avatarlink/pkg/tts"
)

// Pipeline WebSocket paths per model provider.
const (
	pathLocalPipeline  = "/api/chat/ws-models_api"
	pathOpenAIPipeline = "/api/chat/ws-openai"
)

// wsURLResponse is the payload of GET /api/ws-url.
type wsURLResponse struct {
	WSURL     string `json:"ws_url"`
	FullWSURL string `json:"full_ws_url"`
	Host      string `json:"host"`
	Provider  string `json:"provider"`
}

// ttsRequest is the payload of POST /api/tts.
type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Server is the gateway HTTP server.
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	speech tts.Provider
	logger *slog.Logger
}

// NewServer creates the gateway. speech may be nil, in which case
// POST /api/tts answers 503.
func NewServer(cfg *config.Config, speech tts.Provider, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		speech: speech,
		logger: logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "avatarlink gateway",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/ws-url", s.handleWSURL)
	api.Post("/tts", s.handleTTS)
	api.Get("/auth/callback", s.handleAuthCallback)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	if cfg.Pipeline.Simulate {
		app.Get("/ws/pipeline", websocket.New(s.handlePipelineWS))
	}

	s.app = app
	return s
}

// Start blocks serving HTTP on the configured bind address.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Bind, s.cfg.Server.Port)
	s.logger.Info("gateway listening", "addr", addr, "simulate", s.cfg.Pipeline.Simulate)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"provider": s.cfg.Pipeline.Provider,
	})
}

// handleWSURL tells the client which pipeline WebSocket to connect to,
// based on the configured model provider.
func (s *Server) handleWSURL(c *fiber.Ctx) error {
	provider := s.cfg.Pipeline.Provider

	var wsPath string
	switch provider {
	case "local":
		wsPath = pathLocalPipeline
	case "openai":
		wsPath = pathOpenAIPipeline
	default:
		s.logger.Warn("unknown model provider, falling back to local", "provider", provider)
		provider = "local"
		wsPath = pathLocalPipeline
	}

	scheme := "ws"
	if s.cfg.Pipeline.Secure {
		scheme = "wss"
	}
	fullURL := fmt.Sprintf("%s://%s%s", scheme, s.cfg.Pipeline.Host, wsPath)

	s.logger.Debug("ws-url resolved",
		"provider", provider,
		"host", s.cfg.Pipeline.Host,
		"path", wsPath,
	)

	return c.JSON(wsURLResponse{
		WSURL:     wsPath,
		FullWSURL: fullURL,
		Host:      s.cfg.Pipeline.Host,
		Provider:  provider,
	})
}

// handleTTS synthesizes speech for the given text and streams the audio
// back. The provider chain decides which backend answers.
func (s *Server) handleTTS(c *fiber.Ctx) error {
	if s.speech == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "TTS not configured",
		})
	}

	var req ttsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	result, err := s.speech.Synthesize(context.Background(), req.Text)
	if err != nil {
		s.logger.Error("TTS synthesis failed", "error", err, "chars", len(req.Text))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "TTS synthesis failed",
		})
	}

	c.Set(fiber.HeaderContentType, result.ContentType)
	return c.Send(result.Audio)
}

// handleAuthCallback bridges the legacy backend redirect that points at
// /api/auth/callback to the real callback page.
func (s *Server) handleAuthCallback(c *fiber.Ctx) error {
	target := s.cfg.Auth.CallbackPath
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		target += "?" + qs
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}
