package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	streamElementsBaseURL  = "https://api.streamelements.com/kappa/v2/speech"
	providerStreamElements = "streamelements"

	// DefaultStreamElementsVoice matches the voice the avatar renderer
	// falls back to.
	DefaultStreamElementsVoice = "Brian"
)

// StreamElements implements Provider for the free StreamElements speech
// endpoint. No API key is required, which makes it the fallback of last
// resort in a chain.
type StreamElements struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewStreamElements creates a new StreamElements TTS provider.
func NewStreamElements(opts ...Option) *StreamElements {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.Voice == "" {
		cfg.Voice = DefaultStreamElementsVoice
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = streamElementsBaseURL
	}

	return &StreamElements{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "tts.streamelements"),
		baseURL: baseURL,
	}
}

// Synthesize converts text to audio via a simple GET request.
func (s *StreamElements) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()
	endpoint := fmt.Sprintf("%s?voice=%s&text=%s",
		s.baseURL,
		url.QueryEscape(s.config.Voice),
		url.QueryEscape(text),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, WrapError(providerStreamElements, fmt.Errorf("create request: %w", err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, WrapError(providerStreamElements, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Provider:   providerStreamElements,
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerStreamElements, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start).Milliseconds()
	s.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", s.config.Voice,
	)

	return &AudioResult{
		Audio:       audio,
		ContentType: "audio/mpeg",
		CharCount:   len(text),
		LatencyMs:   latency,
	}, nil
}

// Health checks endpoint reachability.
func (s *StreamElements) Health(ctx context.Context) error {
	_, err := s.Synthesize(ctx, "ok")
	return err
}

// Close releases resources.
func (s *StreamElements) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Ensure StreamElements implements Provider.
var _ Provider = (*StreamElements)(nil)
