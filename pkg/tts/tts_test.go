package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avarynx/avatarlink/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio data")
		}
		if result.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", result.CharCount)
		}
	})

	t.Run("Health returns nil", func(t *testing.T) {
		if err := mock.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		if mock.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
		}
		last := mock.LastCall()
		if last == nil || last.Method != "Health" {
			t.Errorf("unexpected last call %+v", last)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestElevenLabs(t *testing.T) {
	t.Run("requires API key and voice", func(t *testing.T) {
		if _, err := tts.NewElevenLabs(); !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
		if _, err := tts.NewElevenLabs(tts.WithAPIKey("k")); !errors.Is(err, tts.ErrNoVoice) {
			t.Errorf("expected ErrNoVoice, got %v", err)
		}
	})

	t.Run("Synthesize posts the expected payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/text-to-speech/af_heart" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("xi-api-key") != "test-key" {
				t.Errorf("missing API key header")
			}

			body, _ := io.ReadAll(r.Body)
			var payload struct {
				Text          string `json:"text"`
				ModelID       string `json:"model_id"`
				VoiceSettings struct {
					Stability       float64 `json:"stability"`
					SimilarityBoost float64 `json:"similarity_boost"`
				} `json:"voice_settings"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Errorf("bad payload: %v", err)
			}
			if payload.Text != "hello" || payload.ModelID != tts.ModelMonolingualV1 {
				t.Errorf("unexpected payload %+v", payload)
			}
			if payload.VoiceSettings.Stability != 0.5 || payload.VoiceSettings.SimilarityBoost != 0.5 {
				t.Errorf("unexpected voice settings %+v", payload.VoiceSettings)
			}

			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("mp3-bytes"))
		}))
		defer srv.Close()

		provider, err := tts.NewElevenLabs(
			tts.WithAPIKey("test-key"),
			tts.WithVoice("af_heart"),
			tts.WithBaseURL(srv.URL),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer provider.Close()

		result, err := provider.Synthesize(context.Background(), "hello")
		if err != nil {
			t.Fatalf("synthesize failed: %v", err)
		}
		if string(result.Audio) != "mp3-bytes" {
			t.Errorf("unexpected audio %q", result.Audio)
		}
		if result.ContentType != "audio/mpeg" {
			t.Errorf("unexpected content type %q", result.ContentType)
		}
	})

	t.Run("API errors carry the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		provider, err := tts.NewElevenLabs(
			tts.WithAPIKey("test-key"),
			tts.WithVoice("af_heart"),
			tts.WithBaseURL(srv.URL),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = provider.Synthesize(context.Background(), "hello")
		var apiErr *tts.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", apiErr.StatusCode)
		}
		if !apiErr.IsRetryable() {
			t.Error("429 should be retryable")
		}
	})

	t.Run("empty text is rejected", func(t *testing.T) {
		provider, err := tts.NewElevenLabs(tts.WithAPIKey("k"), tts.WithVoice("v"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := provider.Synthesize(context.Background(), ""); !errors.Is(err, tts.ErrEmptyText) {
			t.Errorf("expected ErrEmptyText, got %v", err)
		}
	})
}

func TestStreamElements(t *testing.T) {
	t.Run("Synthesize builds the query", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("voice"); got != "Brian" {
				t.Errorf("expected voice Brian, got %q", got)
			}
			if got := r.URL.Query().Get("text"); got != "hi there" {
				t.Errorf("unexpected text %q", got)
			}
			w.Write([]byte("audio"))
		}))
		defer srv.Close()

		provider := tts.NewStreamElements(tts.WithBaseURL(srv.URL))
		defer provider.Close()

		result, err := provider.Synthesize(context.Background(), "hi there")
		if err != nil {
			t.Fatalf("synthesize failed: %v", err)
		}
		if string(result.Audio) != "audio" {
			t.Errorf("unexpected audio %q", result.Audio)
		}
	})
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("requires at least one provider", func(t *testing.T) {
		if _, err := tts.NewChain(); !errors.Is(err, tts.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("first success wins", func(t *testing.T) {
		primary := tts.NewMock()
		fallback := tts.NewMock()
		chain, err := tts.NewChain(primary, fallback)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := chain.Synthesize(ctx, "hello"); err != nil {
			t.Fatalf("synthesize failed: %v", err)
		}
		if fallback.CallCount("Synthesize") != 0 {
			t.Error("fallback should not have been consulted")
		}
	})

	t.Run("falls back on failure", func(t *testing.T) {
		primary := tts.WithError(errors.New("primary down"))
		fallback := tts.NewMock()
		chain, err := tts.NewChain(primary, fallback)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		result, err := chain.Synthesize(ctx, "hello")
		if err != nil {
			t.Fatalf("expected fallback to answer: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio from fallback")
		}
	})

	t.Run("aggregates errors when all fail", func(t *testing.T) {
		chain, err := tts.NewChain(
			tts.WithError(errors.New("one")),
			tts.WithError(errors.New("two")),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = chain.Synthesize(ctx, "hello")
		var chainErr *tts.ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("expected ChainError, got %v", err)
		}
		if len(chainErr.Errors) != 2 {
			t.Errorf("expected 2 aggregated errors, got %d", len(chainErr.Errors))
		}
	})

	t.Run("health passes if any provider is healthy", func(t *testing.T) {
		chain, err := tts.NewChain(
			tts.WithError(errors.New("down")),
			tts.NewMock(),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := chain.Health(ctx); err != nil {
			t.Errorf("expected healthy chain, got %v", err)
		}
	})

	t.Run("context cancellation stops the chain", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		chain, err := tts.NewChain(
			tts.WithError(errors.New("down")),
			tts.NewMock(),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = chain.Synthesize(cancelled, "hello")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
