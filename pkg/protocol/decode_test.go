package protocol_test

import (
	"strings"
	"testing"

	"github.com/avarynx/avatarlink/pkg/protocol"
)

func TestDecode(t *testing.T) {
	t.Run("llm frame with string response", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"llm","response":"hello","request_id":"r1"}`))
		got, ok := ev.(protocol.LlmText)
		if !ok {
			t.Fatalf("expected LlmText, got %T", ev)
		}
		if got.RequestID != "r1" || got.Text != "hello" {
			t.Errorf("unexpected event: %+v", got)
		}
	})

	t.Run("llm frame with object response", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"llm","response":{"text":"nested"},"request_id":"r2"}`))
		got, ok := ev.(protocol.LlmText)
		if !ok {
			t.Fatalf("expected LlmText, got %T", ev)
		}
		if got.Text != "nested" {
			t.Errorf("expected nested text, got %q", got.Text)
		}
	})

	t.Run("tts frame", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"tts","audio":"QUJD","request_id":"r1"}`))
		got, ok := ev.(protocol.TtsAudio)
		if !ok {
			t.Fatalf("expected TtsAudio, got %T", ev)
		}
		if got.RequestID != "r1" || got.AudioBase64 != "QUJD" {
			t.Errorf("unexpected event: %+v", got)
		}
	})

	t.Run("combined llm/tts frame", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"llm/tts","response":"hi","audio":"QUJD","request_id":"r3"}`))
		got, ok := ev.(protocol.LlmTextWithAudio)
		if !ok {
			t.Fatalf("expected LlmTextWithAudio, got %T", ev)
		}
		if got.Text != "hi" || got.AudioBase64 != "QUJD" {
			t.Errorf("unexpected event: %+v", got)
		}
	})

	t.Run("stt frame", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"stt","text":"heard you"}`))
		if _, ok := ev.(protocol.SpeechRecognized); !ok {
			t.Fatalf("expected SpeechRecognized, got %T", ev)
		}
	})

	t.Run("error frame", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"error","response":"model overloaded"}`))
		got, ok := ev.(protocol.PipelineError)
		if !ok {
			t.Fatalf("expected PipelineError, got %T", ev)
		}
		if got.Message != "model overloaded" {
			t.Errorf("expected message, got %q", got.Message)
		}
	})

	t.Run("untagged text and audio", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"text":"legacy","audio":"QUJD"}`))
		got, ok := ev.(protocol.PlainTextWithAudio)
		if !ok {
			t.Fatalf("expected PlainTextWithAudio, got %T", ev)
		}
		if got.Text != "legacy" || got.AudioBase64 != "QUJD" {
			t.Errorf("unexpected event: %+v", got)
		}
	})

	t.Run("untagged text only", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"text":"just text"}`))
		got, ok := ev.(protocol.PlainText)
		if !ok {
			t.Fatalf("expected PlainText, got %T", ev)
		}
		if got.Text != "just text" {
			t.Errorf("unexpected text %q", got.Text)
		}
	})

	t.Run("unknown step with text degrades to plain text", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"warmup","text":"warming"}`))
		got, ok := ev.(protocol.PlainText)
		if !ok {
			t.Fatalf("expected PlainText, got %T", ev)
		}
		if got.Text != "warming" {
			t.Errorf("unexpected text %q", got.Text)
		}
	})

	t.Run("unknown step without text is unrecognized", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{"step":"warmup"}`))
		if _, ok := ev.(protocol.Unrecognized); !ok {
			t.Fatalf("expected Unrecognized, got %T", ev)
		}
	})

	t.Run("empty object is unrecognized", func(t *testing.T) {
		ev := protocol.Decode([]byte(`{}`))
		if _, ok := ev.(protocol.Unrecognized); !ok {
			t.Fatalf("expected Unrecognized, got %T", ev)
		}
	})

	t.Run("valid non-object JSON is unrecognized", func(t *testing.T) {
		for _, payload := range []string{`"a string"`, `42`, `[1,2]`, `null`} {
			ev := protocol.Decode([]byte(payload))
			if _, ok := ev.(protocol.Unrecognized); !ok {
				t.Errorf("payload %s: expected Unrecognized, got %T", payload, ev)
			}
		}
	})

	t.Run("malformed payload degrades to plain text", func(t *testing.T) {
		ev := protocol.Decode([]byte("hello over the wire"))
		got, ok := ev.(protocol.PlainText)
		if !ok {
			t.Fatalf("expected PlainText, got %T", ev)
		}
		if got.Text != "hello over the wire" {
			t.Errorf("unexpected text %q", got.Text)
		}
	})

	t.Run("empty payload is nil", func(t *testing.T) {
		if ev := protocol.Decode([]byte("  ")); ev != nil {
			t.Errorf("expected nil event, got %T", ev)
		}
	})
}

func TestRequestBytes(t *testing.T) {
	req := &protocol.Request{
		RequestID: "abc",
		Expert:    protocol.Expert{Area: "health", Voice: "af_heart"},
		Text:      "hi",
	}

	data, err := req.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// audio_bytes must serialize as null for text input.
	if want := `"audio_bytes":null`; !strings.Contains(string(data), want) {
		t.Errorf("expected %s in %s", want, data)
	}
	if want := `"request_id":"abc"`; !strings.Contains(string(data), want) {
		t.Errorf("expected %s in %s", want, data)
	}
}
