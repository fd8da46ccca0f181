package protocol

import (
	"encoding/json"
	"strings"
)

// Decode classifies one raw inbound payload into a semantic event.
// It is a pure function: no I/O, no side effects.
//
// Malformed JSON degrades to PlainText carrying the raw payload, or nil
// if the payload is empty. Valid JSON that is not an object yields
// Unrecognized, matching the legacy client behavior of ignoring it.
func Decode(data []byte) Event {
	if !isObject(data) {
		if json.Valid(data) {
			return Unrecognized{}
		}
		raw := strings.TrimSpace(string(data))
		if raw == "" {
			return nil
		}
		return PlainText{Text: raw}
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		raw := strings.TrimSpace(string(data))
		if raw == "" {
			return nil
		}
		return PlainText{Text: raw}
	}

	if env.Step == nil {
		if env.Audio != "" {
			return PlainTextWithAudio{Text: env.Text, AudioBase64: env.Audio}
		}
		if env.Text != "" {
			return PlainText{Text: env.Text}
		}
		return Unrecognized{}
	}

	switch *env.Step {
	case StepError:
		return PipelineError{Message: env.ResponseText()}
	case StepSTT:
		return SpeechRecognized{}
	case StepLLM:
		return LlmText{RequestID: env.RequestID, Text: env.ResponseText()}
	case StepLLMTTS:
		return LlmTextWithAudio{
			RequestID:   env.RequestID,
			Text:        env.ResponseText(),
			AudioBase64: env.Audio,
		}
	case StepTTS:
		return TtsAudio{RequestID: env.RequestID, AudioBase64: env.Audio}
	default:
		// Unknown step tags still surface any text they carry.
		if env.Text != "" {
			return PlainText{Text: env.Text}
		}
		return Unrecognized{}
	}
}

// isObject reports whether the JSON payload is an object. Envelope
// unmarshalling succeeds for "null", so the first byte is checked.
func isObject(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
