package protocol

// Event is the semantic classification of one inbound frame.
// Exactly one event is produced per decoded frame; the orchestrator
// dispatches on the concrete type.
type Event interface {
	event()
}

// PlainText is an unstructured or untagged payload carrying text only.
type PlainText struct {
	Text string
}

// PlainTextWithAudio is an untagged envelope carrying text and audio.
type PlainTextWithAudio struct {
	Text        string
	AudioBase64 string
}

// PipelineError is an envelope with step "error".
type PipelineError struct {
	Message string
}

// SpeechRecognized is an envelope with step "stt".
type SpeechRecognized struct{}

// LlmText is a text-only reply; the matching audio arrives later in a
// TtsAudio frame with the same request id.
type LlmText struct {
	RequestID string
	Text      string
}

// LlmTextWithAudio is a combined reply (step "llm/tts").
type LlmTextWithAudio struct {
	RequestID   string
	Text        string
	AudioBase64 string
}

// TtsAudio carries audio for text sent earlier under the same request id.
type TtsAudio struct {
	RequestID   string
	AudioBase64 string
}

// Unrecognized is a payload that parsed but matched no known shape.
type Unrecognized struct{}

func (PlainText) event()          {}
func (PlainTextWithAudio) event() {}
func (PipelineError) event()      {}
func (SpeechRecognized) event()   {}
func (LlmText) event()            {}
func (LlmTextWithAudio) event()   {}
func (TtsAudio) event()           {}
func (Unrecognized) event()       {}
