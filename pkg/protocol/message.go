// Package protocol defines the WebSocket message types exchanged with the
// AI avatar pipeline, and the decoder that classifies inbound frames into
// semantic events.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Step identifies the pipeline stage that produced an inbound frame.
type Step string

const (
	StepError  Step = "error"   // Pipeline failure
	StepSTT    Step = "stt"     // Speech recognized
	StepLLM    Step = "llm"     // Text reply (audio follows separately)
	StepTTS    Step = "tts"     // Audio for an earlier llm reply
	StepLLMTTS Step = "llm/tts" // Combined text + audio reply
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the conversational context.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Expert selects the persona and voice answering a request.
type Expert struct {
	Area  string `json:"area"`
	Voice string `json:"voice"`
}

// UserDetails describes the user on whose behalf a request is made.
type UserDetails struct {
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	Country        string `json:"country"`
	LanguageInput  string `json:"language_input"`
	LanguageOutput string `json:"language_output"`
}

// MaxHistory is the number of chat messages sent as context with each request.
const MaxHistory = 20

// Request is the outbound frame for one user utterance.
// AudioBytes is always null for text input; the field is kept so the
// pipeline sees a stable schema.
type Request struct {
	RequestID      string        `json:"request_id"`
	Expert         Expert        `json:"expert"`
	UserDetails    UserDetails   `json:"user_details"`
	MessageHistory []ChatMessage `json:"message_history"`
	Text           string        `json:"text"`
	AudioBytes     []byte        `json:"audio_bytes"`
}

// Bytes returns the JSON-encoded request.
func (r *Request) Bytes() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal request: %w", err)
	}
	return data, nil
}

// Envelope is the structured inbound frame shape. Frames without a step
// tag use the legacy plain shape {text, audio}.
type Envelope struct {
	Step      *Step           `json:"step,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Audio     string          `json:"audio,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// ResponseText extracts the reply text from the response field, which the
// pipeline sends either as a bare string or as {"text": ...}.
func (e *Envelope) ResponseText() string {
	if len(e.Response) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(e.Response, &s); err == nil {
		return s
	}

	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(e.Response, &obj); err == nil {
		return obj.Text
	}
	return ""
}
