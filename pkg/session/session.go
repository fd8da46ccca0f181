// Package session coordinates one avatar chat conversation: it sends
// user requests over the channel, correlates streamed text and audio
// replies by request id, synthesizes word timing, and drives the
// renderer sink and transcript.
package session

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avarynx/avatarlink/pkg/audioclip"
	"github.com/avarynx/avatarlink/pkg/protocol"
	"github.com/avarynx/avatarlink/pkg/timing"
)

// ErrNotConnected indicates a submit was attempted with no open channel.
var ErrNotConnected = errors.New("session: not connected to server")

// transcriptLingerMS keeps the transcript visible after playback ends.
const transcriptLingerMS = 300

// Transport is the outbound side of the channel consumed by the session.
type Transport interface {
	Send(payload any) error
	IsConnected() bool
}

// TranscriptFunc receives finalized chat lines for display.
type TranscriptFunc func(role protocol.Role, content string)

// StatusFunc receives human-readable pipeline status updates.
type StatusFunc func(status string)

// VisibilityFunc toggles the transcript overlay during playback.
type VisibilityFunc func(visible bool)

// Config holds the per-session request parameters.
type Config struct {
	Expert protocol.Expert
	User   protocol.UserDetails
}

// Session owns the conversation state: message history, the pending-text
// cache correlating llm and tts frames, and the handoff to the renderer.
type Session struct {
	cfg       Config
	logger    *slog.Logger
	transport Transport

	mu          sync.Mutex
	sink        AvatarSink
	history     []protocol.ChatMessage
	pendingText map[string]string
	hideTimer   *time.Timer
	closed      bool

	onTranscript TranscriptFunc
	onStatus     StatusFunc
	onVisibility VisibilityFunc
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithSink sets the renderer sink. Defaults to NullSink.
func WithSink(sink AvatarSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithTranscript sets the transcript line callback.
func WithTranscript(fn TranscriptFunc) Option {
	return func(s *Session) { s.onTranscript = fn }
}

// WithStatus sets the status callback.
func WithStatus(fn StatusFunc) Option {
	return func(s *Session) { s.onStatus = fn }
}

// WithVisibility sets the transcript visibility callback.
func WithVisibility(fn VisibilityFunc) Option {
	return func(s *Session) { s.onVisibility = fn }
}

// New creates a session over the given transport.
func New(transport Transport, cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:         cfg,
		logger:      slog.Default().With("component", "session"),
		transport:   transport,
		sink:        NullSink{},
		pendingText: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSink swaps the renderer sink, e.g. once the real renderer module
// finishes loading.
func (s *Session) SetSink(sink AvatarSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sink == nil {
		sink = NullSink{}
	}
	s.sink = sink
}

// Submit sends one user utterance to the pipeline. When the channel is
// not open the failure is surfaced and the history stays untouched.
func (s *Session) Submit(text string) error {
	if !s.transport.IsConnected() {
		s.emitStatus("Not connected to server")
		return ErrNotConnected
	}

	s.mu.Lock()
	s.appendHistory(protocol.ChatMessage{Role: protocol.RoleUser, Content: text})
	req := &protocol.Request{
		RequestID:      uuid.NewString(),
		Expert:         s.cfg.Expert,
		UserDetails:    s.cfg.User,
		MessageHistory: s.historyTail(),
		Text:           text,
	}
	s.mu.Unlock()

	s.emitTranscript(protocol.RoleUser, text)
	s.emitStatus("Processing with AI...")

	if err := s.transport.Send(req); err != nil {
		return err
	}
	return nil
}

// HandleRaw decodes one inbound frame and dispatches the event. It is
// the channel's message callback.
func (s *Session) HandleRaw(data []byte) {
	if ev := protocol.Decode(data); ev != nil {
		s.HandleEvent(ev)
	}
}

// HandleEvent applies one semantic event to the session. Events arrive
// in transport order; text and audio for one request id may be two
// frames apart, correlated through the pending-text cache.
func (s *Session) HandleEvent(ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.PlainText:
		s.assistantText(e.Text)
		// No clip for this reply; the renderer speaks it through its
		// own TTS path.
		s.speakText(e.Text)

	case protocol.PlainTextWithAudio:
		s.assistantText(e.Text)
		s.playAudio("", e.Text, e.AudioBase64)

	case protocol.PipelineError:
		s.emitTranscript(protocol.RoleAssistant, "Error: "+e.Message)
		s.emitStatus("Error: " + e.Message)

	case protocol.SpeechRecognized:
		s.emitStatus("Speech recognized")

	case protocol.LlmText:
		s.cacheText(e.RequestID, e.Text)
		s.assistantText(e.Text)
		s.emitStatus("AI processing complete...")

	case protocol.LlmTextWithAudio:
		s.cacheText(e.RequestID, e.Text)
		s.assistantText(e.Text)
		s.playAudio(e.RequestID, e.Text, e.AudioBase64)

	case protocol.TtsAudio:
		s.playAudio(e.RequestID, "", e.AudioBase64)

	case protocol.Unrecognized:
		s.logger.Debug("unrecognized frame ignored")
	}
}

// Reset abandons all pending correlation state. Called around
// reconnects; in-flight requests are not replayed.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingText = make(map[string]string)
}

// Close tears the session down: pending state is dropped and the
// transcript hide timer is stopped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pendingText = make(map[string]string)
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
}

// History returns a copy of the retained message history.
func (s *Session) History() []protocol.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// PendingCount returns the number of unconsumed pending-text entries.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingText)
}

// assistantText records a finalized assistant reply.
func (s *Session) assistantText(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	s.appendHistory(protocol.ChatMessage{Role: protocol.RoleAssistant, Content: text})
	s.mu.Unlock()
	s.emitTranscript(protocol.RoleAssistant, text)
}

// speakText forwards a reply that arrived with no clip attached.
func (s *Session) speakText(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	sink.SpeakText(text)
}

func (s *Session) cacheText(requestID, text string) {
	if requestID == "" {
		return
	}
	s.mu.Lock()
	s.pendingText[requestID] = text
	s.mu.Unlock()
}

// playAudio decodes the clip, resolves the reply text for the request
// id, synthesizes word timing and hands the utterance to the sink.
// Correlation faults degrade to audio-only playback.
func (s *Session) playAudio(requestID, inlineText, audioB64 string) {
	if audioB64 == "" {
		return
	}

	audio, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		s.logger.Warn("failed to decode audio", "error", err)
		s.emitStatus("Error processing audio")
		return
	}

	text := inlineText
	if requestID != "" {
		s.mu.Lock()
		if cached, ok := s.pendingText[requestID]; ok {
			text = cached
			delete(s.pendingText, requestID)
		}
		s.mu.Unlock()
	}

	duration, err := audioclip.Duration(audio)
	if err != nil {
		duration = audioclip.EstimatePCM16(len(audio), audioclip.DefaultSampleRate, audioclip.DefaultChannels)
		s.logger.Debug("no clip header, estimated duration",
			"bytes", len(audio),
			"duration", duration,
		)
	}
	if duration < timing.MinTotalMS*time.Millisecond {
		duration = timing.MinTotalMS * time.Millisecond
	}

	plan := timing.Synthesize(text, duration)

	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()

	s.setTranscriptVisible(true)
	sink.ShowAvatar()
	if plan.Empty() {
		sink.SpeakAudio(Utterance{Audio: audio, Duration: duration})
	} else {
		sink.SpeakAudio(Utterance{
			Audio:       audio,
			Duration:    duration,
			Words:       plan.Words,
			TimesMS:     plan.Times,
			DurationsMS: plan.Durations,
		})
	}
	s.scheduleHide(duration + transcriptLingerMS*time.Millisecond)
	s.emitStatus("Ready")
}

// scheduleHide hides the transcript after playback plus a short linger.
// A new utterance supersedes the previous timer.
func (s *Session) scheduleHide(after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.hideTimer != nil {
		s.hideTimer.Stop()
	}
	s.hideTimer = time.AfterFunc(after, func() {
		s.setTranscriptVisible(false)
	})
}

// appendHistory appends one message, truncating from the front past the
// context bound. Caller holds s.mu.
func (s *Session) appendHistory(msg protocol.ChatMessage) {
	s.history = append(s.history, msg)
	if len(s.history) > protocol.MaxHistory {
		s.history = s.history[len(s.history)-protocol.MaxHistory:]
	}
}

// historyTail returns a copy of the last MaxHistory entries. Caller
// holds s.mu.
func (s *Session) historyTail() []protocol.ChatMessage {
	tail := s.history
	if len(tail) > protocol.MaxHistory {
		tail = tail[len(tail)-protocol.MaxHistory:]
	}
	out := make([]protocol.ChatMessage, len(tail))
	copy(out, tail)
	return out
}

func (s *Session) emitTranscript(role protocol.Role, content string) {
	if s.onTranscript != nil {
		s.onTranscript(role, content)
	}
}

func (s *Session) emitStatus(status string) {
	if s.onStatus != nil {
		s.onStatus(status)
	}
}

func (s *Session) setTranscriptVisible(visible bool) {
	if s.onVisibility != nil {
		s.onVisibility(visible)
	}
}
