package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gofiber/contrib/websocket"

	"github.com/avarynx/avatarlink/pkg/protocol"
)

// pipelineFrame is the outbound frame shape of the simulated pipeline.
// Response carries the reply text as a bare JSON string, matching the
// production pipeline's llm frames.
type pipelineFrame struct {
	Step      protocol.Step `json:"step"`
	Response  string        `json:"response,omitempty"`
	Audio     string        `json:"audio,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Text      string        `json:"text,omitempty"`
}

// handlePipelineWS simulates the AI pipeline for local development.
// For each request it replays the production frame sequence: an stt
// acknowledgement, an llm text frame, then a tts audio frame for the
// same request id.
func (s *Server) handlePipelineWS(conn *websocket.Conn) {
	logger := s.logger.With("remote", conn.RemoteAddr().String())
	logger.Info("pipeline simulator connected")
	defer logger.Info("pipeline simulator disconnected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			frame := pipelineFrame{Step: protocol.StepError, Text: "malformed request"}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
			continue
		}

		if err := s.replyTo(conn, &req); err != nil {
			logger.Warn("pipeline simulator write failed", "error", err)
			return
		}
	}
}

func (s *Server) replyTo(conn *websocket.Conn, req *protocol.Request) error {
	// Speech recognition acknowledgement. Text input still gets one so
	// clients see the same sequence as with voice.
	if err := conn.WriteJSON(pipelineFrame{Step: protocol.StepSTT, Text: req.Text}); err != nil {
		return err
	}

	reply := simulatedReply(req)
	if err := conn.WriteJSON(pipelineFrame{
		Step:      protocol.StepLLM,
		Response:  reply,
		RequestID: req.RequestID,
	}); err != nil {
		return err
	}

	audio := s.simulatedAudio(reply)
	return conn.WriteJSON(pipelineFrame{
		Step:      protocol.StepTTS,
		Audio:     audio,
		RequestID: req.RequestID,
	})
}

// simulatedReply produces a canned assistant answer.
func simulatedReply(req *protocol.Request) string {
	area := req.Expert.Area
	if area == "" {
		area = "general"
	}
	return fmt.Sprintf("As your %s assistant, here is my answer to %q.", area, req.Text)
}

// simulatedAudio synthesizes the reply when a provider is configured,
// falling back to silence so the client timing path still exercises.
func (s *Server) simulatedAudio(text string) string {
	if s.speech != nil {
		if result, err := s.speech.Synthesize(context.Background(), text); err == nil {
			return base64.StdEncoding.EncodeToString(result.Audio)
		}
	}

	// Silent PCM16 at 24kHz, ~60ms per character.
	silence := make([]byte, len(text)*2880)
	return base64.StdEncoding.EncodeToString(silence)
}
