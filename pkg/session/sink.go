package session

import (
	"time"
)

// Utterance is one playable reply handed to the renderer: the encoded
// audio clip plus the word-timing plan aligned to it. Words, TimesMS and
// DurationsMS are index-aligned; all three are empty when no reply text
// was resolved for the clip.
type Utterance struct {
	Audio       []byte
	Duration    time.Duration
	Words       []string
	TimesMS     []int
	DurationsMS []int
}

// AvatarSink is the rendering capability consumed by the session. The
// real implementation wraps the talking-head renderer; a NullSink is
// used until that module finishes loading.
type AvatarSink interface {
	// SpeakAudio plays a clip with optional word-timing lip-sync.
	SpeakAudio(u Utterance)

	// SpeakText speaks text through the renderer's own TTS path.
	SpeakText(text string)

	// ShowAvatar makes the avatar visible.
	ShowAvatar()
}

// NullSink discards all playback. It stands in for the renderer before
// it is ready, so callers never nil-check the sink.
type NullSink struct{}

func (NullSink) SpeakAudio(Utterance) {}
func (NullSink) SpeakText(string)     {}
func (NullSink) ShowAvatar()          {}
