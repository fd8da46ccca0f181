// Package audioclip extracts playback duration from encoded audio
// clips. Only container and frame header math happens here; decoding
// and playback belong to the renderer.
package audioclip

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/wav"
)

// ErrUnknownFormat indicates the clip container was not recognized.
var ErrUnknownFormat = errors.New("audioclip: unknown audio format")

// Pipeline TTS output defaults, used by EstimatePCM16 callers when a
// clip has no parseable header.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
)

// Duration returns the playback duration of a WAV or MP3 clip.
// MP3 estimates assume constant bitrate.
func Duration(data []byte) (time.Duration, error) {
	if isWAV(data) {
		dec := wav.NewDecoder(bytes.NewReader(data))
		dur, err := dec.Duration()
		if err != nil {
			return 0, fmt.Errorf("audioclip: wav duration: %w", err)
		}
		if dur <= 0 {
			return 0, fmt.Errorf("audioclip: non-positive wav duration")
		}
		return dur, nil
	}

	if dur, ok := mp3Duration(data); ok {
		return dur, nil
	}

	return 0, ErrUnknownFormat
}

// Layer III bitrates in kbps, indexed by the frame header bitrate field.
var (
	mp3BitratesV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	mp3BitratesV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

// mp3Duration estimates the clip duration from the first frame header,
// treating the stream as CBR. An ID3v2 tag is skipped first.
func mp3Duration(data []byte) (time.Duration, bool) {
	audio := data
	if len(audio) >= 10 && bytes.Equal(audio[0:3], []byte("ID3")) {
		// ID3v2 size is a 4-byte syncsafe integer.
		size := int(audio[6])<<21 | int(audio[7])<<14 | int(audio[8])<<7 | int(audio[9])
		if 10+size >= len(audio) {
			return 0, false
		}
		audio = audio[10+size:]
	}

	if len(audio) < 4 || audio[0] != 0xFF || audio[1]&0xE0 != 0xE0 {
		return 0, false
	}

	version := (audio[1] >> 3) & 0x3
	layer := (audio[1] >> 1) & 0x3
	if layer != 1 { // Layer III only
		return 0, false
	}

	index := audio[2] >> 4
	var kbps int
	if version == 3 {
		kbps = mp3BitratesV1[index]
	} else {
		kbps = mp3BitratesV2[index]
	}
	if kbps == 0 {
		return 0, false
	}

	bits := len(audio) * 8
	return time.Duration(bits) * time.Second / time.Duration(kbps*1000), true
}

// EstimatePCM16 estimates the duration of raw PCM16 audio.
func EstimatePCM16(byteLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	samples := byteLen / (2 * channels)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}
