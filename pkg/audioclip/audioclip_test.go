package audioclip_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/avarynx/avatarlink/pkg/audioclip"
)

// buildWAV assembles a minimal PCM16 mono WAV file with the given
// number of samples.
func buildWAV(sampleRate, samples int) []byte {
	dataLen := samples * 2
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))

	return buf.Bytes()
}

func TestDuration(t *testing.T) {
	t.Run("reads WAV header", func(t *testing.T) {
		clip := buildWAV(24000, 24000)
		dur, err := audioclip.Duration(clip)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dur != time.Second {
			t.Errorf("expected 1s, got %v", dur)
		}
	})

	t.Run("estimates CBR MP3", func(t *testing.T) {
		// MPEG1 Layer III at 128kbps: 0xFF 0xFB, bitrate index 9.
		clip := make([]byte, 16000)
		clip[0], clip[1], clip[2] = 0xFF, 0xFB, 0x90

		dur, err := audioclip.Duration(clip)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 16000 bytes at 128kbps is 1 second.
		if dur != time.Second {
			t.Errorf("expected 1s, got %v", dur)
		}
	})

	t.Run("skips ID3v2 tag", func(t *testing.T) {
		tag := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 100}
		frames := make([]byte, 16000)
		frames[0], frames[1], frames[2] = 0xFF, 0xFB, 0x90

		clip := append(tag, make([]byte, 100)...)
		clip = append(clip, frames...)

		dur, err := audioclip.Duration(clip)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dur != time.Second {
			t.Errorf("expected 1s, got %v", dur)
		}
	})

	t.Run("rejects unknown payload", func(t *testing.T) {
		_, err := audioclip.Duration([]byte("neither a wav nor an mp3"))
		if !errors.Is(err, audioclip.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})

	t.Run("rejects truncated payload", func(t *testing.T) {
		_, err := audioclip.Duration([]byte("RIFF"))
		if !errors.Is(err, audioclip.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}

func TestEstimatePCM16(t *testing.T) {
	t.Run("mono 24kHz", func(t *testing.T) {
		// 48000 bytes = 24000 samples = 1 second.
		got := audioclip.EstimatePCM16(48000, 24000, 1)
		if got != time.Second {
			t.Errorf("expected 1s, got %v", got)
		}
	})

	t.Run("stereo halves the duration", func(t *testing.T) {
		got := audioclip.EstimatePCM16(48000, 24000, 2)
		if got != 500*time.Millisecond {
			t.Errorf("expected 500ms, got %v", got)
		}
	})

	t.Run("invalid parameters fall back to defaults", func(t *testing.T) {
		got := audioclip.EstimatePCM16(48000, 0, 0)
		if got != time.Second {
			t.Errorf("expected 1s with defaulted parameters, got %v", got)
		}
	})
}
