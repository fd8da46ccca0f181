// Package timing estimates per-word speech timing for transcript
// highlighting and lip-sync. TTS engines used by the pipeline do not
// expose phoneme-level timing, so word offsets are derived from text
// shape and the total clip duration alone.
package timing

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// Tunable parameters.
const (
	// MinTotalMS is the floor applied to the clip duration.
	MinTotalMS = 200

	// GapMS is the fixed pause inserted between consecutive words.
	GapMS = 60

	// MinUsableMS is the floor for speaking time after gaps are removed.
	MinUsableMS = 100

	// MinWordMS keeps tiny words visible before rescaling.
	MinWordMS = 80

	// MinScaledWordMS is the hard floor after overflow rescaling.
	MinScaledWordMS = 60
)

// Plan holds per-word timing aligned 1:1 by index. Times and Durations
// are milliseconds from clip start. A Plan never runs longer than the
// clip it was computed for.
type Plan struct {
	Words     []string
	Times     []int
	Durations []int
}

// Empty reports whether the plan has no words.
func (p Plan) Empty() bool {
	return len(p.Words) == 0
}

// TotalMS returns the span covered by the plan, including gaps.
func (p Plan) TotalMS() int {
	if len(p.Words) == 0 {
		return 0
	}
	last := len(p.Words) - 1
	return p.Times[last] + p.Durations[last]
}

// Synthesize computes a timing plan for text spoken over total.
// Empty or whitespace-only text yields an empty plan; callers fall back
// to audio-only playback with no highlighting.
func Synthesize(text string, total time.Duration) Plan {
	words := strings.Fields(text)
	if len(words) == 0 {
		return Plan{}
	}

	totalMS := int(math.Round(float64(total) / float64(time.Millisecond)))
	if totalMS < MinTotalMS {
		totalMS = MinTotalMS
	}

	gaps := len(words) - 1
	usable := totalMS - gaps*GapMS
	if usable < MinUsableMS {
		usable = MinUsableMS
	}

	// Weight by visual word length: letters and digits only, so
	// punctuation-heavy tokens still get a minimal share.
	weights := make([]int, len(words))
	sum := 0
	for i, w := range words {
		weights[i] = wordWeight(w)
		sum += weights[i]
	}
	if sum == 0 {
		sum = 1
	}

	unit := float64(usable) / float64(sum)
	durations := make([]int, len(words))
	durSum := gaps * GapMS
	for i, w := range weights {
		d := int(math.Round(float64(w) * unit))
		if d < MinWordMS {
			d = MinWordMS
		}
		durations[i] = d
		durSum += d
	}

	// The 80ms floor can push the plan past the clip; rescale words
	// (never gaps) to fit, with a post-scale floor.
	if durSum > totalMS {
		scale := float64(totalMS-gaps*GapMS) / float64(durSum-gaps*GapMS)
		for i := range durations {
			d := int(math.Round(float64(durations[i]) * scale))
			if d < MinScaledWordMS {
				d = MinScaledWordMS
			}
			durations[i] = d
		}
	}

	times := make([]int, len(words))
	t := 0
	for i := range words {
		times[i] = t
		t += durations[i]
		if i < len(words)-1 {
			t += GapMS
		}
	}

	return Plan{Words: words, Times: times, Durations: durations}
}

// wordWeight counts letter and number runes, floored at 1.
func wordWeight(word string) int {
	n := 0
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			n++
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}
