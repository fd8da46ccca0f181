// Package reveal implements the incremental "typewriter" display of
// streamed text. The target string grows as tokens arrive; the revealer
// advances a displayed prefix at a fixed character rate, with burst
// compression so the display never queues seconds of backlog after a
// network stall.
package reveal

import (
	"math"
	"time"
)

// DefaultRate is the reveal speed in characters per second.
const DefaultRate = 40.0

// Burst thresholds, expressed as multiples of the rate. A growth larger
// than burstFactor*rate characters in one update fast-forwards the
// display to within tailFactor*rate characters of the new target.
const (
	burstFactor = 1.5
	tailFactor  = 0.5
)

// Revealer tracks a growing target string and a displayed prefix of it.
// It is driven by caller ticks (typically a render loop); state is
// owned by a single goroutine.
type Revealer struct {
	rate   float64
	target []rune

	displayed int     // prefix length in runes
	carry     float64 // fractional characters accumulated across ticks
}

// New creates a revealer with the given rate in characters per second.
// Non-positive rates fall back to DefaultRate.
func New(rate float64) *Revealer {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Revealer{rate: rate}
}

// SetTarget replaces the target string. Growth beyond the burst
// threshold fast-forwards the displayed prefix; a shrinking target
// snaps the prefix down immediately.
func (r *Revealer) SetTarget(text string) {
	next := []rune(text)
	prev := len(r.target)
	r.target = next

	if len(next) < r.displayed {
		r.displayed = len(next)
		r.carry = 0
		return
	}

	growth := len(next) - prev
	if float64(growth) > burstFactor*r.rate {
		keepTail := int(math.Floor(tailFactor * r.rate))
		if keepTail < 0 {
			keepTail = 0
		}
		skipTo := len(next) - keepTail
		if skipTo > r.displayed {
			r.displayed = skipTo
		}
	}
}

// Tick advances the displayed prefix by rate*elapsed characters,
// carrying fractional remainders so the average rate stays exact at
// variable tick intervals. It returns the displayed prefix.
func (r *Revealer) Tick(elapsed time.Duration) string {
	if r.displayed >= len(r.target) {
		return r.Displayed()
	}

	r.carry += elapsed.Seconds() * r.rate
	add := int(r.carry)
	if add > 0 {
		r.carry -= float64(add)
		r.displayed += add
		if r.displayed > len(r.target) {
			r.displayed = len(r.target)
		}
	}
	return r.Displayed()
}

// Displayed returns the currently revealed prefix.
func (r *Revealer) Displayed() string {
	return string(r.target[:r.displayed])
}

// Done reports whether the full target is displayed. Callers render a
// blinking indicator while Done is false.
func (r *Revealer) Done() bool {
	return r.displayed >= len(r.target)
}
