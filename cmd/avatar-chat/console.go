package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avarynx/avatarlink/pkg/reveal"
	"github.com/avarynx/avatarlink/pkg/session"
)

// frameInterval paces the typewriter ticker at roughly 30fps.
const frameInterval = 33 * time.Millisecond

// consoleSink renders assistant replies to a terminal with typewriter
// pacing. Audio is not played; the word timing plan still drives the
// status line so pacing matches the avatar front-end.
type consoleSink struct {
	out io.Writer
}

func newConsoleSink(out io.Writer) *consoleSink {
	return &consoleSink{out: out}
}

func (c *consoleSink) SpeakText(text string) {
	c.typeOut(text)
}

func (c *consoleSink) SpeakAudio(u session.Utterance) {
	if len(u.Words) == 0 {
		fmt.Fprintf(c.out, "(audio, %s)\n", u.Duration.Round(time.Millisecond))
		return
	}
	c.typeOut(strings.Join(u.Words, " "))
}

func (c *consoleSink) ShowAvatar() {}

// typeOut reveals text incrementally at the default characters-per-second
// rate, writing only the newly revealed suffix each frame.
func (c *consoleSink) typeOut(text string) {
	r := reveal.New(reveal.DefaultRate)
	r.SetTarget(text)

	last := time.Now()
	printed := 0
	for !r.Done() {
		time.Sleep(frameInterval)
		now := time.Now()
		shown := r.Tick(now.Sub(last))
		last = now

		if len(shown) > printed {
			fmt.Fprint(c.out, shown[printed:])
			printed = len(shown)
		}
	}
	fmt.Fprintln(c.out)
}
