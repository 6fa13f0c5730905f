// Package speech defines the optional voice capabilities of the chat
// front-end: one-shot recognition of a spoken utterance and text-to-speech
// playback. A nil capability is the unavailable variant.
package speech

import (
	"context"
	"errors"
	"io"
)

// ErrUnavailable is returned when a capability was not configured.
var ErrUnavailable = errors.New("speech capability not available")

// Audio is a single recorded utterance. Name carries the file extension the
// recognizer uses to detect the encoding.
type Audio struct {
	Name   string
	Reader io.Reader
}

// Recognizer turns one utterance into text.
type Recognizer interface {
	Recognize(ctx context.Context, audio Audio) (string, error)
}

// Synthesizer speaks text aloud. Speaking the same text again is allowed and
// has no other effect.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Capabilities reports which speech features are present.
type Capabilities struct {
	Recognition bool
	Synthesis   bool
}
