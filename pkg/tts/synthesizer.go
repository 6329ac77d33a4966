package tts

import (
	"context"
	"errors"
)

// Synthesizer renders text in a language into MP3 audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// ErrEmptyAudio is returned when the engine answers with no audio payload.
var ErrEmptyAudio = errors.New("speech engine returned empty audio")
