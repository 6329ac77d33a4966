package translate

import (
	"context"
	"errors"
)

// Translator converts text from a source language into a target language.
// An empty source lets the engine detect it.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ErrEmptyTranslation is returned when the engine answers without any text.
var ErrEmptyTranslation = errors.New("translation engine returned empty text")
