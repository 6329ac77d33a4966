package tts

import (
	"context"
	"fmt"
	"time"
)

// Stub returns deterministic fake audio, or a configured failure per language.
type Stub struct {
	Failures map[string]error
	Delay    time.Duration
}

// Synthesize implements Synthesizer.
func (s *Stub) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if err, ok := s.Failures[lang]; ok {
		return nil, err
	}
	return []byte(fmt.Sprintf("ID3stub:%s:%s", lang, text)), nil
}
