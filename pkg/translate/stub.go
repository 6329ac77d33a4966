package translate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Stub is an offline Translator. It returns "[target] text" unless a
// dictionary entry or a configured failure exists for the target.
type Stub struct {
	Dictionary map[string]map[string]string
	Failures   map[string]error
	Delay      time.Duration

	mu    sync.Mutex
	calls []string
}

// Translate implements Translator.
func (s *Stub) Translate(ctx context.Context, text, source, target string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, target)
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if err, ok := s.Failures[target]; ok {
		return "", err
	}
	if entries, ok := s.Dictionary[target]; ok {
		if translated, ok := entries[text]; ok {
			return translated, nil
		}
	}
	return fmt.Sprintf("[%s] %s", target, text), nil
}

// Calls returns the targets requested so far.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}
