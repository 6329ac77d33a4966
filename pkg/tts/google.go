package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	defaultGoogleURL = "https://translate.google.com/translate_tts"
	maxChunkRunes    = 200
)

// GoogleSynthesizer fetches MP3 speech from the public Google translate_tts endpoint.
// Long text is split into chunks whose MP3 frames are concatenated.
type GoogleSynthesizer struct {
	endpoint string
	client   *http.Client
}

// NewGoogleSynthesizer builds a synthesizer against endpoint (the public one when empty).
func NewGoogleSynthesizer(endpoint string, timeout time.Duration) *GoogleSynthesizer {
	if endpoint == "" {
		endpoint = defaultGoogleURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleSynthesizer{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// Synthesize implements Synthesizer.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := splitText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("synthesize %s: no text", lang)
	}
	var out bytes.Buffer
	for idx, chunk := range chunks {
		audio, err := g.fetch(ctx, chunk, lang, idx, len(chunks))
		if err != nil {
			return nil, err
		}
		out.Write(audio)
	}
	if out.Len() == 0 {
		return nil, ErrEmptyAudio
	}
	return out.Bytes(), nil
}

func (g *GoogleSynthesizer) fetch(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(len([]rune(chunk))))
	q.Set("ttsspeed", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", lang, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesize %s: unexpected status %d", lang, resp.StatusCode)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}

// splitText breaks text into chunks of at most limit runes, preferring
// whitespace and punctuation boundaries.
func splitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}
		cut := limit
		for i := limit; i > limit/2; i-- {
			if unicode.IsSpace(runes[i]) || unicode.IsPunct(runes[i-1]) {
				cut = i
				break
			}
		}
		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	return chunks
}
