package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// GoogleTranslator calls the public Google Translate web endpoint.
type GoogleTranslator struct {
	endpoint string
	client   *http.Client
}

// NewGoogleTranslator builds a translator against endpoint (the public one when empty).
func NewGoogleTranslator(endpoint string, timeout time.Duration) *GoogleTranslator {
	if endpoint == "" {
		endpoint = defaultGoogleURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleTranslator{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// Translate implements Translator.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = "auto"
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read translate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate %s: unexpected status %d", target, resp.StatusCode)
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse extracts the translated segments from the nested array
// payload: [[["translated","original",...], ...], ...].
func parseGoogleResponse(body []byte) (string, error) {
	var payload []interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(payload) == 0 {
		return "", ErrEmptyTranslation
	}
	segments, ok := payload[0].([]interface{})
	if !ok {
		return "", ErrEmptyTranslation
	}
	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
