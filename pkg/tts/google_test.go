package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleSynthesizerConcatenatesChunks(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "hi", r.URL.Query().Get("tl"))
		assert.Equal(t, "tw-ob", r.URL.Query().Get("client"))
		_, _ = w.Write([]byte("frame" + r.URL.Query().Get("idx")))
	}))
	defer srv.Close()

	text := strings.Repeat("platform change ", 20)
	audio, err := NewGoogleSynthesizer(srv.URL, time.Second).Synthesize(context.Background(), text, "hi")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, "frame0frame1", string(audio))
}

func TestGoogleSynthesizerStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewGoogleSynthesizer(srv.URL, time.Second).Synthesize(context.Background(), "hello", "xx")
	require.Error(t, err)
}

func TestGoogleSynthesizerEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := NewGoogleSynthesizer(srv.URL, time.Second).Synthesize(context.Background(), "hello", "en")
	assert.True(t, errors.Is(err, ErrEmptyAudio))
}

func TestSplitText(t *testing.T) {
	assert.Nil(t, splitText("   ", 10))
	assert.Equal(t, []string{"short"}, splitText(" short ", 10))

	chunks := splitText("one two three four five", 10)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
	assert.Equal(t, "one two three four five", strings.Join(chunks, " "))

	tamil := strings.Repeat("வணக்கம் ", 60)
	for _, c := range splitText(tamil, maxChunkRunes) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), maxChunkRunes)
	}
}

func TestStubSynthesizer(t *testing.T) {
	stub := &Stub{Failures: map[string]error{"fr": errors.New("quota")}}
	audio, err := stub.Synthesize(context.Background(), "hola", "es")
	require.NoError(t, err)
	assert.Equal(t, "ID3stub:es:hola", string(audio))

	_, err = stub.Synthesize(context.Background(), "bonjour", "fr")
	require.Error(t, err)
}
