package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/models"
	"github.com/noah-isme/pa-broadcaster/pkg/storage"
	"github.com/noah-isme/pa-broadcaster/pkg/translate"
	"github.com/noah-isme/pa-broadcaster/pkg/tts"
)

type panicTranslator struct{}

func (panicTranslator) Translate(context.Context, string, string, string) (string, error) {
	panic("boom")
}

func newTestAdapter(t *testing.T, tr translate.Translator, synth tts.Synthesizer) (*SpeechAdapter, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	adapter := NewSpeechAdapter(tr, synth, store, signer, defaultLanguages(), SpeechAdapterConfig{BaseLanguage: "en", APIPrefix: "/api/v1"}, zap.NewNop())
	return adapter, dir
}

func TestSpeechAdapterBaseLanguageSkipsTranslation(t *testing.T) {
	tr := &translate.Stub{}
	adapter, dir := newTestAdapter(t, tr, &tts.Stub{})

	out, jobErr := adapter.Render(context.Background(), "Gate 4 is now open", "en")
	require.Nil(t, jobErr)
	assert.Equal(t, "Gate 4 is now open", out.Text)
	assert.Empty(t, tr.Calls())
	assert.True(t, strings.HasPrefix(out.AudioURL, "/api/v1/audio/"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "announcement_en_"))
	assert.Equal(t, ".mp3", filepath.Ext(entries[0].Name()))
}

func TestSpeechAdapterTranslatesAndSynthesizes(t *testing.T) {
	adapter, _ := newTestAdapter(t, &translate.Stub{Dictionary: map[string]map[string]string{"es": {"Hello": "Hola"}}}, &tts.Stub{})

	out, jobErr := adapter.Render(context.Background(), "Hello", "es")
	require.Nil(t, jobErr)
	assert.Equal(t, "Hola", out.Text)
	assert.NotEmpty(t, out.AudioURL)
}

func TestSpeechAdapterFailureKinds(t *testing.T) {
	tr := &translate.Stub{Failures: map[string]error{"fr": errors.New("translator offline")}}
	synth := &tts.Stub{Failures: map[string]error{"hi": errors.New("voice missing")}}
	adapter, dir := newTestAdapter(t, tr, synth)

	_, jobErr := adapter.Render(context.Background(), "Hello", "fr")
	require.NotNil(t, jobErr)
	assert.Equal(t, models.JobErrorTranslation, jobErr.Kind)

	_, jobErr = adapter.Render(context.Background(), "Hello", "hi")
	require.NotNil(t, jobErr)
	assert.Equal(t, models.JobErrorSynthesis, jobErr.Kind)

	_, jobErr = adapter.Render(context.Background(), "Hello", "xx")
	require.NotNil(t, jobErr)
	assert.Equal(t, models.JobErrorTranslation, jobErr.Kind)
	assert.True(t, errors.Is(jobErr, ErrUnsupportedLanguage))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpeechAdapterRecoversEnginePanic(t *testing.T) {
	adapter, _ := newTestAdapter(t, panicTranslator{}, &tts.Stub{})

	_, jobErr := adapter.Render(context.Background(), "Hello", "ta")
	require.NotNil(t, jobErr)
	assert.Equal(t, models.JobErrorTranslation, jobErr.Kind)
	assert.Contains(t, jobErr.Error(), "panic")
}

func TestSpeechAdapterArtifactNamesAreUnique(t *testing.T) {
	adapter, dir := newTestAdapter(t, &translate.Stub{}, &tts.Stub{})
	fixed := time.Unix(1700000000, 0)
	adapter.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		_, jobErr := adapter.Render(context.Background(), "Hello", "en")
		require.Nil(t, jobErr)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSpeechAdapterSigningFailureRemovesArtifact(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("", time.Hour)
	adapter := NewSpeechAdapter(&translate.Stub{}, &tts.Stub{}, store, signer, defaultLanguages(), SpeechAdapterConfig{BaseLanguage: "en"}, zap.NewNop())

	out, jobErr := adapter.Render(context.Background(), "Platform change", "en")
	require.NotNil(t, jobErr)
	assert.Equal(t, models.JobErrorSynthesis, jobErr.Kind)
	assert.Empty(t, out.AudioURL)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
