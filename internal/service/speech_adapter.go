package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/pa-broadcaster/internal/models"
	"github.com/noah-isme/pa-broadcaster/pkg/translate"
	"github.com/noah-isme/pa-broadcaster/pkg/tts"
)

// ErrUnsupportedLanguage marks a language code missing from the language table.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// JobError is a typed per-language failure.
type JobError struct {
	Kind     models.JobErrorKind
	Language string
	Err      error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Kind, e.Language, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Rendition is a successful language job: translated text and a playable audio reference.
type Rendition struct {
	Text     string
	AudioURL string
}

type audioStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

type audioSigner interface {
	Generate(relPath string) (string, time.Time, error)
}

type languageLookup interface {
	Lookup(code string) (models.Language, bool)
}

// SpeechAdapterConfig tunes the adapter.
type SpeechAdapterConfig struct {
	BaseLanguage string
	APIPrefix    string
	RatePerSec   int
}

// SpeechAdapter translates text into one language and synthesizes it to an audio artifact.
type SpeechAdapter struct {
	translator  translate.Translator
	synthesizer tts.Synthesizer
	store       audioStore
	signer      audioSigner
	languages   languageLookup
	limiter     *rate.Limiter
	cfg         SpeechAdapterConfig
	now         func() time.Time
	logger      *zap.Logger
}

// NewSpeechAdapter wires the engines and the audio store.
func NewSpeechAdapter(translator translate.Translator, synthesizer tts.Synthesizer, store audioStore, signer audioSigner, languages languageLookup, cfg SpeechAdapterConfig, logger *zap.Logger) *SpeechAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseLanguage == "" {
		cfg.BaseLanguage = "en"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &SpeechAdapter{
		translator:  translator,
		synthesizer: synthesizer,
		store:       store,
		signer:      signer,
		languages:   languages,
		limiter:     limiter,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
	}
}

// Render produces the translated text and audio reference for lang. The base
// language skips translation; synthesis is always attempted.
func (a *SpeechAdapter) Render(ctx context.Context, text, lang string) (Rendition, *JobError) {
	if _, ok := a.languages.Lookup(lang); !ok {
		return Rendition{}, &JobError{Kind: models.JobErrorTranslation, Language: lang, Err: ErrUnsupportedLanguage}
	}

	translated := text
	if lang != a.cfg.BaseLanguage {
		out, err := a.translate(ctx, text, lang)
		if err != nil {
			return Rendition{}, &JobError{Kind: models.JobErrorTranslation, Language: lang, Err: err}
		}
		translated = out
	}

	url, err := a.synthesize(ctx, translated, lang)
	if err != nil {
		return Rendition{}, &JobError{Kind: models.JobErrorSynthesis, Language: lang, Err: err}
	}
	return Rendition{Text: translated, AudioURL: url}, nil
}

func (a *SpeechAdapter) translate(ctx context.Context, text, lang string) (out string, err error) {
	defer recoverEngine("translator", &err)
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	out, err = a.translator.Translate(ctx, text, a.cfg.BaseLanguage, lang)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", translate.ErrEmptyTranslation
	}
	return out, nil
}

func (a *SpeechAdapter) synthesize(ctx context.Context, text, lang string) (url string, err error) {
	defer recoverEngine("synthesizer", &err)
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	audio, err := a.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", tts.ErrEmptyAudio
	}

	name := a.artifactName(lang)
	if _, err := a.store.Save(name, audio); err != nil {
		return "", fmt.Errorf("store audio: %w", err)
	}
	token, _, err := a.signer.Generate(name)
	if err != nil {
		if delErr := a.store.Delete(name); delErr != nil {
			a.logger.Warn("orphan audio artifact left behind", zap.String("file", name), zap.Error(delErr))
		}
		return "", fmt.Errorf("sign audio url: %w", err)
	}
	a.logger.Debug("audio artifact stored", zap.String("language", lang), zap.String("file", name))
	return strings.TrimRight(a.cfg.APIPrefix, "/") + "/audio/" + token, nil
}

// artifactName is unique per job even when several jobs for one language finish
// within the same clock tick.
func (a *SpeechAdapter) artifactName(lang string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("announcement_%s_%d_%s.mp3", lang, a.now().UnixNano(), suffix)
}

func (a *SpeechAdapter) wait(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	return a.limiter.Wait(ctx)
}

func recoverEngine(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panic: %v", name, r)
	}
}
