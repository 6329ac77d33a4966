package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/models"
)

type languageRenderer interface {
	Render(ctx context.Context, text, lang string) (Rendition, *JobError)
}

// JobRunner fans one announcement out into a translate-and-synthesize job per
// language and joins the outcomes.
type JobRunner struct {
	renderer   languageRenderer
	languages  languageLookup
	jobTimeout time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewJobRunner constructs a JobRunner. A zero jobTimeout waits for every job to finish.
func NewJobRunner(renderer languageRenderer, languages languageLookup, jobTimeout time.Duration, metrics *MetricsService, logger *zap.Logger) *JobRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRunner{renderer: renderer, languages: languages, jobTimeout: jobTimeout, metrics: metrics, logger: logger}
}

// Run executes one job per language concurrently and returns exactly one result
// per language, in request order. Failed jobs fall back to the original text.
func (r *JobRunner) Run(ctx context.Context, text string, priority models.Priority, languages []string) []models.LanguageResult {
	mapper := iter.Mapper[string, models.LanguageResult]{MaxGoroutines: len(languages)}
	return mapper.Map(languages, func(lang *string) models.LanguageResult {
		return r.runOne(ctx, text, priority, *lang)
	})
}

func (r *JobRunner) runOne(ctx context.Context, text string, priority models.Priority, lang string) models.LanguageResult {
	result := models.LanguageResult{
		Language:     lang,
		LanguageName: lang,
		Original:     text,
		Priority:     priority,
	}
	if meta, ok := r.languages.Lookup(lang); ok {
		result.LanguageName = meta.Name
		result.Flag = meta.Flag
	}

	jobCtx := ctx
	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	rendition, jobErr := r.render(jobCtx, text, lang)
	elapsed := time.Since(start)

	if jobErr != nil {
		r.logger.Warn("language job failed",
			zap.String("language", lang),
			zap.String("kind", string(jobErr.Kind)),
			zap.Error(jobErr.Err),
		)
		r.metrics.RecordLanguageResult(lang, string(jobErr.Kind), elapsed)
		result.Text = text
		result.Error = jobErr.Err.Error()
		result.ErrorKind = jobErr.Kind
		return result
	}

	r.metrics.RecordLanguageResult(lang, "ok", elapsed)
	audio := rendition.AudioURL
	result.Text = rendition.Text
	result.AudioURL = &audio
	return result
}

// render shields the join from a renderer that panics outside its own recovery.
func (r *JobRunner) render(ctx context.Context, text, lang string) (rendition Rendition, jobErr *JobError) {
	defer func() {
		if rec := recover(); rec != nil {
			jobErr = &JobError{Kind: models.JobErrorTranslation, Language: lang, Err: errPanic(rec)}
		}
	}()
	return r.renderer.Render(ctx, text, lang)
}

func errPanic(v interface{}) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("job panic: %w", err)
	}
	return fmt.Errorf("job panic: %v", v)
}
