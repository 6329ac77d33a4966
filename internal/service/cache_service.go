package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
	"github.com/noah-isme/pa-broadcaster/pkg/translate"
)

// CacheRepository abstracts persistence for cached translations.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CachedTranslator decorates a Translator with a read-through cache.
// Cache failures never fail a translation.
type CachedTranslator struct {
	inner   translate.Translator
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCachedTranslator wraps inner. A nil repo disables caching.
func NewCachedTranslator(inner translate.Translator, repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *CachedTranslator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTranslator{inner: inner, repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

// Translate implements translate.Translator.
func (t *CachedTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if t.repo == nil {
		return t.inner.Translate(ctx, text, source, target)
	}
	key := translationKey(text, source, target)

	cached, err := t.repo.Get(ctx, key)
	switch {
	case err == nil:
		t.metrics.RecordCacheLookup(true)
		return cached, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		t.metrics.RecordCacheLookup(false)
	default:
		t.metrics.RecordCacheLookup(false)
		t.logger.Warn("translation cache get failed", zap.String("target", target), zap.Error(err))
	}

	translated, err := t.inner.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	if err := t.repo.Set(ctx, key, translated, t.ttl); err != nil {
		t.logger.Warn("translation cache set failed", zap.String("target", target), zap.Error(err))
	}
	return translated, nil
}

// Invalidate drops every cached translation.
func (t *CachedTranslator) Invalidate(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}
	return t.repo.DeleteByPattern(ctx, "translation:*")
}

func translationKey(text, source, target string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + text))
	return "translation:" + target + ":" + hex.EncodeToString(sum[:16])
}
