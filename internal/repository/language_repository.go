package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	yaml "go.yaml.in/yaml/v3"

	"github.com/noah-isme/pa-broadcaster/internal/models"
)

const languageReloadDebounce = 250 * time.Millisecond

type languageTable struct {
	list   []models.Language
	byCode map[string]models.Language
}

type languageFile struct {
	Languages []models.Language `yaml:"languages"`
}

// LanguageRepository serves the supported-language table. The built-in table
// can be replaced by a YAML file which is re-read whenever it changes.
type LanguageRepository struct {
	path   string
	logger *zap.Logger
	table  atomic.Pointer[languageTable]
}

// NewLanguageRepository loads the table from path, or the built-in one when path is empty.
func NewLanguageRepository(path string, logger *zap.Logger) (*LanguageRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &LanguageRepository{path: path, logger: logger}
	r.table.Store(buildTable(models.DefaultLanguages))
	if path == "" {
		return r, nil
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns the languages in table order.
func (r *LanguageRepository) List() []models.Language {
	t := r.table.Load()
	out := make([]models.Language, len(t.list))
	copy(out, t.list)
	return out
}

// Lookup finds a language by code.
func (r *LanguageRepository) Lookup(code string) (models.Language, bool) {
	lang, ok := r.table.Load().byCode[strings.ToLower(code)]
	return lang, ok
}

// Reload re-reads the YAML file. The current table is kept when the file is invalid.
func (r *LanguageRepository) Reload() error {
	if r.path == "" {
		return nil
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read languages file: %w", err)
	}
	langs, err := parseLanguages(raw)
	if err != nil {
		return fmt.Errorf("parse languages file %s: %w", r.path, err)
	}
	r.table.Store(buildTable(langs))
	r.logger.Info("language table loaded", zap.String("path", r.path), zap.Int("languages", len(langs)))
	return nil
}

// Watch reloads the table on file changes until ctx is cancelled.
// Events are debounced since editors often emit several writes per save.
func (r *LanguageRepository) Watch(ctx context.Context) error {
	if r.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create languages watcher: %w", err)
	}
	dir := filepath.Dir(r.path)
	file := filepath.Base(r.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		reload := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Base(ev.Name), file) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(languageReloadDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			case <-reload:
				if err := r.Reload(); err != nil {
					r.logger.Warn("language table reload failed", zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Warn("languages watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func parseLanguages(raw []byte) ([]models.Language, error) {
	var doc languageFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Languages) == 0 {
		return nil, errors.New("no languages defined")
	}
	seen := make(map[string]struct{}, len(doc.Languages))
	out := make([]models.Language, 0, len(doc.Languages))
	for i, lang := range doc.Languages {
		lang.Code = strings.ToLower(strings.TrimSpace(lang.Code))
		if lang.Code == "" {
			return nil, fmt.Errorf("language %d has no code", i)
		}
		if _, dup := seen[lang.Code]; dup {
			return nil, fmt.Errorf("duplicate language code %q", lang.Code)
		}
		seen[lang.Code] = struct{}{}
		if lang.Name == "" {
			lang.Name = lang.Code
		}
		out = append(out, lang)
	}
	return out, nil
}

func buildTable(langs []models.Language) *languageTable {
	t := &languageTable{
		list:   append([]models.Language(nil), langs...),
		byCode: make(map[string]models.Language, len(langs)),
	}
	for _, lang := range langs {
		t.byCode[lang.Code] = lang
	}
	return t
}
