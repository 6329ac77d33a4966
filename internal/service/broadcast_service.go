package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/dto"
	"github.com/noah-isme/pa-broadcaster/internal/models"
	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
)

const (
	msgEmptyText       = "Announcement text cannot be empty"
	msgNotFound        = "Announcement not found"
	msgHistoryCleared  = "History cleared successfully"
	msgInvalidPriority = "priority must be one of normal, warning, emergency"
)

type announcementRunner interface {
	Run(ctx context.Context, text string, priority models.Priority, languages []string) []models.LanguageResult
}

type historyStore interface {
	Append(record models.AnnouncementRecord) models.AnnouncementRecord
	Get(id int64) (models.AnnouncementRecord, bool)
	List() []models.AnnouncementRecord
	Clear()
	Capacity() int
}

type broadcaster interface {
	BroadcastAll(msg models.StreamMessage) int
}

type artifactPurger interface {
	PurgeAll(ctx context.Context) error
}

// BroadcastService coordinates submissions, replays and history maintenance.
type BroadcastService struct {
	runner       announcementRunner
	history      historyStore
	registry     broadcaster
	artifacts    artifactPurger
	validator    *validator.Validate
	baseLanguage string
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time

	// commitMu makes history order and broadcast order identical.
	commitMu sync.Mutex
}

// NewBroadcastService constructs a BroadcastService.
func NewBroadcastService(runner announcementRunner, history historyStore, registry broadcaster, artifacts artifactPurger, validate *validator.Validate, baseLanguage string, metrics *MetricsService, logger *zap.Logger) *BroadcastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if baseLanguage == "" {
		baseLanguage = "en"
	}
	return &BroadcastService{
		runner:       runner,
		history:      history,
		registry:     registry,
		artifacts:    artifacts,
		validator:    validate,
		baseLanguage: baseLanguage,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Submit validates the request, renders every language, records the result and
// broadcasts it. A rejected request has no side effects. Once accepted the flow
// runs to completion even if ctx is cancelled.
func (s *BroadcastService) Submit(ctx context.Context, req models.AnnouncementRequest) (*dto.SubmitAck, error) {
	normalized, err := s.normalize(req)
	if err != nil {
		s.metrics.RecordRejection()
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	s.logger.Info("announcement accepted",
		zap.String("priority", string(normalized.Priority)),
		zap.Strings("languages", normalized.Languages),
		zap.Int("text_length", len([]rune(normalized.Text))),
	)

	results := s.runner.Run(ctx, normalized.Text, normalized.Priority, normalized.Languages)
	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}

	s.commitMu.Lock()
	timestamp := models.FormatTimestamp(s.now())
	record := s.history.Append(models.AnnouncementRecord{
		Timestamp:    timestamp,
		OriginalText: normalized.Text,
		Priority:     normalized.Priority,
		Languages:    normalized.Languages,
		Results:      results,
	})
	delivered := s.registry.BroadcastAll(models.StreamMessage{
		Event: models.EventNewAnnouncement,
		Data: models.BroadcastEvent{
			Timestamp: record.Timestamp,
			Priority:  record.Priority,
			Results:   record.Results,
		},
	})
	s.commitMu.Unlock()

	s.metrics.RecordSubmission(string(record.Priority), delivered)
	s.logger.Info("announcement broadcast",
		zap.Int64("id", record.ID),
		zap.Int("languages", len(results)),
		zap.Int("failed", failed),
		zap.Int("subscribers", delivered),
	)

	return &dto.SubmitAck{
		ID:                 record.ID,
		Message:            fmt.Sprintf("Announcement broadcasted to %d languages", len(results)),
		LanguagesProcessed: len(results),
		Failed:             failed,
		Subscribers:        delivered,
		Timestamp:          record.Timestamp,
	}, nil
}

// Replay re-delivers a recorded announcement without recomputing anything.
func (s *BroadcastService) Replay(ctx context.Context, id int64) (*dto.ReplayAck, error) {
	record, ok := s.history.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, msgNotFound)
	}

	delivered := s.registry.BroadcastAll(models.StreamMessage{
		Event: models.EventNewAnnouncement,
		Data: models.BroadcastEvent{
			Timestamp: record.Timestamp,
			Priority:  record.Priority,
			Results:   record.Results,
			IsReplay:  true,
		},
	})
	s.metrics.RecordReplay(delivered)
	s.logger.Info("announcement replayed", zap.Int64("id", id), zap.Int("subscribers", delivered))

	return &dto.ReplayAck{
		ID:          id,
		Message:     fmt.Sprintf("Announcement #%d replayed", id),
		Subscribers: delivered,
		Timestamp:   models.FormatTimestamp(s.now()),
	}, nil
}

// History returns every retained record, most recent first.
func (s *BroadcastService) History(ctx context.Context) []models.AnnouncementRecord {
	return s.history.List()
}

// HistoryCapacity reports how many records are retained at most.
func (s *BroadcastService) HistoryCapacity() int {
	return s.history.Capacity()
}

// ClearHistory empties the history and then purges audio artifacts. Purge
// failures are logged and never reported to the caller.
func (s *BroadcastService) ClearHistory(ctx context.Context) (*dto.ClearHistoryAck, error) {
	s.commitMu.Lock()
	s.history.Clear()
	s.commitMu.Unlock()

	if s.artifacts != nil {
		if err := s.artifacts.PurgeAll(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("audio artifact cleanup failed", zap.Error(err))
		}
	}
	s.logger.Info("announcement history cleared")
	return &dto.ClearHistoryAck{Success: true, Message: msgHistoryCleared}, nil
}

func (s *BroadcastService) normalize(req models.AnnouncementRequest) (models.AnnouncementRequest, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return req, appErrors.Clone(appErrors.ErrValidation, msgEmptyText)
	}

	priority, ok := models.ParsePriority(string(req.Priority))
	if !ok {
		return req, appErrors.Clone(appErrors.ErrValidation, msgInvalidPriority)
	}
	req.Priority = priority

	seen := make(map[string]struct{}, len(req.Languages))
	languages := make([]string, 0, len(req.Languages))
	for _, lang := range req.Languages {
		code := strings.ToLower(strings.TrimSpace(lang))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		languages = append(languages, code)
	}
	if len(languages) == 0 {
		languages = []string{s.baseLanguage}
	}
	req.Languages = languages

	if err := s.validator.Struct(req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	return req, nil
}
