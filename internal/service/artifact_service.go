package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/pkg/jobs"
)

const (
	jobTypeSweepAudio = "audio.sweep"
	audioExt          = ".mp3"
)

type artifactStore interface {
	ListExt(ext string) ([]string, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ArtifactConfig tunes audio artifact housekeeping.
type ArtifactConfig struct {
	Retention time.Duration
	Schedule  string
	Workers   int
}

// ArtifactService removes synthesized audio files, either every file present
// when the history is cleared or periodically once they outlive the retention window.
type ArtifactService struct {
	store   artifactStore
	queue   *jobs.Queue
	cron    *cron.Cron
	cfg     ArtifactConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewArtifactService constructs the service and its worker queue.
func NewArtifactService(store artifactStore, cfg ArtifactConfig, metrics *MetricsService, logger *zap.Logger) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	s := &ArtifactService{store: store, cfg: cfg, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("audio-artifacts", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: 16,
		MaxRetries: 1,
		RetryDelay: 5 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start runs the sweep workers and, when a schedule is configured, the retention sweep.
func (s *ArtifactService) Start(ctx context.Context) error {
	s.queue.Start(ctx)
	if s.cfg.Schedule == "" || s.cfg.Retention <= 0 {
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if err := s.queue.Enqueue(jobs.Job{Type: jobTypeSweepAudio}); err != nil {
			s.logger.Warn("audio sweep not scheduled", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule audio sweep %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.logger.Info("audio retention sweep scheduled", zap.String("schedule", s.cfg.Schedule), zap.Duration("retention", s.cfg.Retention))
	return nil
}

// Stop halts the schedule and drains the workers.
func (s *ArtifactService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.queue.Stop()
}

// PurgeAll removes the audio artifacts present when it is called. Files written
// while it runs are left alone, and a failed purge is never retried.
func (s *ArtifactService) PurgeAll(ctx context.Context) error {
	names, err := s.store.ListExt(audioExt)
	if err != nil {
		return err
	}

	removed := 0
	var firstErr error
	for _, name := range names {
		if err := s.store.Delete(name); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	s.metrics.RecordArtifactsRemoved(removed)
	s.logger.Info("audio artifacts purged", zap.Int("files", removed), zap.Int("failed", len(names)-removed))
	return firstErr
}

// Sweep removes artifacts older than the retention window.
func (s *ArtifactService) Sweep(ctx context.Context) error {
	if s.cfg.Retention <= 0 {
		return nil
	}
	removed, err := s.store.CleanupOlderThan(s.cfg.Retention)
	s.metrics.RecordArtifactsRemoved(len(removed))
	if len(removed) > 0 {
		s.logger.Info("expired audio removed", zap.Int("files", len(removed)))
	}
	return err
}

func (s *ArtifactService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeSweepAudio:
		return s.Sweep(ctx)
	default:
		return fmt.Errorf("unknown artifact job %q", job.Type)
	}
}
