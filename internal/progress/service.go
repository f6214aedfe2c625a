package progress

import (
	"context"
	"log/slog"
	"time"
)

// Publisher emits completion reports to downstream consumers (dashboards,
// badge issuance). Implemented by the queue producer.
type Publisher interface {
	PublishReport(ctx context.Context, report *Report) error
}

// Cache fronts best-score lookups. Implemented by the Redis cache.
type Cache interface {
	Best(ctx context.Context, learnerID, contentID string) (*BestScore, error)
	Store(ctx context.Context, best *BestScore) error
}

// Service is the engine-facing Recorder. It writes to the configured
// store, keeps the cache warm, and fans reports out to the publisher.
// Cache and publisher failures are logged and never fail the write; a
// store failure is returned so the caller can log it, but the session
// already reflects the locally computed result either way.
type Service struct {
	store     Recorder
	cache     Cache
	publisher Publisher
}

// NewService creates a progress service over a store. Cache and publisher
// are optional.
func NewService(store Recorder, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures optional collaborators on the service.
type Option func(*Service)

// WithCache attaches a best-score cache.
func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithPublisher attaches a report publisher.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// Record persists the report and propagates it to cache and publisher.
func (s *Service) Record(ctx context.Context, report Report) error {
	if report.RecordedAt.IsZero() {
		report.RecordedAt = time.Now()
	}
	if report.ContentType == "" {
		report.ContentType = ContentTypeInteractive
	}

	if err := s.store.Record(ctx, report); err != nil {
		return err
	}

	slog.Info("recorded progress",
		"learner_id", report.LearnerID,
		"content_id", report.ContentID,
		"score", report.Score,
		"completed", report.IsCompleted,
	)

	if s.cache != nil {
		best, err := s.store.Best(ctx, report.LearnerID, report.ContentID)
		if err == nil {
			if err := s.cache.Store(ctx, best); err != nil {
				slog.Warn("progress cache write failed", "error", err)
			}
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, &report); err != nil {
			slog.Warn("progress publish failed",
				"learner_id", report.LearnerID,
				"content_id", report.ContentID,
				"error", err,
			)
		}
	}

	return nil
}

// Best returns the retained best score, reading through the cache when
// one is attached.
func (s *Service) Best(ctx context.Context, learnerID, contentID string) (*BestScore, error) {
	if s.cache != nil {
		if best, err := s.cache.Best(ctx, learnerID, contentID); err == nil {
			return best, nil
		}
	}

	best, err := s.store.Best(ctx, learnerID, contentID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, best); err != nil {
			slog.Warn("progress cache backfill failed", "error", err)
		}
	}

	return best, nil
}

var _ Recorder = (*Service)(nil)
