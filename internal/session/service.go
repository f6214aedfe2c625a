package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/certlearn/stepwise/internal/domain"
	"github.com/certlearn/stepwise/internal/exercise"
	"github.com/certlearn/stepwise/internal/progress"
)

// Service orchestrates exercise play-throughs: it owns session lifecycle,
// routes submissions through evaluation and the error policy, and reports
// completions to the progress recorder.
type Service struct {
	store    *Store
	registry *exercise.Registry
	recorder progress.Recorder

	// Action evaluation is event-driven and runs to completion before the
	// next input; the mutex enforces that across concurrent HTTP requests.
	mu sync.Mutex

	// recordTimeout bounds the fire-and-forget recorder call.
	recordTimeout time.Duration

	wg sync.WaitGroup
}

// NewService creates a session service.
func NewService(store *Store, registry *exercise.Registry, recorder progress.Recorder) *Service {
	return &Service{
		store:         store,
		registry:      registry,
		recorder:      recorder,
		recordTimeout: 10 * time.Second,
	}
}

// Create builds a NotStarted session for an exercise. Unplayable
// definitions are rejected here so the UI never offers start.
func (s *Service) Create(ctx context.Context, exerciseID, learnerID string) (*Session, error) {
	ex, err := s.registry.Get(exerciseID)
	if err != nil {
		return nil, err
	}
	if err := ex.Validate(); err != nil {
		return nil, fmt.Errorf("exercise %s not playable: %w", exerciseID, err)
	}

	sess := New(exerciseID, learnerID)
	s.store.Save(sess)

	slog.Info("session created",
		"session_id", sess.ID,
		"exercise_id", exerciseID,
		"learner_id", learnerID,
	)
	return sess, nil
}

// Get returns a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(id)
}

// Start begins play on a session.
func (s *Service) Start(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(); err != nil {
		return nil, err
	}
	return sess, nil
}

// SubmitButton evaluates a button click.
func (s *Service) SubmitButton(ctx context.Context, id string, stepIndex int, actionID string) (*SubmitResult, error) {
	return s.submit(ctx, id, func(sess *Session, ex *domain.Exercise) (*SubmitResult, error) {
		return sess.SubmitButton(ex, stepIndex, actionID)
	})
}

// SubmitText evaluates a text submission.
func (s *Service) SubmitText(ctx context.Context, id string, stepIndex int, actionID, value string) (*SubmitResult, error) {
	return s.submit(ctx, id, func(sess *Session, ex *domain.Exercise) (*SubmitResult, error) {
		return sess.SubmitText(ex, stepIndex, actionID, value)
	})
}

func (s *Service) submit(ctx context.Context, id string, fn func(*Session, *domain.Exercise) (*SubmitResult, error)) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	ex, err := s.registry.Get(sess.ExerciseID)
	if err != nil {
		return nil, err
	}

	result, err := fn(sess, ex)
	if err != nil {
		return nil, err
	}

	if result.Final != nil {
		s.dispatchReport(sess, result.Final)
	}
	return result, nil
}

// Restart clears the play-through and returns to the first step.
func (s *Service) Restart(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Restart(); err != nil {
		return nil, err
	}

	slog.Info("session restarted", "session_id", sess.ID, "exercise_id", sess.ExerciseID)
	return sess, nil
}

// Abandon discards a session. Partial progress is not persisted.
func (s *Service) Abandon(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(id)
	if err != nil {
		return err
	}
	sess.Abandon()
	return s.store.Delete(id)
}

// BestScore returns the best score recorded so far for the pair.
func (s *Service) BestScore(ctx context.Context, learnerID, exerciseID string) (*progress.BestScore, error) {
	return s.recorder.Best(ctx, learnerID, exerciseID)
}

// dispatchReport sends the completion report without blocking the
// submission path. The session already reflects the outcome; persistence
// is best-effort and failures are logged, never surfaced.
func (s *Service) dispatchReport(sess *Session, final *domain.ScoreResult) {
	report := progress.Report{
		ContentType: progress.ContentTypeInteractive,
		ContentID:   sess.ExerciseID,
		LearnerID:   sess.LearnerID,
		IsCompleted: final.Completed,
		Score:       final.Percentage,
		RecordedAt:  time.Now(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
		defer cancel()
		if err := s.recorder.Record(ctx, report); err != nil {
			slog.Error("progress record failed",
				"session_id", sess.ID,
				"exercise_id", sess.ExerciseID,
				"learner_id", sess.LearnerID,
				"score", report.Score,
				"error", err,
			)
		}
	}()
}

// Wait blocks until in-flight progress reports are dispatched. Used by
// shutdown and tests.
func (s *Service) Wait() {
	s.wg.Wait()
}
