package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/certlearn/stepwise/internal/progress"
)

// ProgressStore implements progress persistence backed by SQLite. The
// upsert keeps the maximum score ever reported and completion sticky.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Record folds a completion report into the retained best score.
func (s *ProgressStore) Record(ctx context.Context, report progress.Report) error {
	recordedAt := report.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (learner_id, content_id, content_type, best_score, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, content_id) DO UPDATE SET
			best_score = MAX(best_score, excluded.best_score),
			completed  = MAX(completed, excluded.completed),
			updated_at = excluded.updated_at`,
		report.LearnerID, report.ContentID, report.ContentType,
		report.Score, boolToInt(report.IsCompleted), recordedAt, recordedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// Best retrieves the retained best score for a (learner, content) pair.
func (s *ProgressStore) Best(ctx context.Context, learnerID, contentID string) (*progress.BestScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT learner_id, content_id, best_score, completed, updated_at
		FROM progress WHERE learner_id = ? AND content_id = ?`,
		learnerID, contentID,
	)

	var best progress.BestScore
	var completed int
	err := row.Scan(&best.LearnerID, &best.ContentID, &best.Score, &completed, &best.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, progress.ErrNotFound
		}
		return nil, fmt.Errorf("query progress: %w", err)
	}
	best.IsCompleted = completed != 0
	return &best, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
