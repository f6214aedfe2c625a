package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certlearn/stepwise/internal/progress"
)

// ProgressRepository implements progress persistence backed by PostgreSQL
// for server deployments. Semantics match the SQLite store: the retained
// score only ever grows and completion is sticky.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewProgressRepository creates a repository over an existing pool.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// EnsureSchema creates the progress table when it does not exist yet.
func (r *ProgressRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS progress (
			learner_id   TEXT NOT NULL,
			content_id   TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT 'interactive',
			best_score   INTEGER NOT NULL DEFAULT 0,
			completed    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (learner_id, content_id)
		)`)
	if err != nil {
		return fmt.Errorf("ensure progress schema: %w", err)
	}
	return nil
}

// Record folds a completion report into the retained best score.
func (r *ProgressRepository) Record(ctx context.Context, report progress.Report) error {
	recordedAt := report.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO progress (learner_id, content_id, content_type, best_score, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (learner_id, content_id) DO UPDATE SET
			best_score = GREATEST(progress.best_score, EXCLUDED.best_score),
			completed  = progress.completed OR EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at`,
		report.LearnerID, report.ContentID, report.ContentType,
		report.Score, report.IsCompleted, recordedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// Best retrieves the retained best score for a (learner, content) pair.
func (r *ProgressRepository) Best(ctx context.Context, learnerID, contentID string) (*progress.BestScore, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT learner_id, content_id, best_score, completed, updated_at
		FROM progress WHERE learner_id = $1 AND content_id = $2`,
		learnerID, contentID,
	)

	var best progress.BestScore
	err := row.Scan(&best.LearnerID, &best.ContentID, &best.Score, &best.IsCompleted, &best.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, progress.ErrNotFound
		}
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return &best, nil
}

var _ progress.Recorder = (*ProgressRepository)(nil)
