package progress

import (
	"context"
	"errors"
	"time"
)

// ContentTypeInteractive is the content type reported by the exercise
// engine.
const ContentTypeInteractive = "interactive"

var (
	// ErrNotFound indicates no progress has been recorded for the pair.
	ErrNotFound = errors.New("progress not found")
)

// Report is what the engine sends on every completion, including early
// termination.
type Report struct {
	ContentType string    `json:"contentType"`
	ContentID   string    `json:"contentId"`
	LearnerID   string    `json:"learnerId"`
	IsCompleted bool      `json:"isCompleted"`
	Score       int       `json:"score"` // percentage, 0-100
	RecordedAt  time.Time `json:"recordedAt"`
}

// BestScore is the retained maximum for a (learner, content) pair.
// IsCompleted is sticky: once true it never reverts, even if a later run
// scores below the threshold.
type BestScore struct {
	LearnerID   string    `json:"learnerId"`
	ContentID   string    `json:"contentId"`
	Score       int       `json:"score"`
	IsCompleted bool      `json:"isCompleted"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Recorder persists completion reports and exposes the best score so far.
// The engine treats Record as fire-and-forget: a failed write is logged,
// never surfaced to the learner, and never blocks session state.
type Recorder interface {
	Record(ctx context.Context, report Report) error
	Best(ctx context.Context, learnerID, contentID string) (*BestScore, error)
}

// Merge folds a report into an existing best score, keeping the maximum
// score and sticky completion. A nil current yields a fresh record.
func Merge(current *BestScore, report Report) BestScore {
	best := BestScore{
		LearnerID:   report.LearnerID,
		ContentID:   report.ContentID,
		Score:       report.Score,
		IsCompleted: report.IsCompleted,
		UpdatedAt:   report.RecordedAt,
	}
	if best.UpdatedAt.IsZero() {
		best.UpdatedAt = time.Now()
	}
	if current == nil {
		return best
	}
	if current.Score > best.Score {
		best.Score = current.Score
	}
	best.IsCompleted = best.IsCompleted || current.IsCompleted
	return best
}
