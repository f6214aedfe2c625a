package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/certlearn/stepwise/internal/progress"
)

// Producer publishes progress events to the queue.
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer.
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishReport publishes a completion report to the progress queue.
// Satisfies progress.Publisher.
func (p *Producer) PublishReport(ctx context.Context, report *progress.Report) error {
	event := EventFromReport(report)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ProgressQueueName, event); err != nil {
		return fmt.Errorf("failed to publish progress event: %w", err)
	}

	slog.Info("published progress event",
		"event_id", event.ID,
		"learner_id", event.LearnerID,
		"content_id", event.ContentID,
		"score", event.Score,
		"completed", event.IsCompleted,
	)
	return nil
}

var _ progress.Publisher = (*Producer)(nil)
