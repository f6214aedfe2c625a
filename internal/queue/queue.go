package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/certlearn/stepwise/internal/progress"
)

// ProgressQueueName is the queue completion reports are published to for
// downstream consumers (dashboards, badge issuance).
const ProgressQueueName = "stepwise.progress"

// ProgressEvent is the wire form of a completion report.
type ProgressEvent struct {
	ID          uuid.UUID `json:"id"`
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	LearnerID   string    `json:"learner_id"`
	IsCompleted bool      `json:"is_completed"`
	Score       int       `json:"score"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Report converts the event back into a progress report.
func (e *ProgressEvent) Report() progress.Report {
	return progress.Report{
		ContentType: e.ContentType,
		ContentID:   e.ContentID,
		LearnerID:   e.LearnerID,
		IsCompleted: e.IsCompleted,
		Score:       e.Score,
		RecordedAt:  e.OccurredAt,
	}
}

// EventFromReport builds the wire event for a report.
func EventFromReport(report *progress.Report) *ProgressEvent {
	return &ProgressEvent{
		ID:          uuid.New(),
		ContentType: report.ContentType,
		ContentID:   report.ContentID,
		LearnerID:   report.LearnerID,
		IsCompleted: report.IsCompleted,
		Score:       report.Score,
		OccurredAt:  report.RecordedAt,
	}
}

// Connection manages the RabbitMQ connection with automatic reconnection.
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	reconnects int
}

// NewConnection creates a new RabbitMQ connection.
func NewConnection(url string) (*Connection, error) {
	c := &Connection{url: url}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	c.conn, err = amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := c.declareQueues(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	go c.handleReconnect()

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

func (c *Connection) declareQueues() error {
	// Durable: completion reports must survive broker restarts.
	_, err := c.channel.QueueDeclare(
		ProgressQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to declare progress queue: %w", err)
	}
	return nil
}

// handleReconnect listens for connection close and attempts to reconnect.
func (c *Connection) handleReconnect() {
	notifyClose := c.conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case err := <-notifyClose:
			if err == nil {
				return // normal close
			}

			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()

			slog.Warn("RabbitMQ connection closed, attempting to reconnect",
				"error", err,
				"reconnects", c.reconnects,
			)

			for i := 0; i < 10; i++ {
				c.reconnects++
				backoff := time.Duration(1<<i) * time.Second
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
				time.Sleep(backoff)

				if err := c.connect(); err != nil {
					slog.Error("reconnection failed", "error", err, "attempt", i+1)
					continue
				}

				slog.Info("reconnected to RabbitMQ", "attempts", i+1)
				return
			}

			slog.Error("failed to reconnect to RabbitMQ after 10 attempts")
			return
		}
	}
}

// Channel returns the current channel (thread-safe).
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected checks if the connection is active.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON publishes a JSON message to a queue.
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	return ch.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// sanitizeURL removes credentials from the URL for logging.
func sanitizeURL(url string) string {
	if len(url) > 20 {
		return url[:20] + "..."
	}
	return url
}
