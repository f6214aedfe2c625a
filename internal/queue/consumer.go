package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/certlearn/stepwise/internal/progress"
)

// Consumer drains progress events from the queue into a recorder.
type Consumer struct {
	conn       *Connection
	recorder   progress.Recorder
	workers    int
	prefetch   int
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Workers  int // number of concurrent workers
	Prefetch int // prefetch count per worker
}

// DefaultConsumerConfig returns sensible defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 1,
	}
}

// NewConsumer creates a new progress event consumer.
func NewConsumer(conn *Connection, recorder progress.Recorder, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		recorder: recorder,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Start begins consuming messages.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		ProgressQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting progress queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Info("progress worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}
			c.processMessage(ctx, id, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	var event ProgressEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		slog.Error("failed to unmarshal progress event",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages.
		_ = msg.Reject(false)
		return
	}

	recordCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.recorder.Record(recordCtx, event.Report()); err != nil {
		slog.Error("failed to record progress event",
			"worker_id", workerID,
			"event_id", event.ID,
			"error", err,
		)
		// Requeue so a transient store failure does not lose the report.
		_ = msg.Nack(false, true)
		return
	}

	slog.Debug("recorded progress event",
		"worker_id", workerID,
		"event_id", event.ID,
		"learner_id", event.LearnerID,
		"content_id", event.ContentID,
	)
	_ = msg.Ack(false)
}

// Stop cancels workers and waits for them to drain.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}
