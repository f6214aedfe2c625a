package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// RemoteRecorder reports progress to the platform's central progress API
// over HTTP. Writes are wrapped with retry and a circuit breaker so a
// flapping progress service cannot stall the engine; the caller still
// treats failures as log-only.
type RemoteRecorder struct {
	baseURL string
	client  *http.Client
	breaker circuitbreaker.CircuitBreaker[struct{}]
	retrier retry.Retry[struct{}]
}

// NewRemoteRecorder creates a recorder posting to baseURL.
func NewRemoteRecorder(baseURL string) *RemoteRecorder {
	r := &RemoteRecorder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}

	r.breaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			slog.Warn("progress API circuit breaker state change",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	r.retrier = retry.New[struct{}](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
	})

	return r
}

// Record posts the report to the progress API.
func (r *RemoteRecorder) Record(ctx context.Context, report Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = r.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return r.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.post(ctx, body)
		})
	})
	if err != nil {
		return fmt.Errorf("post progress report: %w", err)
	}
	return nil
}

func (r *RemoteRecorder) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/progress", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("progress API returned %d", resp.StatusCode)
	}
	return nil
}

// Best fetches the retained best score from the progress API.
func (r *RemoteRecorder) Best(ctx context.Context, learnerID, contentID string) (*BestScore, error) {
	url := fmt.Sprintf("%s/progress/%s/%s", r.baseURL, learnerID, contentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get best score: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("progress API returned %d", resp.StatusCode)
	}

	var best BestScore
	if err := json.NewDecoder(resp.Body).Decode(&best); err != nil {
		return nil, fmt.Errorf("decode best score: %w", err)
	}
	return &best, nil
}

var _ Recorder = (*RemoteRecorder)(nil)
