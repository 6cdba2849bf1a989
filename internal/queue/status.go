package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusTracker mirrors job lifecycle transitions into Redis for queue
// dashboards and WebSocket streaming, alongside the Postgres documents-table
// row that is the durable record of truth. Grounded on the teacher's
// RedisConsumer.updateJobStatus: a set per terminal state, a results/errors
// hash, and a pub/sub event channel for live subscribers.
type StatusTracker struct {
	client    *redis.Client
	queueName string
}

// NewStatusTracker connects a status tracker to the same Redis instance the
// queue itself runs against.
func NewStatusTracker(redisURL, queueName string) (*StatusTracker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return &StatusTracker{client: redis.NewClient(opt), queueName: queueName}, nil
}

// MarkProcessing records a job as in flight.
func (t *StatusTracker) MarkProcessing(ctx context.Context, jobID string) {
	t.client.SAdd(ctx, t.key("processing"), jobID)
	t.publish(ctx, jobID, "processing", nil)
}

// MarkCompleted records a job as completed, alongside its result payload.
func (t *StatusTracker) MarkCompleted(ctx context.Context, jobID string, result interface{}) {
	t.client.SRem(ctx, t.key("processing"), jobID)
	t.client.SAdd(ctx, t.key("completed"), jobID)
	if result != nil {
		if data, err := json.Marshal(result); err == nil {
			t.client.HSet(ctx, t.key("results"), jobID, data)
		}
	}
	t.publish(ctx, jobID, "completed", result)
}

// MarkFailed records a job as failed, alongside its error detail.
func (t *StatusTracker) MarkFailed(ctx context.Context, jobID string, errDetail map[string]interface{}) {
	t.client.SRem(ctx, t.key("processing"), jobID)
	t.client.SAdd(ctx, t.key("failed"), jobID)
	if errDetail != nil {
		if data, err := json.Marshal(errDetail); err == nil {
			t.client.HSet(ctx, t.key("errors"), jobID, data)
		}
	}
	t.publish(ctx, jobID, "failed", errDetail)
}

// Stats reports the size of each lifecycle set, for operational dashboards.
func (t *StatusTracker) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64)
	for _, state := range []string{"processing", "completed", "failed"} {
		n, err := t.client.SCard(ctx, t.key(state)).Result()
		if err != nil {
			return nil, fmt.Errorf("scard %s: %w", state, err)
		}
		stats[state] = n
	}
	return stats, nil
}

// Close releases the underlying Redis client.
func (t *StatusTracker) Close() error {
	return t.client.Close()
}

func (t *StatusTracker) key(state string) string {
	return fmt.Sprintf("%s:%s", t.queueName, state)
}

func (t *StatusTracker) publish(ctx context.Context, jobID, event string, payload interface{}) {
	msg := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", event),
		"jobId":     jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	t.client.Publish(ctx, t.key("events"), data)
	_ = payload // payload is folded into the results/errors hash by the caller, not the event itself
}
