package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmailQueue is the Redis list backing the notification channel.
const EmailQueue = "queue:email"

// Job kinds understood by the email worker.
const (
	KindVerificationEmail  = "send-verification-email"
	KindPasswordResetEmail = "send-password-reset-email"
	KindWelcomeEmail       = "send-welcome-email"
)

// Job is a fire-and-forget notification task. Token carries the raw
// one-shot secret; it exists only on this channel, never in a synchronous
// API response.
type Job struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Queue pushes and pops jobs on a Redis list. Enqueue returns quickly;
// callers treat failures as log-worthy, not fatal.
type Queue struct {
	rdb redis.UniversalClient
	key string
}

func New(rdb redis.UniversalClient, key string) *Queue {
	if key == "" {
		key = EmailQueue
	}
	return &Queue{rdb: rdb, key: key}
}

func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue enqueue marshal: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job. Returns (nil, nil) when
// the wait times out with an empty queue.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("queue dequeue: unexpected reply of %d elements", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("queue dequeue unmarshal: %w", err)
	}
	return &job, nil
}
