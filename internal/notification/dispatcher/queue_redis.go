package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"permitflow/internal/notification/models"
)

// RedisQueue is a reliable list queue. Dequeue moves a job from the pending
// list to the processing list atomically; Ack removes it from processing.
// Recover pushes anything left in processing back onto pending.
type RedisQueue struct {
	client     redis.UniversalClient
	pending    string
	processing string
	poll       time.Duration
}

// NewRedisQueue stores jobs under "<prefix>:pending" and "<prefix>:processing".
func NewRedisQueue(client redis.UniversalClient, prefix string) *RedisQueue {
	return &RedisQueue{
		client:     client,
		pending:    prefix + ":pending",
		processing: prefix + ":processing",
		poll:       5 * time.Second,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode dispatch job: %w", err)
	}
	if err := q.client.LPush(ctx, q.pending, payload).Err(); err != nil {
		return fmt.Errorf("enqueue dispatch job: %w", err)
	}
	return nil
}

// Dequeue blocks in short polls so ctx cancellation is noticed promptly.
func (q *RedisQueue) Dequeue(ctx context.Context) (models.Job, error) {
	for {
		payload, err := q.client.BLMove(ctx, q.pending, q.processing, "RIGHT", "LEFT", q.poll).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return models.Job{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return models.Job{}, ctx.Err()
			}
			return models.Job{}, fmt.Errorf("dequeue dispatch job: %w", err)
		}
		var job models.Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			// Unreadable entries would be redelivered forever.
			decodeErr := fmt.Errorf("decode dispatch job: %w", err)
			if err := q.client.LRem(ctx, q.processing, 1, payload).Err(); err != nil {
				return models.Job{}, errors.Join(decodeErr, fmt.Errorf("drop undecodable dispatch job: %w", err))
			}
			return models.Job{}, decodeErr
		}
		return job, nil
	}
}

func (q *RedisQueue) Ack(ctx context.Context, job models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode dispatch job: %w", err)
	}
	if err := q.client.LRem(ctx, q.processing, 1, payload).Err(); err != nil {
		return fmt.Errorf("ack dispatch job: %w", err)
	}
	return nil
}

// Recover requeues jobs a previous process dequeued but never acknowledged.
// It returns the number of jobs moved.
//
// The processing list is shared by every process using the same prefix, so
// Recover also requeues jobs a live replica is still working on. Run it only
// while no worker on the prefix is consuming, such as a single-replica
// restart. A job requeued that way is dequeued twice and the Ledger claim
// keeps the second delivery from sending.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.client.LMove(ctx, q.processing, q.pending, "RIGHT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("recover dispatch jobs: %w", err)
		}
		moved++
	}
}
