package dispatcher

import (
	"context"
	"errors"

	"permitflow/internal/notification/models"
)

// ErrQueueFull is returned by MemoryQueue.Enqueue when the buffer is full.
var ErrQueueFull = errors.New("dispatch queue is full")

// Queue delivers dispatch jobs to workers. Dequeue blocks until a job is
// available or ctx ends. A dequeued job stays owned by the consumer until
// Ack; durable queues redeliver unacknowledged jobs after a restart.
type Queue interface {
	Enqueue(ctx context.Context, job models.Job) error
	Dequeue(ctx context.Context) (models.Job, error)
	Ack(ctx context.Context, job models.Job) error
}

// MemoryQueue is a buffered channel. Jobs are lost on restart.
type MemoryQueue struct {
	jobs chan models.Job
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size < 1 {
		size = 1
	}
	return &MemoryQueue{jobs: make(chan models.Job, size)}
}

// Enqueue never blocks the status writer: a full buffer is an error.
func (q *MemoryQueue) Enqueue(ctx context.Context, job models.Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (models.Job, error) {
	select {
	case <-ctx.Done():
		return models.Job{}, ctx.Err()
	case job := <-q.jobs:
		return job, nil
	}
}

func (q *MemoryQueue) Ack(context.Context, models.Job) error {
	return nil
}

// Len reports the number of buffered jobs.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}
