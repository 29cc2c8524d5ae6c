package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"permitflow/internal/notification/models"
)

// Handler processes one dequeued job.
type Handler interface {
	Dispatch(ctx context.Context, job models.Job) error
}

// Worker runs a fixed pool of consumers over a Queue. Each job gets its own
// timeout; a failed job is logged and acknowledged, never requeued.
type Worker struct {
	queue       Queue
	handler     Handler
	concurrency int
	jobTimeout  time.Duration
	logger      *slog.Logger
}

type WorkerOption func(*Worker)

func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func WithJobTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.jobTimeout = d
	}
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(queue Queue, handler Handler, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:       queue,
		handler:     handler,
		concurrency: 1,
		jobTimeout:  time.Minute,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes until ctx is cancelled. It returns nil on cancellation and
// the first queue error otherwise.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			return w.consume(gctx)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Worker) consume(ctx context.Context) error {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.ErrorContext(ctx, "failed to dequeue dispatch job", "error", err)
			if err := sleepCtx(ctx, time.Second); err != nil {
				return err
			}
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job models.Job) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.jobTimeout)
	defer cancel()

	if err := w.handler.Dispatch(jobCtx, job); err != nil {
		w.logger.ErrorContext(ctx, "dispatch job failed",
			"job_id", job.ID,
			"permit_id", job.PermitID,
			"error", err,
		)
	}
	if err := w.queue.Ack(jobCtx, job); err != nil {
		w.logger.ErrorContext(ctx, "failed to acknowledge dispatch job",
			"job_id", job.ID,
			"permit_id", job.PermitID,
			"error", err,
		)
	}
}
