package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

// Dispatcher hands an accepted task off for execution.
type Dispatcher interface {
	Dispatch(ctx context.Context, task domain.IngestTask) error
}

// QueueDispatcher pushes tasks onto a Redis list consumed by Runner.
type QueueDispatcher struct {
	client   *redis.Client
	queueKey string
}

func NewQueueDispatcher(client *redis.Client, queueKey string) *QueueDispatcher {
	return &QueueDispatcher{client: client, queueKey: queueKey}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, task domain.IngestTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := d.client.LPush(ctx, d.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue task %s: %w", task.JobID, err)
	}
	return nil
}

// InlineDispatcher runs the task in-process, for deployments without a
// broker. The run still happens off the caller's goroutine so submission
// keeps its accepted-now semantics.
type InlineDispatcher struct {
	ingestor *Ingestor
}

func NewInlineDispatcher(ingestor *Ingestor) *InlineDispatcher {
	return &InlineDispatcher{ingestor: ingestor}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, task domain.IngestTask) error {
	go func() {
		if err := d.ingestor.Ingest(context.Background(), task); err != nil {
			slog.Error("Inline ingest failed", "job_id", task.JobID, "error", err)
		}
	}()
	return nil
}

// Runner consumes the ingestion queue. Tasks run concurrently up to the
// worker limit; one bad task never takes the loop down.
type Runner struct {
	client     *redis.Client
	queueKey   string
	ingestor   *Ingestor
	maxWorkers int
	popTimeout time.Duration
}

func NewRunner(client *redis.Client, queueKey string, ingestor *Ingestor, maxWorkers int, popTimeout time.Duration) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if popTimeout <= 0 {
		popTimeout = 2 * time.Second
	}
	return &Runner{
		client:     client,
		queueKey:   queueKey,
		ingestor:   ingestor,
		maxWorkers: maxWorkers,
		popTimeout: popTimeout,
	}
}

func (r *Runner) Run(ctx context.Context) {
	slog.Info("Ingest runner started", "queue", r.queueKey, "max_workers", r.maxWorkers)

	g := new(errgroup.Group)
	g.SetLimit(r.maxWorkers)

	for {
		if ctx.Err() != nil {
			break
		}

		vals, err := r.client.BRPop(ctx, r.popTimeout, r.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			slog.Error("Queue pop failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(r.popTimeout):
			}
			continue
		}
		if len(vals) < 2 {
			continue
		}

		var task domain.IngestTask
		if err := json.Unmarshal([]byte(vals[1]), &task); err != nil {
			slog.Error("Dropping malformed queue payload", "error", err)
			continue
		}

		g.Go(func() error {
			if err := r.ingestor.Ingest(ctx, task); err != nil {
				slog.Error("Task failed", "job_id", task.JobID, "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()
	slog.Info("Ingest runner stopped")
}
