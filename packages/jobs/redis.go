package jobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

// RedisRepo stores one hash per job under a configurable key prefix. Every
// write refreshes the record's expiry window, so a job that keeps making
// progress stays visible and an abandoned one ages out on its own.
type RedisRepo struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisRepo(client *redis.Client, prefix string, ttl time.Duration) *RedisRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRepo{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepo) key(jobID string) string {
	return r.prefix + jobID
}

func (r *RedisRepo) Create(ctx context.Context, sourceID string) (domain.Job, error) {
	job := newJob(sourceID)
	key := r.key(job.JobID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		FieldStatus:   string(job.Status),
		FieldStage:    job.Stage,
		FieldProgress: strconv.Itoa(job.Progress),
		"jobId":       job.JobID,
		"sourceId":    job.SourceID,
		"createdAt":   job.CreatedAt.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Job{}, fmt.Errorf("create job %s: %w", job.JobID, err)
	}
	return job, nil
}

func (r *RedisRepo) Update(ctx context.Context, jobID string, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}
	key := r.key(jobID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	if exists == 0 {
		// The job expired or never existed. Best effort: drop the update.
		return nil
	}

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, values)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	return nil
}

func (r *RedisRepo) Complete(ctx context.Context, jobID string) error {
	return r.Update(ctx, jobID, completedFields())
}

func (r *RedisRepo) Fail(ctx context.Context, jobID string, errMsg string) error {
	return r.Update(ctx, jobID, failedFields(errMsg))
}

func (r *RedisRepo) Get(ctx context.Context, jobID string) (domain.Job, error) {
	raw, err := r.client.HGetAll(ctx, r.key(jobID)).Result()
	if err != nil {
		return domain.Job{}, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if len(raw) == 0 {
		return notFound(jobID), nil
	}

	job := domain.Job{
		JobID:    raw["jobId"],
		SourceID: raw["sourceId"],
		ConvID:   raw[FieldConvID],
		Status:   domain.JobStatus(raw[FieldStatus]),
		Stage:    raw[FieldStage],
		Error:    raw[FieldError],
	}
	if job.JobID == "" {
		job.JobID = jobID
	}
	if p, err := strconv.Atoi(raw[FieldProgress]); err == nil {
		job.Progress = p
	}
	if t, err := time.Parse(time.RFC3339Nano, raw["createdAt"]); err == nil {
		job.CreatedAt = t
	}
	return job, nil
}
