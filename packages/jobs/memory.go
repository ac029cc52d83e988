package jobs

import (
	"context"
	"sync"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

// MemoryRepo keeps jobs in a process-local map. Records live as long as the
// process; there is no TTL. Meant for single-worker and local deployments.
type MemoryRepo struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{jobs: make(map[string]domain.Job)}
}

func (r *MemoryRepo) Create(ctx context.Context, sourceID string) (domain.Job, error) {
	job := newJob(sourceID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.JobID] = job
	return job, nil
}

func (r *MemoryRepo) Update(ctx context.Context, jobID string, fields Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil
	}
	apply(&job, fields)
	r.jobs[jobID] = job
	return nil
}

func (r *MemoryRepo) Complete(ctx context.Context, jobID string) error {
	return r.Update(ctx, jobID, completedFields())
}

func (r *MemoryRepo) Fail(ctx context.Context, jobID string, errMsg string) error {
	return r.Update(ctx, jobID, failedFields(errMsg))
}

func (r *MemoryRepo) Get(ctx context.Context, jobID string) (domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return notFound(jobID), nil
	}
	return job, nil
}
