// Package jobs
package jobs

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

// Field names accepted by Update.
const (
	FieldStatus   = "status"
	FieldStage    = "stage"
	FieldProgress = "progress"
	FieldError    = "error"
	FieldConvID   = "convId"
)

// Fields is a partial update merged into a stored job record.
type Fields map[string]string

// Repo is the job store contract. Update is best effort: an unknown or
// expired job id is silently ignored, because updates originate from
// background tasks that must never crash over a missing record. Get
// represents absence as data (status not_found), never as an error.
type Repo interface {
	Create(ctx context.Context, sourceID string) (domain.Job, error)
	Update(ctx context.Context, jobID string, fields Fields) error
	Complete(ctx context.Context, jobID string) error
	Fail(ctx context.Context, jobID string, errMsg string) error
	Get(ctx context.Context, jobID string) (domain.Job, error)
}

func newJobID() string {
	return "job_" + uuid.NewString()[:8]
}

func newJob(sourceID string) domain.Job {
	return domain.Job{
		JobID:     newJobID(),
		SourceID:  sourceID,
		Status:    domain.StatusQueued,
		Stage:     domain.StageQueued,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}
}

func notFound(jobID string) domain.Job {
	return domain.Job{JobID: jobID, Status: domain.StatusNotFound}
}

func apply(job *domain.Job, fields Fields) {
	for k, v := range fields {
		switch k {
		case FieldStatus:
			job.Status = domain.JobStatus(v)
		case FieldStage:
			job.Stage = v
		case FieldProgress:
			if p, err := strconv.Atoi(v); err == nil {
				job.Progress = p
			}
		case FieldError:
			job.Error = v
		case FieldConvID:
			job.ConvID = v
		}
	}
}

func completedFields() Fields {
	return Fields{
		FieldStatus:   string(domain.StatusDone),
		FieldStage:    domain.StageDone,
		FieldProgress: strconv.Itoa(domain.ProgressDone),
	}
}

func failedFields(errMsg string) Fields {
	return Fields{
		FieldStatus: string(domain.StatusFailed),
		FieldError:  errMsg,
	}
}
