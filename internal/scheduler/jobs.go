package scheduler

import (
	"context"
	"fmt"

	"proptracker/server/internal/recompute"
)

type BatchRecomputer interface {
	RecomputeAll(ctx context.Context) (recompute.BatchResult, error)
}

// RecomputeAllJob refreshes the metrics of every property. Per-property
// failures are reported by the batch summary and do not fail the job.
type RecomputeAllJob struct {
	service BatchRecomputer
}

func NewRecomputeAllJob(service BatchRecomputer) *RecomputeAllJob {
	return &RecomputeAllJob{service: service}
}

func (j *RecomputeAllJob) Name() string {
	return "recompute_all"
}

func (j *RecomputeAllJob) Run(ctx context.Context) error {
	if _, err := j.service.RecomputeAll(ctx); err != nil {
		return fmt.Errorf("failed to recompute all properties: %w", err)
	}
	return nil
}
