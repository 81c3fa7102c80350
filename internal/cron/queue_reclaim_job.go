package cron

import (
	"context"
	"fmt"

	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type queueReclaimer interface {
	ReclaimStale(ctx context.Context) (int64, error)
}

// QueueReclaimJobParams configure the stale-lock sweep.
type QueueReclaimJobParams struct {
	Logger *logger.Logger
	Queue  queueReclaimer
}

// NewQueueReclaimJob builds the job that returns abandoned queue locks to the
// pending pool.
func NewQueueReclaimJob(params QueueReclaimJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("queue service required")
	}
	return &queueReclaimJob{logg: params.Logger, queue: params.Queue}, nil
}

type queueReclaimJob struct {
	logg  *logger.Logger
	queue queueReclaimer
}

func (j *queueReclaimJob) Name() string { return "queue-reclaim" }

func (j *queueReclaimJob) Run(ctx context.Context) error {
	reclaimed, err := j.queue.ReclaimStale(ctx)
	if err != nil {
		return fmt.Errorf("queue reclaim: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "reclaimed", reclaimed), "stale queue lock sweep complete")
	return nil
}
