package cron

import (
	"context"
	"fmt"

	syncengine "github.com/pearcestephens/stocklink-backend/internal/sync"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type syncRunner interface {
	SyncAll(ctx context.Context, full bool, entities []enums.EntityType) (syncengine.Report, error)
}

// SyncJobParams configure the scheduled incremental sync.
type SyncJobParams struct {
	Logger *logger.Logger
	Engine syncRunner
}

// NewSyncJob builds the job that walks every entity incrementally.
func NewSyncJob(params SyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("sync engine required")
	}
	return &syncJob{logg: params.Logger, engine: params.Engine}, nil
}

type syncJob struct {
	logg   *logger.Logger
	engine syncRunner
}

func (j *syncJob) Name() string { return "entity-sync" }

func (j *syncJob) Run(ctx context.Context) error {
	report, err := j.engine.SyncAll(ctx, false, nil)

	synced := 0
	skipped := 0
	for _, result := range report.Results {
		synced += result.Synced
		skipped += result.Errors
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"entities": len(report.Results),
		"synced":   synced,
		"skipped":  skipped,
		"failed":   len(report.Failed),
	})
	if err != nil {
		j.logg.Error(logCtx, "incremental sync finished with failures", err)
		return fmt.Errorf("incremental sync: %w", err)
	}
	j.logg.Info(logCtx, "incremental sync complete")
	return nil
}
