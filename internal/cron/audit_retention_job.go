package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

const auditRetentionDays = 90

type auditPurger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditRetentionJobParams configure the audit log cleanup.
type AuditRetentionJobParams struct {
	Logger        *logger.Logger
	Audit         auditPurger
	RetentionDays int
}

// NewAuditRetentionJob builds the job that trims expired audit entries.
func NewAuditRetentionJob(params AuditRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = auditRetentionDays
	}
	return &auditRetentionJob{
		logg:      params.Logger,
		audit:     params.Audit,
		retention: retention,
	}, nil
}

type auditRetentionJob struct {
	logg      *logger.Logger
	audit     auditPurger
	retention int
}

func (j *auditRetentionJob) Name() string { return "audit-retention" }

func (j *auditRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.audit.Purge(ctx, time.Duration(j.retention)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("audit retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "audit retention cleanup complete")
	return nil
}
