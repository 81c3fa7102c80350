package cron

import (
	"context"
	"errors"
	"testing"

	syncengine "github.com/pearcestephens/stocklink-backend/internal/sync"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type fakeSyncRunner struct {
	report syncengine.Report
	err    error
	calls  int
	full   bool
}

func (f *fakeSyncRunner) SyncAll(ctx context.Context, full bool, entities []enums.EntityType) (syncengine.Report, error) {
	f.calls++
	f.full = full
	return f.report, f.err
}

func TestSyncJobRunsIncrementalSync(t *testing.T) {
	runner := &fakeSyncRunner{
		report: syncengine.Report{Results: []syncengine.Result{
			{Entity: enums.EntityProducts, Synced: 10},
			{Entity: enums.EntitySales, Synced: 4, Errors: 1},
		}},
	}
	job, err := NewSyncJob(SyncJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Engine: runner,
	})
	if err != nil {
		t.Fatalf("NewSyncJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("expected one SyncAll call, got %d", runner.calls)
	}
	if runner.full {
		t.Fatal("scheduled sync must be incremental")
	}
}

func TestSyncJobSurfacesAggregateFailure(t *testing.T) {
	runner := &fakeSyncRunner{err: errors.New("brands: remote exploded")}
	job, err := NewSyncJob(SyncJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Engine: runner,
	})
	if err != nil {
		t.Fatalf("NewSyncJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
