package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pearcestephens/stocklink-backend/internal/queue"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type fakeProcessor struct {
	results    []queue.Result
	err        error
	calls      int
	batchSizes []int
}

func (f *fakeProcessor) Process(ctx context.Context, batchSize int, entityType enums.EntityType) ([]queue.Result, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, batchSize)
	return f.results, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Queue: config.QueueConfig{BatchSize: 25, PollIntervalMS: 10},
	}
}

func TestNewServiceValidatesDeps(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config: testConfig(),
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err == nil {
		t.Fatal("expected error for missing processor")
	}
}

func TestRunOnceUsesConfiguredBatchSize(t *testing.T) {
	processor := &fakeProcessor{results: []queue.Result{
		{ID: uuid.New(), Status: enums.QueueStatusSuccess},
		{ID: uuid.New(), Status: enums.QueueStatusFailed},
	}}
	service, err := NewService(ServiceParams{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Processor: processor,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	service.runOnce(context.Background())

	if processor.calls != 1 {
		t.Fatalf("expected one poll, got %d", processor.calls)
	}
	if processor.batchSizes[0] != 25 {
		t.Fatalf("expected batch size 25, got %d", processor.batchSizes[0])
	}
}

func TestRunOnceToleratesPollFailure(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("db down")}
	service, err := NewService(ServiceParams{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Processor: processor,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	service.runOnce(context.Background())
	service.runOnce(context.Background())

	if processor.calls != 2 {
		t.Fatalf("expected polling to continue after failure, got %d calls", processor.calls)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	processor := &fakeProcessor{}
	service, err := NewService(ServiceParams{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Processor: processor,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := service.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if processor.calls == 0 {
		t.Fatal("expected at least one poll before cancel")
	}
}
