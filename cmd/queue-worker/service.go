package main

import (
	"context"
	"errors"
	"time"

	"github.com/pearcestephens/stocklink-backend/internal/queue"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

const (
	defaultBatchSize = 50
	defaultPollMs    = 1000
)

type queueProcessor interface {
	Process(ctx context.Context, batchSize int, entityType enums.EntityType) ([]queue.Result, error)
}

type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Processor queueProcessor
}

// Service drains the outbound job queue on a fixed cadence.
type Service struct {
	logg         *logger.Logger
	processor    queueProcessor
	batchSize    int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Processor == nil {
		return nil, errors.New("queue processor is required")
	}

	batchSize := params.Config.Queue.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	pollMs := params.Config.Queue.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Service{
		logg:         params.Logger,
		processor:    params.Processor,
		batchSize:    batchSize,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled. An empty poll just waits for the
// next tick; a failing poll is logged and retried on cadence.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "queue worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	results, err := s.processor.Process(ctx, s.batchSize, "")
	if err != nil {
		s.logg.Error(ctx, "queue poll failed", err)
		return
	}
	if len(results) == 0 {
		return
	}

	succeeded, failed := 0, 0
	for _, result := range results {
		if result.Status == enums.QueueStatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	fields := map[string]any{
		"processed": len(results),
		"succeeded": succeeded,
		"failed":    failed,
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "queue batch processed")
}
