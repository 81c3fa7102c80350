package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pearcestephens/stocklink-backend/api/responses"
	"github.com/pearcestephens/stocklink-backend/internal/queue"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type QueueService interface {
	Process(ctx context.Context, batchSize int, entityType enums.EntityType) ([]queue.Result, error)
	GetStats(ctx context.Context) (queue.Stats, error)
	ReclaimStale(ctx context.Context) (int64, error)
}

// QueueStats reports queue depth by status.
func QueueStats(svc QueueService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := svc.GetStats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type queueProcessRequest struct {
	BatchSize  int              `json:"batch_size"`
	EntityType enums.EntityType `json:"entity_type"`
}

// QueueProcess drains one batch of pending jobs. Normally the worker loop
// does this; the endpoint exists for manual pokes.
func QueueProcess(svc QueueService, defaultBatchSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req queueProcessRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
				return
			}
		}
		if req.BatchSize <= 0 {
			req.BatchSize = defaultBatchSize
		}
		if req.EntityType != "" && !req.EntityType.Valid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown entity type"))
			return
		}

		results, err := svc.Process(ctx, req.BatchSize, req.EntityType)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"processed": len(results),
			"results":   results,
		})
	}
}

// QueueReclaim releases jobs whose worker died mid-flight.
func QueueReclaim(svc QueueService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		reclaimed, err := svc.ReclaimStale(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"reclaimed": reclaimed})
	}
}
