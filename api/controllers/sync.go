package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pearcestephens/stocklink-backend/api/responses"
	syncsvc "github.com/pearcestephens/stocklink-backend/internal/sync"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type SyncService interface {
	Sync(ctx context.Context, entity enums.EntityType, full bool, since string) (syncsvc.Result, error)
	SyncAll(ctx context.Context, full bool, entities []enums.EntityType) (syncsvc.Report, error)
}

// SyncEntity triggers a pull for one entity family. ?full=true ignores the
// stored cursor; ?since= overrides it for one run.
func SyncEntity(svc SyncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		entity := enums.EntityType(chi.URLParam(r, "entity"))
		if !entity.Valid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown entity type"))
			return
		}

		full, _ := strconv.ParseBool(r.URL.Query().Get("full"))
		since := r.URL.Query().Get("since")

		result, err := svc.Sync(ctx, entity, full, since)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SyncAll walks every entity family in dependency order. One failing entity
// does not stop the rest; failures come back in the report.
func SyncAll(svc SyncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		full, _ := strconv.ParseBool(r.URL.Query().Get("full"))

		report, err := svc.SyncAll(ctx, full, nil)
		if err != nil && logg != nil {
			logg.Warn(logg.WithField(ctx, "failed_entities", len(report.Failed)), "sync run finished with failures")
		}
		responses.WriteSuccess(w, report)
	}
}
