package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pearcestephens/stocklink-backend/api/responses"
	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

const defaultAuditLimit = 50

func auditLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultAuditLimit
	}
	return limit
}

// AuditTrail returns every entry recorded under one correlation id, oldest
// first, so a whole webhook or sync run reads top to bottom.
func AuditTrail(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		correlationID := chi.URLParam(r, "correlationId")
		if correlationID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "correlation id is required"))
			return
		}

		entries, err := svc.Trail(ctx, correlationID, auditLimit(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// AuditRecent returns the newest entries, optionally filtered by entity type
// and status.
func AuditRecent(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		entity := r.URL.Query().Get("entity")
		status := enums.AuditStatus(r.URL.Query().Get("status"))

		entries, err := svc.Recent(ctx, entity, status, auditLimit(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
