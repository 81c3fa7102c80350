package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pearcestephens/stocklink-backend/api/responses"
	"github.com/pearcestephens/stocklink-backend/internal/consignment"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type ConsignmentService interface {
	Transition(ctx context.Context, id, target string) (*models.Consignment, error)
	Capabilities(ctx context.Context, id string) (consignment.Capabilities, error)
}

type consignmentTransitionRequest struct {
	To string `json:"to"`
}

// ConsignmentTransition moves a consignment through its lifecycle.
func ConsignmentTransition(svc ConsignmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req consignmentTransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}
		if req.To == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "target state is required"))
			return
		}

		row, err := svc.Transition(ctx, chi.URLParam(r, "consignmentId"), req.To)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// ConsignmentCapabilities reports the lifecycle options for one consignment.
func ConsignmentCapabilities(svc ConsignmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caps, err := svc.Capabilities(ctx, chi.URLParam(r, "consignmentId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, caps)
	}
}
