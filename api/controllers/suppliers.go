package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pearcestephens/stocklink-backend/api/responses"
	syncsvc "github.com/pearcestephens/stocklink-backend/internal/sync"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type SupplierService interface {
	CreateSupplier(ctx context.Context, input syncsvc.SupplierInput) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, id string, input syncsvc.SupplierInput) (*models.Supplier, error)
}

// SupplierCreate pushes a new supplier to the remote API.
func SupplierCreate(svc SupplierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input syncsvc.SupplierInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}

		supplier, err := svc.CreateSupplier(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

// SupplierUpdate pushes changed supplier fields to the remote API.
func SupplierUpdate(svc SupplierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input syncsvc.SupplierInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}

		supplier, err := svc.UpdateSupplier(ctx, chi.URLParam(r, "supplierId"), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}
