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

type ProductService interface {
	CreateProduct(ctx context.Context, input syncsvc.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, input syncsvc.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductCreate pushes a new product to the remote API.
func ProductCreate(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input syncsvc.ProductInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}

		product, err := svc.CreateProduct(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate pushes changed product fields to the remote API.
func ProductUpdate(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input syncsvc.ProductInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}

		product, err := svc.UpdateProduct(ctx, chi.URLParam(r, "productId"), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductDelete removes the product remotely and soft-deletes the shadow row.
func ProductDelete(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := svc.DeleteProduct(ctx, chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
