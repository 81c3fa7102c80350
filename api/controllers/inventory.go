package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pearcestephens/stocklink-backend/api/responses"
	syncsvc "github.com/pearcestephens/stocklink-backend/internal/sync"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type InventoryService interface {
	UpdateInventory(ctx context.Context, productID, outletID string, quantity int) error
	AdjustInventory(ctx context.Context, productID, outletID string, delta int) (int, error)
	BulkInventoryUpdate(ctx context.Context, items []syncsvc.InventoryUpdate) syncsvc.BulkResult
}

type inventoryUpdateRequest struct {
	ProductID string `json:"product_id"`
	OutletID  string `json:"outlet_id"`
	Quantity  int    `json:"quantity"`
}

type inventoryAdjustRequest struct {
	ProductID string `json:"product_id"`
	OutletID  string `json:"outlet_id"`
	Delta     int    `json:"delta"`
}

type inventoryBulkRequest struct {
	Items []syncsvc.InventoryUpdate `json:"items"`
}

// InventoryUpdate sets an absolute stock level for a product at an outlet.
func InventoryUpdate(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req inventoryUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}
		if req.ProductID == "" || req.OutletID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id and outlet_id are required"))
			return
		}
		if req.Quantity < 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative"))
			return
		}

		if err := svc.UpdateInventory(ctx, req.ProductID, req.OutletID, req.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id": req.ProductID,
			"outlet_id":  req.OutletID,
			"quantity":   req.Quantity,
		})
	}
}

// InventoryAdjust applies a signed delta to the current stock level. The
// result never goes below zero.
func InventoryAdjust(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req inventoryAdjustRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}
		if req.ProductID == "" || req.OutletID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id and outlet_id are required"))
			return
		}

		quantity, err := svc.AdjustInventory(ctx, req.ProductID, req.OutletID, req.Delta)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id": req.ProductID,
			"outlet_id":  req.OutletID,
			"quantity":   quantity,
		})
	}
}

// InventoryBulk updates many stock levels in one call. Items are independent;
// the response reports per-item failures.
func InventoryBulk(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req inventoryBulkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode request body"))
			return
		}
		if len(req.Items) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "items must not be empty"))
			return
		}

		responses.WriteSuccess(w, svc.BulkInventoryUpdate(ctx, req.Items))
	}
}
