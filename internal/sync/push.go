package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/vend"
)

// Push operations call the remote API first, then mirror the result into the
// shadow tables. Inventory writes additionally mirror into the business-facing
// stock_levels table on a best-effort basis.

// ProductInput carries the writable product fields.
type ProductInput struct {
	SKU         string          `json:"sku,omitempty"`
	Handle      string          `json:"handle,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	BrandID     *string         `json:"brand_id,omitempty"`
	SupplierID  *string         `json:"supplier_id,omitempty"`
	CategoryID  *string         `json:"category_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	Price       decimal.Decimal `json:"price"`
	SupplyPrice decimal.Decimal `json:"supply_price"`
}

// SupplierInput carries the writable supplier fields.
type SupplierInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// InventoryUpdate is one target quantity for a product at an outlet.
type InventoryUpdate struct {
	ProductID string `json:"product_id"`
	OutletID  string `json:"outlet_id"`
	Quantity  int    `json:"quantity"`
}

// BulkResult summarizes a bulk inventory run. Items are independent: one
// failure never rolls back the others.
type BulkResult struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// CreateProduct pushes a new product to the remote API and mirrors the
// returned record locally.
func (e *Engine) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	return e.pushProduct(ctx, http.MethodPost, "/api/2.0/products", input, "product.create")
}

// UpdateProduct pushes field changes for an existing product.
func (e *Engine) UpdateProduct(ctx context.Context, id string, input ProductInput) (*models.Product, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return e.pushProduct(ctx, http.MethodPut, "/api/2.0/products/"+id, input, "product.update")
}

func (e *Engine) pushProduct(ctx context.Context, method, endpoint string, input ProductInput, action string) (*models.Product, error) {
	start := e.now()
	raw, err := e.api.Request(ctx, method, endpoint, input, nil)
	if err != nil {
		e.recordAudit(ctx, string(enums.EntityProducts), action, enums.AuditStatusError, err.Error(), nil, e.now().Sub(start))
		return nil, err
	}
	product, err := decodePushedProduct(raw)
	if err != nil {
		e.recordAudit(ctx, string(enums.EntityProducts), action, enums.AuditStatusError, err.Error(), nil, e.now().Sub(start))
		return nil, err
	}
	if err := e.store.Upsert(ctx, product, []string{"id"}); err != nil {
		e.recordAudit(ctx, string(enums.EntityProducts), action, enums.AuditStatusError, err.Error(), nil, e.now().Sub(start))
		return nil, err
	}
	e.recordAudit(ctx, string(enums.EntityProducts), action, enums.AuditStatusSuccess, "pushed "+product.ID, map[string]any{"id": product.ID}, e.now().Sub(start))
	return product, nil
}

func decodePushedProduct(raw json.RawMessage) (*models.Product, error) {
	var envelope vend.ObjectResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode pushed product")
	}
	product, err := transformProduct(envelope.Data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transform pushed product")
	}
	return &product, nil
}

// DeleteProduct removes the product remotely and soft-deletes the shadow row.
func (e *Engine) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	start := e.now()
	if _, err := e.api.Request(ctx, http.MethodDelete, "/api/2.0/products/"+id, nil, nil); err != nil {
		e.recordAudit(ctx, string(enums.EntityProducts), "product.delete", enums.AuditStatusError, err.Error(), nil, e.now().Sub(start))
		return err
	}
	now := e.now().UTC()
	var product models.Product
	if err := e.store.First(ctx, &product, "id = ?", id); err == nil {
		product.DeletedAt = &now
		product.Active = false
		if upsertErr := e.store.Upsert(ctx, &product, []string{"id"}); upsertErr != nil {
			e.recordAudit(ctx, string(enums.EntityProducts), "product.delete", enums.AuditStatusWarning,
				"remote delete succeeded, shadow update failed: "+upsertErr.Error(), map[string]any{"id": id}, e.now().Sub(start))
			return nil
		}
	}
	e.recordAudit(ctx, string(enums.EntityProducts), "product.delete", enums.AuditStatusSuccess, "deleted "+id, map[string]any{"id": id}, e.now().Sub(start))
	return nil
}

// CreateSupplier pushes a new supplier and mirrors it locally.
func (e *Engine) CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	return e.pushSupplier(ctx, http.MethodPost, "/api/2.0/suppliers", input, "supplier.create")
}

// UpdateSupplier pushes field changes for an existing supplier.
func (e *Engine) UpdateSupplier(ctx context.Context, id string, input SupplierInput) (*models.Supplier, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	return e.pushSupplier(ctx, http.MethodPut, "/api/2.0/suppliers/"+id, input, "supplier.update")
}

func (e *Engine) pushSupplier(ctx context.Context, method, endpoint string, input SupplierInput, action string) (*models.Supplier, error) {
	start := e.now()
	raw, err := e.api.Request(ctx, method, endpoint, input, nil)
	if err != nil {
		e.recordAudit(ctx, string(enums.EntitySuppliers), action, enums.AuditStatusError, err.Error(), nil, e.now().Sub(start))
		return nil, err
	}
	var envelope vend.ObjectResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode pushed supplier")
	}
	supplier, err := transformSupplier(envelope.Data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transform pushed supplier")
	}
	if err := e.store.Upsert(ctx, &supplier, []string{"id"}); err != nil {
		e.recordAudit(ctx, string(enums.EntitySuppliers), action, enums.AuditStatusError, err.Error(), nil, e.now().Sub(start))
		return nil, err
	}
	e.recordAudit(ctx, string(enums.EntitySuppliers), action, enums.AuditStatusSuccess, "pushed "+supplier.ID, map[string]any{"id": supplier.ID}, e.now().Sub(start))
	return &supplier, nil
}

// UpdateInventory sets the absolute quantity for a product at an outlet.
func (e *Engine) UpdateInventory(ctx context.Context, productID, outletID string, quantity int) error {
	if productID == "" || outletID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and outlet ids are required")
	}
	if quantity < 0 {
		quantity = 0
	}
	start := e.now()
	body := map[string]any{
		"product_id":     productID,
		"outlet_id":      outletID,
		"current_amount": quantity,
	}
	if _, err := e.api.Request(ctx, http.MethodPost, "/api/2.0/inventory", body, nil); err != nil {
		e.recordAudit(ctx, string(enums.EntityInventory), "inventory.update", enums.AuditStatusError, err.Error(),
			map[string]any{"product_id": productID, "outlet_id": outletID}, e.now().Sub(start))
		return err
	}

	now := e.now().UTC()
	level := models.InventoryLevel{
		ProductID: productID,
		OutletID:  outletID,
		Quantity:  quantity,
		UpdatedAt: &now,
	}
	if err := e.store.Upsert(ctx, &level, []string{"product_id", "outlet_id"}); err != nil {
		e.recordAudit(ctx, string(enums.EntityInventory), "inventory.update", enums.AuditStatusError, err.Error(),
			map[string]any{"product_id": productID, "outlet_id": outletID}, e.now().Sub(start))
		return err
	}

	// The business mirror is best-effort; the shadow row stays authoritative.
	mirror := models.StockLevel{ProductID: productID, OutletID: outletID, Quantity: quantity}
	if err := e.store.Upsert(ctx, &mirror, []string{"product_id", "outlet_id"}); err != nil {
		e.logger.Warn(e.logger.WithFields(ctx, map[string]any{
			"product_id": productID,
			"outlet_id":  outletID,
			"error":      err.Error(),
		}), "stock level mirror update failed")
		e.recordAudit(ctx, string(enums.EntityInventory), "inventory.update", enums.AuditStatusWarning,
			"mirror write failed: "+err.Error(), map[string]any{"product_id": productID, "outlet_id": outletID}, e.now().Sub(start))
		return nil
	}

	e.recordAudit(ctx, string(enums.EntityInventory), "inventory.update", enums.AuditStatusSuccess,
		fmt.Sprintf("set %s@%s to %d", productID, outletID, quantity),
		map[string]any{"product_id": productID, "outlet_id": outletID, "quantity": quantity}, e.now().Sub(start))
	return nil
}

// AdjustInventory applies a relative delta, flooring the result at zero.
func (e *Engine) AdjustInventory(ctx context.Context, productID, outletID string, delta int) (int, error) {
	if productID == "" || outletID == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product and outlet ids are required")
	}
	current := 0
	var level models.InventoryLevel
	if err := e.store.First(ctx, &level, "product_id = ? AND outlet_id = ?", productID, outletID); err == nil {
		current = level.Quantity
	}
	quantity := current + delta
	if quantity < 0 {
		quantity = 0
	}
	if err := e.UpdateInventory(ctx, productID, outletID, quantity); err != nil {
		return 0, err
	}
	return quantity, nil
}

// BulkInventoryUpdate processes each item independently and reports a
// per-item outcome summary.
func (e *Engine) BulkInventoryUpdate(ctx context.Context, items []InventoryUpdate) BulkResult {
	result := BulkResult{}
	for _, item := range items {
		if err := e.UpdateInventory(ctx, item.ProductID, item.OutletID, item.Quantity); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s@%s: %v", item.ProductID, item.OutletID, err))
			continue
		}
		result.Updated++
	}
	return result
}
