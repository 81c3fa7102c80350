package sync

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

func TestTransformProductDefaultsOptionalFields(t *testing.T) {
	raw := json.RawMessage(`{"id":"p1","name":"Widget"}`)
	product, err := transformProduct(raw)
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, "Widget", product.Name)
	assert.True(t, product.Price.IsZero())
	assert.True(t, product.Active)
	assert.EqualValues(t, 0, product.Version)
	assert.Nil(t, product.CreatedAt)
	assert.Nil(t, product.BrandID)
}

func TestTransformProductParsesNumericAndTimeFields(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "p2",
		"name": "Gadget",
		"sku": "G-1",
		"price": "19.99",
		"supply_price": 7.5,
		"active": false,
		"version": 12345,
		"created_at": "2026-01-15T10:00:00Z",
		"updated_at": "2026-01-16 08:30:00"
	}`)
	product, err := transformProduct(raw)
	require.NoError(t, err)
	assert.Equal(t, "19.99", product.Price.String())
	assert.Equal(t, "7.5", product.Cost.String())
	assert.False(t, product.Active)
	assert.EqualValues(t, 12345, product.Version)
	require.NotNil(t, product.CreatedAt)
	require.NotNil(t, product.UpdatedAt)
}

func TestTransformProductRejectsMissingID(t *testing.T) {
	_, err := transformProduct(json.RawMessage(`{"name":"anonymous"}`))
	require.Error(t, err)
}

func TestTransformProductRejectsMalformedJSON(t *testing.T) {
	_, err := transformProduct(json.RawMessage(`{"id": "p1", "name": `))
	require.Error(t, err)
}

func TestTransformInventoryRequiresCompositeKey(t *testing.T) {
	_, err := transformInventory(json.RawMessage(`{"product_id":"p1"}`))
	require.Error(t, err)

	level, err := transformInventory(json.RawMessage(`{"product_id":"p1","outlet_id":"o1","current_amount":7,"reorder_point":3}`))
	require.NoError(t, err)
	assert.Equal(t, 7, level.Quantity)
	assert.Equal(t, 3, level.ReorderPoint)
}

func TestTransformInventoryToleratesFractionalAmounts(t *testing.T) {
	level, err := transformInventory(json.RawMessage(`{"product_id":"p1","outlet_id":"o1","current_amount":4.0}`))
	require.NoError(t, err)
	assert.Equal(t, 4, level.Quantity)
}

func TestTransformConsignmentNormalizesState(t *testing.T) {
	raw := json.RawMessage(`{"id":"c1","status":"sent","version":9}`)
	record, err := transformConsignment(raw)
	require.NoError(t, err)
	assert.Equal(t, enums.ConsignmentSent, record.State)
	assert.EqualValues(t, 9, record.Version)
}

func TestTransformConsignmentRejectsUnknownState(t *testing.T) {
	_, err := transformConsignment(json.RawMessage(`{"id":"c1","status":"TELEPORTED"}`))
	require.Error(t, err)
}

func TestTransformSaleCarriesRawLineItems(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "s1",
		"status": "CLOSED",
		"total_price": "100.50",
		"total_tax": "15.08",
		"line_items": [{"product_id":"p1","quantity":2}],
		"sale_date": "2026-02-01T09:00:00Z"
	}`)
	sale, err := transformSale(raw)
	require.NoError(t, err)
	assert.Equal(t, "100.5", sale.Total.String())
	assert.JSONEq(t, `[{"product_id":"p1","quantity":2}]`, string(sale.LineItems))
	require.NotNil(t, sale.SaleDate)
}

func TestParseTimeHandlesKnownLayouts(t *testing.T) {
	assert.Nil(t, parseTime(""))
	assert.Nil(t, parseTime("not-a-date"))
	assert.NotNil(t, parseTime("2026-03-01T12:00:00Z"))
	assert.NotNil(t, parseTime("2026-03-01 12:00:00"))
	assert.NotNil(t, parseTime("2026-03-01"))
}
