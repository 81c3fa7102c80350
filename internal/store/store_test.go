package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

func setupStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS shadow_products (
  id TEXT PRIMARY KEY CHECK (length(id) > 0),
  sku TEXT,
  handle TEXT,
  name TEXT NOT NULL,
  description TEXT,
  brand_id TEXT,
  supplier_id TEXT,
  category_id TEXT,
  variant_name TEXT,
  price NUMERIC NOT NULL DEFAULT 0,
  cost NUMERIC NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME,
  synced_at DATETIME
);`
	cursors := `
CREATE TABLE IF NOT EXISTS sync_cursors (
  entity_type TEXT PRIMARY KEY,
  cursor TEXT NOT NULL DEFAULT '',
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(cursors).Error)
	return db
}

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db := setupStoreTestDB(t)
	s, err := New(db)
	require.NoError(t, err)
	return s, db
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	keys := []string{"id"}

	first := models.Product{ID: "p1", Name: "Widget", Version: 10}
	require.NoError(t, s.Upsert(ctx, &first, keys))

	second := models.Product{ID: "p1", Name: "Widget v2", Version: 11}
	require.NoError(t, s.Upsert(ctx, &second, keys))

	var rows []models.Product
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Widget v2", rows[0].Name)
	assert.EqualValues(t, 11, rows[0].Version)
}

func TestBatchUpsertRollsBackOnRowFailure(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	batch := []models.Product{
		{ID: "p1", Name: "Good"},
		{ID: "", Name: "Bad"},
	}
	err := s.BatchUpsert(ctx, batch, []string{"id"})
	require.Error(t, err)

	var total int64
	require.NoError(t, db.Model(&models.Product{}).Count(&total).Error)
	assert.EqualValues(t, 0, total, "failed batch must not leave partial rows")
}

func TestBatchUpsertIsIdempotent(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	batch := []models.Product{
		{ID: "p1", Name: "One", Version: 1},
		{ID: "p2", Name: "Two", Version: 2},
	}
	require.NoError(t, s.BatchUpsert(ctx, batch, []string{"id"}))
	require.NoError(t, s.BatchUpsert(ctx, batch, []string{"id"}))

	var total int64
	require.NoError(t, db.Model(&models.Product{}).Count(&total).Error)
	assert.EqualValues(t, 2, total)
}

func TestGetCursorReturnsEmptyWhenMissing(t *testing.T) {
	s, _ := newTestStore(t)
	cursor, err := s.GetCursor(context.Background(), enums.EntityProducts)
	require.NoError(t, err)
	assert.Equal(t, "", cursor)
}

func TestUpdateCursorNeverRegresses(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateCursor(ctx, enums.EntityProducts, "100"))
	require.NoError(t, s.UpdateCursor(ctx, enums.EntityProducts, "250"))
	require.NoError(t, s.UpdateCursor(ctx, enums.EntityProducts, "90"))

	cursor, err := s.GetCursor(ctx, enums.EntityProducts)
	require.NoError(t, err)
	assert.Equal(t, "250", cursor)
}

func TestUpdateCursorIsPerEntity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateCursor(ctx, enums.EntityProducts, "500"))
	require.NoError(t, s.UpdateCursor(ctx, enums.EntitySales, "7"))

	productCursor, err := s.GetCursor(ctx, enums.EntityProducts)
	require.NoError(t, err)
	salesCursor, err := s.GetCursor(ctx, enums.EntitySales)
	require.NoError(t, err)
	assert.Equal(t, "500", productCursor)
	assert.Equal(t, "7", salesCursor)
}

func TestCountAndSelect(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	batch := []models.Product{
		{ID: "p1", Name: "One", Active: true},
		{ID: "p2", Name: "Two", Active: false},
	}
	require.NoError(t, s.BatchUpsert(ctx, batch, []string{"id"}))

	total, err := s.Count(ctx, &models.Product{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	active, err := s.Count(ctx, &models.Product{}, "active = ?", true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)

	var rows []models.Product
	require.NoError(t, s.Select(ctx, &rows, "id = ?", "p2"))
	require.Len(t, rows, 1)
	assert.Equal(t, "Two", rows[0].Name)
}
