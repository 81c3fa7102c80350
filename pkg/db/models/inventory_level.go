package models

import "time"

// InventoryLevel is the per-product-per-outlet stock count shadow row.
type InventoryLevel struct {
	ProductID    string     `gorm:"column:product_id;primaryKey"`
	OutletID     string     `gorm:"column:outlet_id;primaryKey"`
	Quantity     int        `gorm:"column:quantity;not null;default:0"`
	ReorderPoint int        `gorm:"column:reorder_point;not null;default:0"`
	ReorderQty   int        `gorm:"column:reorder_qty;not null;default:0"`
	Version      int64      `gorm:"column:version;not null;default:0;index"`
	UpdatedAt    *time.Time `gorm:"column:updated_at"`
	SyncedAt     time.Time  `gorm:"column:synced_at;autoUpdateTime"`
}

func (InventoryLevel) TableName() string { return "shadow_inventory_levels" }

// StockLevel is the business-facing mirror of InventoryLevel that the retail
// UI reads. Writes here are best-effort; the shadow table stays authoritative.
type StockLevel struct {
	ProductID string    `gorm:"column:product_id;primaryKey"`
	OutletID  string    `gorm:"column:outlet_id;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StockLevel) TableName() string { return "stock_levels" }
