package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the shadow copy of a remote product. The remote API owns truth;
// this row is the last-known-good snapshot keyed by the remote id.
type Product struct {
	ID          string          `gorm:"column:id;primaryKey"`
	SKU         string          `gorm:"column:sku;index"`
	Handle      string          `gorm:"column:handle"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description"`
	BrandID     *string         `gorm:"column:brand_id;index"`
	SupplierID  *string         `gorm:"column:supplier_id;index"`
	CategoryID  *string         `gorm:"column:category_id;index"`
	VariantName string          `gorm:"column:variant_name"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(14,4);not null;default:0"`
	Cost        decimal.Decimal `gorm:"column:cost;type:numeric(14,4);not null;default:0"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	Version     int64           `gorm:"column:version;not null;default:0;index"`
	CreatedAt   *time.Time      `gorm:"column:created_at"`
	UpdatedAt   *time.Time      `gorm:"column:updated_at"`
	DeletedAt   *time.Time      `gorm:"column:deleted_at"`
	SyncedAt    time.Time       `gorm:"column:synced_at;autoUpdateTime"`
}

func (Product) TableName() string { return "shadow_products" }
