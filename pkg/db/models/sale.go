package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Sale mirrors a completed or in-flight register sale.
type Sale struct {
	ID         string          `gorm:"column:id;primaryKey"`
	OutletID   *string         `gorm:"column:outlet_id;index"`
	RegisterID *string         `gorm:"column:register_id"`
	CustomerID *string         `gorm:"column:customer_id;index"`
	UserID     *string         `gorm:"column:user_id"`
	Status     string          `gorm:"column:status;index"`
	Note       string          `gorm:"column:note"`
	Total      decimal.Decimal `gorm:"column:total;type:numeric(14,4);not null;default:0"`
	TotalTax   decimal.Decimal `gorm:"column:total_tax;type:numeric(14,4);not null;default:0"`
	// Line items are carried as the raw remote payload; nothing downstream
	// joins on them yet.
	LineItems json.RawMessage `gorm:"column:line_items;type:jsonb"`
	SaleDate  *time.Time      `gorm:"column:sale_date;index"`
	Version   int64           `gorm:"column:version;not null;default:0;index"`
	CreatedAt *time.Time      `gorm:"column:created_at"`
	UpdatedAt *time.Time      `gorm:"column:updated_at"`
	DeletedAt *time.Time      `gorm:"column:deleted_at"`
	SyncedAt  time.Time       `gorm:"column:synced_at;autoUpdateTime"`
}

func (Sale) TableName() string { return "shadow_sales" }
