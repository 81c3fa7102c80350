package models

import (
	"time"

	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Consignment tracks a stock transfer or supplier order. State changes go
// through the lifecycle state machine; other fields mutate only while the
// current state is editable.
type Consignment struct {
	ID           string                 `gorm:"column:id;primaryKey"`
	Name         string                 `gorm:"column:name"`
	Type         string                 `gorm:"column:type;index"`
	State        enums.ConsignmentState `gorm:"column:state;not null;index"`
	OutletID     *string                `gorm:"column:outlet_id;index"`
	SourceID     *string                `gorm:"column:source_outlet_id"`
	SupplierID   *string                `gorm:"column:supplier_id;index"`
	Reference    string                 `gorm:"column:reference"`
	Notes        string                 `gorm:"column:notes"`
	TotalCount   int                    `gorm:"column:total_count;not null;default:0"`
	ReceivedAt   *time.Time             `gorm:"column:received_at"`
	SentAt       *time.Time             `gorm:"column:sent_at"`
	DueAt        *time.Time             `gorm:"column:due_at"`
	Version      int64                  `gorm:"column:version;not null;default:0;index"`
	CreatedAt    *time.Time             `gorm:"column:created_at"`
	UpdatedAt    *time.Time             `gorm:"column:updated_at"`
	DeletedAt    *time.Time             `gorm:"column:deleted_at"`
	SyncedAt     time.Time              `gorm:"column:synced_at;autoUpdateTime"`
}

func (Consignment) TableName() string { return "shadow_consignments" }

// ConsignmentLineItem is one product line on a consignment.
type ConsignmentLineItem struct {
	ID            string          `gorm:"column:id;primaryKey"`
	ConsignmentID string          `gorm:"column:consignment_id;not null;index"`
	ProductID     string          `gorm:"column:product_id;not null;index"`
	Count         int             `gorm:"column:count;not null;default:0"`
	ReceivedCount int             `gorm:"column:received_count;not null;default:0"`
	Cost          decimal.Decimal `gorm:"column:cost;type:numeric(14,4);not null;default:0"`
	Version       int64           `gorm:"column:version;not null;default:0"`
	CreatedAt     *time.Time      `gorm:"column:created_at"`
	UpdatedAt     *time.Time      `gorm:"column:updated_at"`
	DeletedAt     *time.Time      `gorm:"column:deleted_at"`
	SyncedAt      time.Time       `gorm:"column:synced_at;autoUpdateTime"`
}

func (ConsignmentLineItem) TableName() string { return "shadow_consignment_line_items" }
