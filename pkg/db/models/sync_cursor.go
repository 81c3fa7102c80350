package models

import (
	"time"

	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

// SyncCursor stores the highest version token consumed for one entity type.
// The cursor never regresses and is advanced only after a page's writes commit.
type SyncCursor struct {
	EntityType enums.EntityType `gorm:"column:entity_type;primaryKey"`
	Cursor     string           `gorm:"column:cursor;not null;default:''"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (SyncCursor) TableName() string { return "sync_cursors" }
