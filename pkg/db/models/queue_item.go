package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

// QueueItem is one durable remote-API operation. The idempotency key uniquely
// identifies a logical operation: re-enqueueing the same key never creates a
// second row.
type QueueItem struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityType     enums.EntityType `gorm:"column:entity_type;not null;index"`
	Method         string           `gorm:"column:method;not null"`
	Endpoint       string           `gorm:"column:endpoint;not null"`
	Body           json.RawMessage  `gorm:"column:body;type:jsonb"`
	IdempotencyKey string           `gorm:"column:idempotency_key;uniqueIndex:ux_queue_items_idempotency_key;not null"`
	Status         enums.QueueStatus `gorm:"column:status;not null;default:pending;index"`
	RetryCount     int              `gorm:"column:retry_count;not null;default:0"`
	LockedBy       *string          `gorm:"column:locked_by"`
	LockedAt       *time.Time       `gorm:"column:locked_at"`
	NextAttemptAt  *time.Time       `gorm:"column:next_attempt_at;index"`
	LastError      *string          `gorm:"column:last_error"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (QueueItem) TableName() string { return "queue_items" }
