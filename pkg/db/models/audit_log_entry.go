package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

// AuditLogEntry is one append-only operation record. Rows are never mutated.
type AuditLogEntry struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CorrelationID string            `gorm:"column:correlation_id;not null;index"`
	EntityType    string            `gorm:"column:entity_type;index"`
	Action        string            `gorm:"column:action;not null"`
	Status        enums.AuditStatus `gorm:"column:status;not null;index"`
	Message       string            `gorm:"column:message"`
	Context       json.RawMessage   `gorm:"column:context;type:jsonb"`
	DurationMS    int64             `gorm:"column:duration_ms;not null;default:0"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}

func (AuditLogEntry) TableName() string { return "audit_log" }
