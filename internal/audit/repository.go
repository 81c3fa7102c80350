package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

// Repository persists append-only audit entries. Rows are inserted and read,
// never updated.
type Repository interface {
	Insert(ctx context.Context, entry *models.AuditLogEntry) error
	ListByCorrelation(ctx context.Context, correlationID string, limit int) ([]models.AuditLogEntry, error)
	ListRecent(ctx context.Context, entityType string, status enums.AuditStatus, limit int) ([]models.AuditLogEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed audit repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return r.db
	}
	return r.db.WithContext(ctx)
}

func (r *repository) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	return r.conn(ctx).Create(entry).Error
}

func (r *repository) ListByCorrelation(ctx context.Context, correlationID string, limit int) ([]models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditLogEntry
	err := r.conn(ctx).
		Where("correlation_id = ?", correlationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *repository) ListRecent(ctx context.Context, entityType string, status enums.AuditStatus, limit int) ([]models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.conn(ctx).Order("created_at DESC").Limit(limit)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var entries []models.AuditLogEntry
	err := query.Find(&entries).Error
	return entries, err
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.conn(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLogEntry{})
	return result.RowsAffected, result.Error
}
