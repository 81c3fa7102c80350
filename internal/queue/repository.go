package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

// Repository owns the queue_items table access.
type Repository struct {
	db *gorm.DB
}

// NewRepository wraps the shared GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return r.db
	}
	return r.db.WithContext(ctx)
}

// Insert creates one queue row.
func (r *Repository) Insert(ctx context.Context, item *models.QueueItem) error {
	return r.conn(ctx).Create(item).Error
}

// FindByIdempotencyKey looks up a logical operation by its key.
func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.QueueItem, error) {
	var item models.QueueItem
	err := r.conn(ctx).Where("idempotency_key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FetchCandidates lists pending items ripe for processing, oldest first.
func (r *Repository) FetchCandidates(ctx context.Context, limit int, entityType enums.EntityType, now time.Time) ([]models.QueueItem, error) {
	query := r.conn(ctx).
		Where("status = ?", enums.QueueStatusPending).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Where("locked_by IS NULL").
		Order("created_at ASC").
		Limit(limit)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	var items []models.QueueItem
	err := query.Find(&items).Error
	return items, err
}

// Claim takes the lock on one pending row. The WHERE guard makes the claim
// atomic: a row already locked or no longer pending reports zero rows and the
// caller skips it.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID, owner string, now time.Time) (bool, error) {
	result := r.conn(ctx).Model(&models.QueueItem{}).
		Where("id = ?", id).
		Where("status = ?", enums.QueueStatusPending).
		Where("locked_by IS NULL").
		Updates(map[string]any{
			"status":    enums.QueueStatusProcessing,
			"locked_by": owner,
			"locked_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkSuccess finalizes a processed item and releases its lock.
func (r *Repository) MarkSuccess(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Model(&models.QueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.QueueStatusSuccess,
			"locked_by":  nil,
			"locked_at":  nil,
			"last_error": nil,
		}).Error
}

// MarkRetry schedules the next attempt with backoff and releases the lock.
func (r *Repository) MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAttemptAt time.Time, lastError string) error {
	return r.conn(ctx).Model(&models.QueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          enums.QueueStatusPending,
			"retry_count":     retryCount,
			"next_attempt_at": nextAttemptAt,
			"locked_by":       nil,
			"locked_at":       nil,
			"last_error":      lastError,
		}).Error
}

// MarkDeadLettered parks an item that exhausted its retry budget.
func (r *Repository) MarkDeadLettered(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error {
	return r.conn(ctx).Model(&models.QueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      enums.QueueStatusFailed,
			"retry_count": retryCount,
			"locked_by":   nil,
			"locked_at":   nil,
			"last_error":  lastError,
		}).Error
}

// CountByStatus returns row counts keyed by queue status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.QueueStatus]int64, error) {
	type statusCount struct {
		Status enums.QueueStatus
		Total  int64
	}
	var rows []statusCount
	err := r.conn(ctx).Model(&models.QueueItem{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.QueueStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// ReleaseStale clears locks older than the cutoff so abandoned items become
// claimable again.
func (r *Repository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.conn(ctx).Model(&models.QueueItem{}).
		Where("status = ?", enums.QueueStatusProcessing).
		Where("locked_at < ?", cutoff).
		Updates(map[string]any{
			"status":    enums.QueueStatusPending,
			"locked_by": nil,
			"locked_at": nil,
		})
	return result.RowsAffected, result.Error
}
