package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

// Entry is one operation outcome to record. Context is marshaled to JSON;
// values that fail to marshal are dropped rather than failing the write.
type Entry struct {
	CorrelationID string
	EntityType    string
	Action        string
	Status        enums.AuditStatus
	Message       string
	Context       map[string]any
	Duration      time.Duration
}

// Recorder is the write-side surface other components depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Service writes audit entries and reads them back for the ops endpoints.
type Service interface {
	Recorder
	Trail(ctx context.Context, correlationID string, limit int) ([]models.AuditLogEntry, error)
	Recent(ctx context.Context, entityType string, status enums.AuditStatus, limit int) ([]models.AuditLogEntry, error)
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

type service struct {
	repo   Repository
	logger *logger.Logger
}

// ServiceParams carries the audit service dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

// NewService validates dependencies and builds the audit service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("audit repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("audit logger is required")
	}
	return &service{repo: params.Repo, logger: params.Logger}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	correlationID := entry.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	status := entry.Status
	if status == "" {
		status = enums.AuditStatusSuccess
	}

	var rawContext json.RawMessage
	if len(entry.Context) > 0 {
		if encoded, err := json.Marshal(entry.Context); err == nil {
			rawContext = encoded
		}
	}

	row := &models.AuditLogEntry{
		ID:            uuid.New(),
		CorrelationID: correlationID,
		EntityType:    entry.EntityType,
		Action:        entry.Action,
		Status:        status,
		Message:       entry.Message,
		Context:       rawContext,
		DurationMS:    entry.Duration.Milliseconds(),
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		ctx = s.logger.WithCorrelationID(ctx, correlationID)
		s.logger.Error(ctx, "writing audit entry failed", err)
		return err
	}
	return nil
}

func (s *service) Trail(ctx context.Context, correlationID string, limit int) ([]models.AuditLogEntry, error) {
	if correlationID == "" {
		return nil, errors.New("correlation id is required")
	}
	return s.repo.ListByCorrelation(ctx, correlationID, limit)
}

func (s *service) Recent(ctx context.Context, entityType string, status enums.AuditStatus, limit int) ([]models.AuditLogEntry, error) {
	return s.repo.ListRecent(ctx, entityType, status, limit)
}

func (s *service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("retention must be positive")
	}
	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}), "purged expired audit entries")
	}
	return deleted, nil
}
