package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/db"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
	"github.com/pearcestephens/stocklink-backend/pkg/metrics"
)

const defaultMaxAttempts = 5

// remoteCaller is the slice of the API client the queue needs.
type remoteCaller interface {
	Request(ctx context.Context, method, endpoint string, body any, params url.Values) (json.RawMessage, error)
}

// EnqueueInput describes one remote operation to queue.
type EnqueueInput struct {
	EntityType     enums.EntityType
	Method         string
	Endpoint       string
	Body           json.RawMessage
	IdempotencyKey string
}

// Result reports the outcome of processing a single item.
type Result struct {
	ID         uuid.UUID        `json:"id"`
	EntityType enums.EntityType `json:"entity_type"`
	Status     enums.QueueStatus `json:"status"`
	Attempts   int              `json:"attempts"`
	Error      string           `json:"error,omitempty"`
}

// Stats summarizes queue depth by status for health checks.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Success    int64 `json:"success"`
	Failed     int64 `json:"failed"`
}

// Service is the durable work queue for outbound remote-API operations.
type Service struct {
	repo        *Repository
	caller      remoteCaller
	auditor     audit.Recorder
	logger      *logger.Logger
	metrics     *metrics.QueueMetrics
	owner       string
	maxAttempts int
	lockTimeout time.Duration

	// now is injectable for backoff tests.
	now func() time.Time
}

// ServiceParams carries the queue service dependencies.
type ServiceParams struct {
	Repo    *Repository
	Caller  remoteCaller
	Auditor audit.Recorder
	Logger  *logger.Logger
	Metrics *metrics.QueueMetrics
	Owner   string
	Config  config.QueueConfig
}

// NewService validates dependencies and builds the queue service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("queue repository is required")
	}
	if params.Caller == nil {
		return nil, errors.New("queue remote caller is required")
	}
	if params.Auditor == nil {
		return nil, errors.New("queue audit recorder is required")
	}
	if params.Logger == nil {
		return nil, errors.New("queue logger is required")
	}
	owner := params.Owner
	if owner == "" {
		owner = fmt.Sprintf("worker-%s", uuid.NewString()[:8])
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	lockTimeout := params.Config.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = 300 * time.Second
	}
	return &Service{
		repo:        params.Repo,
		caller:      params.Caller,
		auditor:     params.Auditor,
		logger:      params.Logger,
		metrics:     params.Metrics,
		owner:       owner,
		maxAttempts: maxAttempts,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}, nil
}

// Enqueue records one remote operation. Re-enqueueing an existing idempotency
// key is a no-op returning the existing row's id.
func (s *Service) Enqueue(ctx context.Context, input EnqueueInput) (uuid.UUID, error) {
	if !input.EntityType.Valid() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity type %q", input.EntityType))
	}
	if input.Method == "" || input.Endpoint == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "method and endpoint are required")
	}
	key := input.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	existing, err := s.repo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"queue_id":        existing.ID,
			"idempotency_key": key,
		}), "duplicate enqueue ignored")
		return existing.ID, nil
	}

	item := &models.QueueItem{
		ID:             uuid.New(),
		EntityType:     input.EntityType,
		Method:         input.Method,
		Endpoint:       input.Endpoint,
		Body:           input.Body,
		IdempotencyKey: key,
		Status:         enums.QueueStatusPending,
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		// A concurrent enqueue may have won the unique-key race.
		if db.IsUniqueViolation(err, "ux_queue_items_idempotency_key") || db.IsUniqueViolation(err, "") {
			if existing, lookupErr := s.repo.FindByIdempotencyKey(ctx, key); lookupErr == nil && existing != nil {
				return existing.ID, nil
			}
		}
		return uuid.Nil, err
	}
	return item.ID, nil
}

// Seen reports whether an idempotency key already has a queue row. Webhook
// dedupe consults this before any side effect.
func (s *Service) Seen(ctx context.Context, idempotencyKey string) (bool, error) {
	if idempotencyKey == "" {
		return false, nil
	}
	existing, err := s.repo.FindByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// Process claims up to batchSize ripe items, executes each against the remote
// API, and applies success/retry/dead-letter bookkeeping. An empty entityType
// processes all entities.
func (s *Service) Process(ctx context.Context, batchSize int, entityType enums.EntityType) ([]Result, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	if entityType != "" && !entityType.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity type %q", entityType))
	}

	now := s.now().UTC()
	candidates, err := s.repo.FetchCandidates(ctx, batchSize, entityType, now)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, item := range candidates {
		claimed, err := s.repo.Claim(ctx, item.ID, s.owner, s.now().UTC())
		if err != nil {
			return results, err
		}
		if !claimed {
			// Another worker got there first.
			continue
		}
		results = append(results, s.execute(ctx, item))
	}
	return results, nil
}

func (s *Service) execute(ctx context.Context, item models.QueueItem) Result {
	ctx = s.logger.WithFields(ctx, map[string]any{
		"queue_id": item.ID,
		"entity":   item.EntityType,
		"endpoint": item.Endpoint,
	})
	start := s.now()

	var body any
	if len(item.Body) > 0 {
		body = item.Body
	}
	_, callErr := s.caller.Request(ctx, item.Method, item.Endpoint, body, nil)
	attempts := item.RetryCount + 1

	if callErr == nil {
		if err := s.repo.MarkSuccess(ctx, item.ID); err != nil {
			s.logger.Error(ctx, "marking queue item success failed", err)
		}
		s.metrics.IncProcessed("success")
		s.audit(ctx, item, enums.AuditStatusSuccess, "queue item processed", attempts, start)
		return Result{ID: item.ID, EntityType: item.EntityType, Status: enums.QueueStatusSuccess, Attempts: attempts}
	}

	retryCount := item.RetryCount + 1
	if retryCount > s.maxAttempts || permanentFailure(callErr) {
		if err := s.repo.MarkDeadLettered(ctx, item.ID, retryCount, callErr.Error()); err != nil {
			s.logger.Error(ctx, "dead-lettering queue item failed", err)
		}
		s.metrics.IncProcessed("dead_letter")
		s.metrics.IncDeadLettered()
		s.audit(ctx, item, enums.AuditStatusError, "queue item dead-lettered: "+callErr.Error(), attempts, start)
		return Result{ID: item.ID, EntityType: item.EntityType, Status: enums.QueueStatusFailed, Attempts: attempts, Error: callErr.Error()}
	}

	nextAttempt := s.now().UTC().Add(retryBackoff(retryCount))
	if err := s.repo.MarkRetry(ctx, item.ID, retryCount, nextAttempt, callErr.Error()); err != nil {
		s.logger.Error(ctx, "scheduling queue retry failed", err)
	}
	s.metrics.IncProcessed("retry")
	s.audit(ctx, item, enums.AuditStatusWarning, "queue item scheduled for retry: "+callErr.Error(), attempts, start)
	return Result{ID: item.ID, EntityType: item.EntityType, Status: enums.QueueStatusPending, Attempts: attempts, Error: callErr.Error()}
}

// retryBackoff doubles per attempt: 2, 4, 8, 16, 32 minutes.
func retryBackoff(retryCount int) time.Duration {
	return time.Duration(1<<retryCount) * time.Minute
}

// permanentFailure reports whether the error is typed as non-retryable.
// Untyped errors are treated as transient.
func permanentFailure(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	return !pkgerrors.MetadataFor(typed.Code()).Retryable
}

func (s *Service) audit(ctx context.Context, item models.QueueItem, status enums.AuditStatus, message string, attempts int, start time.Time) {
	err := s.auditor.Record(ctx, audit.Entry{
		CorrelationID: item.IdempotencyKey,
		EntityType:    string(item.EntityType),
		Action:        "queue.process",
		Status:        status,
		Message:       message,
		Context: map[string]any{
			"queue_id": item.ID.String(),
			"endpoint": item.Endpoint,
			"attempts": attempts,
		},
		Duration: s.now().Sub(start),
	})
	if err != nil {
		s.logger.Error(ctx, "recording queue audit entry failed", err)
	}
}

// GetStats reports queue depth by status and publishes the gauges.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Pending:    counts[enums.QueueStatusPending],
		Processing: counts[enums.QueueStatusProcessing],
		Success:    counts[enums.QueueStatusSuccess],
		Failed:     counts[enums.QueueStatusFailed],
	}
	stats.Total = stats.Pending + stats.Processing + stats.Success + stats.Failed
	s.metrics.SetDepth(string(enums.QueueStatusPending), stats.Pending)
	s.metrics.SetDepth(string(enums.QueueStatusProcessing), stats.Processing)
	s.metrics.SetDepth(string(enums.QueueStatusSuccess), stats.Success)
	s.metrics.SetDepth(string(enums.QueueStatusFailed), stats.Failed)
	return stats, nil
}

// ReclaimStale returns abandoned processing items to the pending pool. A lock
// older than the configured timeout is considered dead.
func (s *Service) ReclaimStale(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.lockTimeout)
	reclaimed, err := s.repo.ReleaseStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"reclaimed": reclaimed,
			"cutoff":    cutoff.Format(time.RFC3339),
		}), "reclaimed stale queue locks")
	}
	return reclaimed, nil
}
