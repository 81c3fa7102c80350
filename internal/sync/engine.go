package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
	"github.com/pearcestephens/stocklink-backend/pkg/metrics"
	"github.com/pearcestephens/stocklink-backend/pkg/vend"
)

const defaultBatchSize = 100

// remoteAPI is the slice of the API client the engine needs.
type remoteAPI interface {
	Request(ctx context.Context, method, endpoint string, body any, params url.Values) (json.RawMessage, error)
	FetchPaginated(ctx context.Context, endpoint string, params url.Values, pageFn func(vend.Page) error) error
}

// localStore is the shadow-table surface the engine writes through.
type localStore interface {
	Upsert(ctx context.Context, record any, uniqueKeys []string) error
	BatchUpsert(ctx context.Context, records any, uniqueKeys []string) error
	GetCursor(ctx context.Context, entity enums.EntityType) (string, error)
	UpdateCursor(ctx context.Context, entity enums.EntityType, cursor string) error
	First(ctx context.Context, dest any, conds ...any) error
}

// recordBatch accumulates transformed records for one entity and flushes them
// transactionally.
type recordBatch interface {
	add(raw json.RawMessage) error
	len() int
	flush(ctx context.Context, store localStore) error
}

type batch[T any] struct {
	transform  func(json.RawMessage) (T, error)
	uniqueKeys []string
	items      []T
}

func (b *batch[T]) add(raw json.RawMessage) error {
	record, err := b.transform(raw)
	if err != nil {
		return err
	}
	b.items = append(b.items, record)
	return nil
}

func (b *batch[T]) len() int { return len(b.items) }

func (b *batch[T]) flush(ctx context.Context, store localStore) error {
	if len(b.items) == 0 {
		return nil
	}
	if err := store.BatchUpsert(ctx, b.items, b.uniqueKeys); err != nil {
		return err
	}
	b.items = b.items[:0]
	return nil
}

// handler binds one entity type to its remote endpoint and transform.
type handler struct {
	endpoint string
	newBatch func() recordBatch
}

func newHandler[T any](endpoint string, uniqueKeys []string, transform func(json.RawMessage) (T, error)) handler {
	return handler{
		endpoint: endpoint,
		newBatch: func() recordBatch {
			return &batch[T]{transform: transform, uniqueKeys: uniqueKeys}
		},
	}
}

// defaultHandlers is the explicit entity dispatch table. Unknown entity names
// fail at construction, not at runtime.
func defaultHandlers() map[enums.EntityType]handler {
	return map[enums.EntityType]handler{
		enums.EntityOutlets:      newHandler("/api/2.0/outlets", []string{"id"}, transformOutlet),
		enums.EntityCategories:   newHandler("/api/2.0/product_types", []string{"id"}, transformCategory),
		enums.EntityBrands:       newHandler("/api/2.0/brands", []string{"id"}, transformBrand),
		enums.EntitySuppliers:    newHandler("/api/2.0/suppliers", []string{"id"}, transformSupplier),
		enums.EntityUsers:        newHandler("/api/2.0/users", []string{"id"}, transformUser),
		enums.EntityProducts:     newHandler("/api/2.0/products", []string{"id"}, transformProduct),
		enums.EntityCustomers:    newHandler("/api/2.0/customers", []string{"id"}, transformCustomer),
		enums.EntityInventory:    newHandler("/api/2.0/inventory", []string{"product_id", "outlet_id"}, transformInventory),
		enums.EntitySales:        newHandler("/api/2.0/sales", []string{"id"}, transformSale),
		enums.EntityConsignments: newHandler("/api/2.0/consignments", []string{"id"}, transformConsignment),
	}
}

// Result summarizes one entity sync run.
type Result struct {
	Entity   enums.EntityType `json:"entity"`
	Synced   int              `json:"synced"`
	Errors   int              `json:"errors"`
	Pages    int              `json:"pages"`
	Cursor   string           `json:"cursor,omitempty"`
	Duration time.Duration    `json:"duration"`
}

// Report aggregates a syncAll run. Failed holds per-entity failure messages;
// a failed entity does not stop the ones after it.
type Report struct {
	Results []Result                    `json:"results"`
	Failed  map[enums.EntityType]string `json:"failed,omitempty"`
}

// Engine orchestrates paginated pulls into the shadow tables and pushes local
// mutations outward.
type Engine struct {
	api       remoteAPI
	store     localStore
	auditor   audit.Recorder
	logger    *logger.Logger
	metrics   *metrics.SyncMetrics
	batchSize int

	handlers map[enums.EntityType]handler
	now      func() time.Time
}

// EngineParams carries the engine dependencies.
type EngineParams struct {
	API     remoteAPI
	Store   localStore
	Auditor audit.Recorder
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
	Config  config.SyncConfig
}

// NewEngine validates dependencies and the dispatch table.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.API == nil {
		return nil, errors.New("sync engine api client is required")
	}
	if params.Store == nil {
		return nil, errors.New("sync engine store is required")
	}
	if params.Auditor == nil {
		return nil, errors.New("sync engine audit recorder is required")
	}
	if params.Logger == nil {
		return nil, errors.New("sync engine logger is required")
	}
	batchSize := params.Config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	handlers := defaultHandlers()
	for _, entity := range enums.SyncOrder() {
		if _, ok := handlers[entity]; !ok {
			return nil, fmt.Errorf("no sync handler registered for entity %q", entity)
		}
	}

	return &Engine{
		api:       params.API,
		store:     params.Store,
		auditor:   params.Auditor,
		logger:    params.Logger,
		metrics:   params.Metrics,
		batchSize: batchSize,
		handlers:  handlers,
		now:       time.Now,
	}, nil
}

// Sync pulls one entity. A full sync ignores the stored cursor; an
// incremental sync resumes from it, or from since when given.
func (e *Engine) Sync(ctx context.Context, entity enums.EntityType, full bool, since string) (Result, error) {
	h, ok := e.handlers[entity]
	if !ok {
		return Result{Entity: entity}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity type %q", entity))
	}

	ctx = e.logger.WithEntity(ctx, string(entity))
	start := e.now()
	result := Result{Entity: entity}

	cursor := ""
	if !full {
		if since != "" {
			cursor = since
		} else {
			stored, err := e.store.GetCursor(ctx, entity)
			if err != nil {
				return result, err
			}
			cursor = stored
		}
	}

	params := url.Values{}
	if cursor != "" {
		params.Set("after", cursor)
	}

	pending := h.newBatch()
	err := e.api.FetchPaginated(ctx, h.endpoint, params, func(page vend.Page) error {
		result.Pages++
		e.metrics.IncPage(string(entity))
		for _, raw := range page.Records {
			if addErr := pending.add(raw); addErr != nil {
				result.Errors++
				e.logger.Warn(e.logger.WithField(ctx, "error", addErr.Error()), "skipping malformed record")
				continue
			}
			if pending.len() >= e.batchSize {
				if flushErr := pending.flush(ctx, e.store); flushErr != nil {
					return flushErr
				}
			}
		}
		// The page's writes must commit before the cursor moves.
		if flushErr := pending.flush(ctx, e.store); flushErr != nil {
			return flushErr
		}
		result.Synced += len(page.Records)
		if page.MaxVersion > 0 {
			next := strconv.FormatInt(page.MaxVersion, 10)
			if cursorErr := e.store.UpdateCursor(ctx, entity, next); cursorErr != nil {
				return cursorErr
			}
			result.Cursor = next
		}
		return nil
	})

	result.Synced -= result.Errors
	if result.Synced < 0 {
		result.Synced = 0
	}
	result.Duration = e.now().Sub(start)
	e.metrics.ObserveRun(string(entity), result.Synced, result.Errors, result.Duration)

	status := enums.AuditStatusSuccess
	message := fmt.Sprintf("synced %d %s", result.Synced, entity)
	if err != nil {
		status = enums.AuditStatusError
		message = fmt.Sprintf("sync %s failed: %v", entity, err)
	} else if result.Errors > 0 {
		status = enums.AuditStatusWarning
		message = fmt.Sprintf("synced %d %s, skipped %d malformed", result.Synced, entity, result.Errors)
	}
	e.recordAudit(ctx, string(entity), "sync", status, message, map[string]any{
		"synced": result.Synced,
		"errors": result.Errors,
		"pages":  result.Pages,
		"full":   full,
	}, result.Duration)

	if err != nil {
		return result, err
	}
	return result, nil
}

// SyncAll walks the dependency-ordered entity list. A failing entity is
// recorded and the walk continues; the combined error carries every failure.
func (e *Engine) SyncAll(ctx context.Context, full bool, entities []enums.EntityType) (Report, error) {
	if len(entities) == 0 {
		entities = enums.SyncOrder()
	}
	report := Report{Failed: map[enums.EntityType]string{}}
	var combined error
	for _, entity := range entities {
		result, err := e.Sync(ctx, entity, full, "")
		report.Results = append(report.Results, result)
		if err != nil {
			report.Failed[entity] = err.Error()
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", entity, err))
			e.logger.Error(e.logger.WithEntity(ctx, string(entity)), "entity sync failed", err)
		}
	}
	if len(report.Failed) == 0 {
		report.Failed = nil
	}
	return report, combined
}

func (e *Engine) recordAudit(ctx context.Context, entity, action string, status enums.AuditStatus, message string, context map[string]any, duration time.Duration) {
	if err := e.auditor.Record(ctx, audit.Entry{
		EntityType: entity,
		Action:     action,
		Status:     status,
		Message:    message,
		Context:    context,
		Duration:   duration,
	}); err != nil {
		e.logger.Error(ctx, "recording sync audit entry failed", err)
	}
}
