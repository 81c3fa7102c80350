package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/internal/consignment"
	"github.com/pearcestephens/stocklink-backend/internal/queue"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

// Payload is the inbound change notification shape.
type Payload struct {
	Event     string          `json:"event" validate:"required"`
	ID        string          `json:"id" validate:"required"`
	Data      json.RawMessage `json:"data" validate:"required"`
	Timestamp string          `json:"timestamp"`
}

// Outcome is returned to the webhook sender and mirrored into the audit log.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	// Err carries the typed failure for the HTTP layer to map onto a
	// status code. It never goes over the wire.
	Err error `json:"-"`
}

// workQueue is the slice of the queue service the processor needs.
type workQueue interface {
	Enqueue(ctx context.Context, input queue.EnqueueInput) (uuid.UUID, error)
	Seen(ctx context.Context, idempotencyKey string) (bool, error)
}

// consignmentStore reads and writes the shadow consignment rows for the
// immediate state transitions.
type consignmentStore interface {
	First(ctx context.Context, dest any, conds ...any) error
	Upsert(ctx context.Context, record any, uniqueKeys []string) error
}

// eventRoute binds one supported event to its entity and fetch endpoint.
type eventRoute struct {
	entity   enums.EntityType
	endpoint string
	// transitionTo is set for the consignment events that apply an immediate
	// local state change before the resync job runs.
	transitionTo enums.ConsignmentState
}

func defaultRoutes() map[enums.WebhookEvent]eventRoute {
	return map[enums.WebhookEvent]eventRoute{
		enums.WebhookProductCreated:      {entity: enums.EntityProducts, endpoint: "/api/2.0/products"},
		enums.WebhookProductUpdated:      {entity: enums.EntityProducts, endpoint: "/api/2.0/products"},
		enums.WebhookProductDeleted:      {entity: enums.EntityProducts, endpoint: "/api/2.0/products"},
		enums.WebhookSaleCreated:         {entity: enums.EntitySales, endpoint: "/api/2.0/sales"},
		enums.WebhookSaleUpdated:         {entity: enums.EntitySales, endpoint: "/api/2.0/sales"},
		enums.WebhookCustomerCreated:     {entity: enums.EntityCustomers, endpoint: "/api/2.0/customers"},
		enums.WebhookCustomerUpdated:     {entity: enums.EntityCustomers, endpoint: "/api/2.0/customers"},
		enums.WebhookConsignmentCreated:  {entity: enums.EntityConsignments, endpoint: "/api/2.0/consignments"},
		enums.WebhookConsignmentUpdated:  {entity: enums.EntityConsignments, endpoint: "/api/2.0/consignments"},
		enums.WebhookConsignmentSent:     {entity: enums.EntityConsignments, endpoint: "/api/2.0/consignments", transitionTo: enums.ConsignmentSent},
		enums.WebhookConsignmentReceived: {entity: enums.EntityConsignments, endpoint: "/api/2.0/consignments", transitionTo: enums.ConsignmentReceived},
		enums.WebhookInventoryUpdated:    {entity: enums.EntityInventory, endpoint: "/api/2.0/inventory"},
	}
}

// Processor turns inbound webhooks into queued resync work and, for the
// consignment lifecycle events, immediate local state transitions.
type Processor struct {
	queue    workQueue
	store    consignmentStore
	auditor  audit.Recorder
	logger   *logger.Logger
	validate *validator.Validate
	routes   map[enums.WebhookEvent]eventRoute
	now      func() time.Time
}

// ProcessorParams carries the processor dependencies.
type ProcessorParams struct {
	Queue   workQueue
	Store   consignmentStore
	Auditor audit.Recorder
	Logger  *logger.Logger
}

// NewProcessor validates dependencies and the event routing table.
func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Queue == nil {
		return nil, errors.New("webhook work queue is required")
	}
	if params.Store == nil {
		return nil, errors.New("webhook store is required")
	}
	if params.Auditor == nil {
		return nil, errors.New("webhook audit recorder is required")
	}
	if params.Logger == nil {
		return nil, errors.New("webhook logger is required")
	}

	routes := defaultRoutes()
	for event := range enums.SupportedWebhookEvents() {
		if _, ok := routes[event]; !ok {
			return nil, fmt.Errorf("no webhook route registered for event %q", event)
		}
	}

	return &Processor{
		queue:    params.Queue,
		store:    params.Store,
		auditor:  params.Auditor,
		logger:   params.Logger,
		validate: validator.New(),
		routes:   routes,
		now:      time.Now,
	}, nil
}

// DedupeKey derives the queue idempotency key for a remote event id.
func DedupeKey(remoteEventID string) string {
	return "webhook-" + remoteEventID
}

// Process runs one payload through validate, dedupe, route, apply/enqueue and
// audit. Every outcome is recorded; duplicates short-circuit successfully.
func (p *Processor) Process(ctx context.Context, payload Payload) Outcome {
	start := p.now()
	correlationID := DedupeKey(payload.ID)
	ctx = p.logger.WithCorrelationID(ctx, correlationID)

	if err := p.validate.Struct(payload); err != nil {
		return p.reject(ctx, payload, pkgerrors.CodeValidation, "invalid webhook payload: "+err.Error(), start)
	}

	event := enums.WebhookEvent(strings.ToLower(strings.TrimSpace(payload.Event)))
	route, supported := p.routes[event]
	if _, allowed := enums.SupportedWebhookEvents()[event]; !allowed || !supported {
		return p.reject(ctx, payload, pkgerrors.CodeUnsupportedEvent, "Unsupported event", start)
	}

	seen, err := p.queue.Seen(ctx, correlationID)
	if err != nil {
		return p.fail(ctx, string(route.entity), payload, correlationID, err, start)
	}
	if seen {
		p.recordAudit(ctx, string(route.entity), "webhook.duplicate", enums.AuditStatusSuccess,
			fmt.Sprintf("duplicate delivery of %s ignored", payload.Event), payload, start)
		return Outcome{Success: true, Message: "already processed"}
	}

	recordID := extractRecordID(payload.Data)

	if route.transitionTo != "" {
		if err := p.applyTransition(ctx, recordID, route.transitionTo); err != nil {
			// The resync job still runs; the transition failure is surfaced
			// in the audit trail but redelivery will not fix a state
			// machine rejection.
			p.recordAudit(ctx, string(route.entity), "webhook.transition", enums.AuditStatusWarning,
				fmt.Sprintf("immediate transition to %s failed: %v", route.transitionTo, err), payload, start)
		} else {
			p.recordAudit(ctx, string(route.entity), "webhook.transition", enums.AuditStatusSuccess,
				fmt.Sprintf("consignment %s moved to %s", recordID, route.transitionTo), payload, start)
		}
	}

	endpoint := route.endpoint
	if recordID != "" {
		endpoint = route.endpoint + "/" + recordID
	}
	if _, err := p.queue.Enqueue(ctx, queue.EnqueueInput{
		EntityType:     route.entity,
		Method:         http.MethodGet,
		Endpoint:       endpoint,
		Body:           payload.Data,
		IdempotencyKey: correlationID,
	}); err != nil {
		return p.fail(ctx, string(route.entity), payload, correlationID, err, start)
	}

	p.recordAudit(ctx, string(route.entity), "webhook.processed", enums.AuditStatusSuccess,
		fmt.Sprintf("queued resync for %s", payload.Event), payload, start)
	return Outcome{Success: true, Message: "queued"}
}

// applyTransition moves the shadow consignment through the state machine so
// UI-facing state reflects reality before the queue worker catches up.
func (p *Processor) applyTransition(ctx context.Context, consignmentID string, target enums.ConsignmentState) error {
	if consignmentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook data is missing the consignment id")
	}
	var row models.Consignment
	if err := p.store.First(ctx, &row, "id = ?", consignmentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("consignment %s not found locally", consignmentID))
	}
	if row.State == target {
		return nil
	}
	result := consignment.ValidateTransition(string(row.State), string(target))
	if !result.Valid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, result.Error).WithDetails(map[string]any{"code": result.Code})
	}
	now := p.now().UTC()
	row.State = target
	switch target {
	case enums.ConsignmentSent:
		row.SentAt = &now
	case enums.ConsignmentReceived:
		row.ReceivedAt = &now
	}
	return p.store.Upsert(ctx, &row, []string{"id"})
}

func (p *Processor) reject(ctx context.Context, payload Payload, code pkgerrors.Code, message string, start time.Time) Outcome {
	p.recordAudit(ctx, "", "webhook.rejected", enums.AuditStatusWarning, message, payload, start)
	return Outcome{Success: false, Error: message, Err: pkgerrors.New(code, message)}
}

func (p *Processor) fail(ctx context.Context, entity string, payload Payload, correlationID string, err error, start time.Time) Outcome {
	p.logger.Error(ctx, "webhook processing failed", err)
	p.recordAudit(ctx, entity, "webhook.errored", enums.AuditStatusError, err.Error(), payload, start)
	return Outcome{Success: false, Error: err.Error(), Err: err}
}

func (p *Processor) recordAudit(ctx context.Context, entity, action string, status enums.AuditStatus, message string, payload Payload, start time.Time) {
	if err := p.auditor.Record(ctx, audit.Entry{
		CorrelationID: DedupeKey(payload.ID),
		EntityType:    entity,
		Action:        action,
		Status:        status,
		Message:       message,
		Context: map[string]any{
			"event":    payload.Event,
			"event_id": payload.ID,
		},
		Duration: p.now().Sub(start),
	}); err != nil {
		p.logger.Error(ctx, "recording webhook audit entry failed", err)
	}
}

func extractRecordID(data json.RawMessage) string {
	var body struct {
		ID        string `json:"id"`
		ProductID string `json:"product_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.ID != "" {
		return body.ID
	}
	return body.ProductID
}
