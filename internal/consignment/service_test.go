package consignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type fakeShadowStore struct {
	rows map[string]models.Consignment
}

func newFakeShadowStore(rows ...models.Consignment) *fakeShadowStore {
	store := &fakeShadowStore{rows: map[string]models.Consignment{}}
	for _, row := range rows {
		store.rows[row.ID] = row
	}
	return store
}

func (f *fakeShadowStore) First(ctx context.Context, dest any, conds ...any) error {
	id, _ := conds[1].(string)
	row, ok := f.rows[id]
	if !ok {
		return errors.New("record not found")
	}
	*dest.(*models.Consignment) = row
	return nil
}

func (f *fakeShadowStore) Upsert(ctx context.Context, record any, uniqueKeys []string) error {
	row := record.(*models.Consignment)
	f.rows[row.ID] = *row
	return nil
}

type nopRecorder struct{ entries []audit.Entry }

func (n *nopRecorder) Record(ctx context.Context, entry audit.Entry) error {
	n.entries = append(n.entries, entry)
	return nil
}

func newTestService(t *testing.T, store *fakeShadowStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:   store,
		Auditor: &nopRecorder{},
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestTransitionLegalEdge(t *testing.T) {
	store := newFakeShadowStore(models.Consignment{ID: "c1", State: enums.ConsignmentPackaged})
	svc := newTestService(t, store)
	frozen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	row, err := svc.Transition(context.Background(), "c1", "sent")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if row.State != enums.ConsignmentSent {
		t.Fatalf("expected SENT, got %s", row.State)
	}
	if row.SentAt == nil || !row.SentAt.Equal(frozen) {
		t.Fatalf("expected sent_at stamped, got %v", row.SentAt)
	}
	if store.rows["c1"].State != enums.ConsignmentSent {
		t.Fatal("transition not persisted")
	}
}

func TestTransitionIllegalEdgeRejected(t *testing.T) {
	store := newFakeShadowStore(models.Consignment{ID: "c1", State: enums.ConsignmentDraft})
	svc := newTestService(t, store)

	_, err := svc.Transition(context.Background(), "c1", "RECEIVED")
	if err == nil {
		t.Fatal("expected rejection")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	if store.rows["c1"].State != enums.ConsignmentDraft {
		t.Fatal("state should not change on rejection")
	}
}

func TestTransitionTerminalStateRejected(t *testing.T) {
	store := newFakeShadowStore(models.Consignment{ID: "c1", State: enums.ConsignmentCancelled})
	svc := newTestService(t, store)

	_, err := svc.Transition(context.Background(), "c1", "open")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	details, _ := typed.Details().(map[string]any)
	if details["code"] != CodeTerminalState {
		t.Fatalf("expected terminal code in details, got %v", details)
	}
}

func TestTransitionRepeatIsNoOp(t *testing.T) {
	store := newFakeShadowStore(models.Consignment{ID: "c1", State: enums.ConsignmentSent})
	svc := newTestService(t, store)

	row, err := svc.Transition(context.Background(), "c1", "SENT")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if row.State != enums.ConsignmentSent {
		t.Fatalf("unexpected state %s", row.State)
	}
}

func TestTransitionUnknownTargetState(t *testing.T) {
	store := newFakeShadowStore(models.Consignment{ID: "c1", State: enums.ConsignmentOpen})
	svc := newTestService(t, store)

	_, err := svc.Transition(context.Background(), "c1", "TELEPORTED")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTransitionMissingConsignment(t *testing.T) {
	svc := newTestService(t, newFakeShadowStore())

	_, err := svc.Transition(context.Background(), "missing", "OPEN")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	store := newFakeShadowStore(models.Consignment{ID: "c1", State: enums.ConsignmentOpen})
	svc := newTestService(t, store)

	caps, err := svc.Capabilities(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if !caps.CanCancel || !caps.CanEdit || !caps.CanSync {
		t.Fatalf("unexpected capabilities for OPEN: %+v", caps)
	}
	if len(caps.NextStates) != 3 {
		t.Fatalf("expected 3 next states for OPEN, got %v", caps.NextStates)
	}
}
