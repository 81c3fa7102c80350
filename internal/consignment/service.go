package consignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type shadowStore interface {
	First(ctx context.Context, dest any, conds ...any) error
	Upsert(ctx context.Context, record any, uniqueKeys []string) error
}

// Capabilities describes what the lifecycle allows for a consignment in its
// current state. The retail UI renders buttons off this.
type Capabilities struct {
	ID         string                   `json:"id"`
	State      enums.ConsignmentState   `json:"state"`
	CanCancel  bool                     `json:"can_cancel"`
	CanEdit    bool                     `json:"can_edit"`
	CanSync    bool                     `json:"can_sync"`
	NextStates []enums.ConsignmentState `json:"next_states"`
}

// Service applies lifecycle transitions to shadow consignments on behalf of
// the ops API.
type Service struct {
	store   shadowStore
	auditor audit.Recorder
	logg    *logger.Logger
	now     func() time.Time
}

type ServiceParams struct {
	Store   shadowStore
	Auditor audit.Recorder
	Logger  *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	if params.Auditor == nil {
		return nil, errors.New("auditor is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		store:   params.Store,
		auditor: params.Auditor,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// Transition moves a consignment to the target state when the lifecycle
// allows the edge. A repeated request for the current state is a no-op.
func (s *Service) Transition(ctx context.Context, id, target string) (*models.Consignment, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "consignment id is required")
	}
	targetState, ok := Normalize(target)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown state %q", target)).
			WithDetails(map[string]any{"code": CodeInvalidState})
	}

	var row models.Consignment
	if err := s.store.First(ctx, &row, "id = ?", id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("consignment %s not found", id))
	}

	if row.State == targetState {
		return &row, nil
	}

	result := ValidateTransition(string(row.State), string(targetState))
	if !result.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, result.Error).
			WithDetails(map[string]any{"code": result.Code, "from": row.State, "to": targetState})
	}

	previous := row.State
	row.State = targetState
	now := s.now()
	switch targetState {
	case enums.ConsignmentSent:
		row.SentAt = &now
	case enums.ConsignmentReceived:
		row.ReceivedAt = &now
	}

	if err := s.store.Upsert(ctx, &row, []string{"id"}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist consignment state")
	}

	_ = s.auditor.Record(ctx, audit.Entry{
		EntityType: string(enums.EntityConsignments),
		Action:     "consignment.transition",
		Status:     enums.AuditStatusSuccess,
		Message:    fmt.Sprintf("consignment %s moved %s -> %s", id, previous, targetState),
		Context:    map[string]any{"consignment_id": id, "from": previous, "to": targetState},
	})

	return &row, nil
}

// Capabilities reports the lifecycle options for one consignment.
func (s *Service) Capabilities(ctx context.Context, id string) (Capabilities, error) {
	if id == "" {
		return Capabilities{}, pkgerrors.New(pkgerrors.CodeValidation, "consignment id is required")
	}
	var row models.Consignment
	if err := s.store.First(ctx, &row, "id = ?", id); err != nil {
		return Capabilities{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("consignment %s not found", id))
	}
	state := string(row.State)
	return Capabilities{
		ID:         row.ID,
		State:      row.State,
		CanCancel:  CanCancel(state),
		CanEdit:    CanEdit(state),
		CanSync:    CanSync(state),
		NextStates: NextStates(state),
	}, nil
}
