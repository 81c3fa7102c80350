package store

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
)

// Store gives the sync engine upsert access to the shadow tables plus cursor
// bookkeeping. It deliberately knows nothing about the remote API.
type Store struct {
	db *gorm.DB
}

// New wraps the shared GORM connection.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("store database handle is required")
	}
	return &Store{db: db}, nil
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return s.db
	}
	return s.db.WithContext(ctx)
}

// Upsert inserts or updates one record keyed on uniqueKeys.
func (s *Store) Upsert(ctx context.Context, record any, uniqueKeys []string) error {
	if record == nil {
		return errors.New("record is required")
	}
	return s.conn(ctx).Clauses(conflictClause(uniqueKeys)).Create(record).Error
}

// BatchUpsert writes a batch inside one transaction. Any row failure rolls
// the whole batch back so a page is either fully applied or not at all.
func (s *Store) BatchUpsert(ctx context.Context, records any, uniqueKeys []string) error {
	if records == nil {
		return errors.New("records are required")
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(conflictClause(uniqueKeys)).Create(records).Error
	})
}

func conflictClause(uniqueKeys []string) clause.OnConflict {
	columns := make([]clause.Column, 0, len(uniqueKeys))
	for _, key := range uniqueKeys {
		columns = append(columns, clause.Column{Name: key})
	}
	return clause.OnConflict{
		Columns:   columns,
		UpdateAll: true,
	}
}

// GetCursor returns the stored cursor for the entity, or "" when no sync has
// completed yet.
func (s *Store) GetCursor(ctx context.Context, entity enums.EntityType) (string, error) {
	var row models.SyncCursor
	err := s.conn(ctx).
		Where("entity_type = ?", entity).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Cursor, nil
}

// UpdateCursor advances the entity cursor. A cursor never regresses: writes
// older than the stored value are silently ignored.
func (s *Store) UpdateCursor(ctx context.Context, entity enums.EntityType, cursor string) error {
	if cursor == "" {
		return nil
	}
	current, err := s.GetCursor(ctx, entity)
	if err != nil {
		return err
	}
	if current != "" && !cursorAdvances(current, cursor) {
		return nil
	}
	row := models.SyncCursor{EntityType: entity, Cursor: cursor}
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"cursor", "updated_at"}),
	}).Create(&row).Error
}

// cursorAdvances compares version tokens numerically when both parse, falling
// back to a lexicographic comparison for opaque tokens.
func cursorAdvances(current, next string) bool {
	currentVersion, errCurrent := strconv.ParseInt(current, 10, 64)
	nextVersion, errNext := strconv.ParseInt(next, 10, 64)
	if errCurrent == nil && errNext == nil {
		return nextVersion > currentVersion
	}
	return next > current
}

// Count reports rows for the given model, with optional conditions.
func (s *Store) Count(ctx context.Context, model any, conds ...any) (int64, error) {
	query := s.conn(ctx).Model(model)
	if len(conds) > 0 {
		query = query.Where(conds[0], conds[1:]...)
	}
	var total int64
	err := query.Count(&total).Error
	return total, err
}

// Select loads rows into dest, with optional conditions.
func (s *Store) Select(ctx context.Context, dest any, conds ...any) error {
	return s.conn(ctx).Find(dest, conds...).Error
}

// First loads a single row into dest, returning gorm.ErrRecordNotFound when
// nothing matches.
func (s *Store) First(ctx context.Context, dest any, conds ...any) error {
	return s.conn(ctx).First(dest, conds...).Error
}

// DB exposes the raw handle for callers that need transactional scope.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.conn(ctx)
}
