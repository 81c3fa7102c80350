package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS audit_log (
  id TEXT PRIMARY KEY,
  correlation_id TEXT NOT NULL,
  entity_type TEXT,
  action TEXT NOT NULL,
  status TEXT NOT NULL,
  message TEXT,
  context TEXT,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newAuditService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupAuditTestDB(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc, db
}

func TestRecordPersistsEntryWithGeneratedCorrelationID(t *testing.T) {
	svc, db := newAuditService(t)
	ctx := context.Background()

	err := svc.Record(ctx, Entry{
		EntityType: "products",
		Action:     "sync",
		Status:     enums.AuditStatusSuccess,
		Message:    "synced 12 products",
		Context:    map[string]any{"synced": 12},
		Duration:   1500 * time.Millisecond,
	})
	require.NoError(t, err)

	var rows []models.AuditLogEntry
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].CorrelationID)
	assert.Equal(t, "sync", rows[0].Action)
	assert.Equal(t, enums.AuditStatusSuccess, rows[0].Status)
	assert.EqualValues(t, 1500, rows[0].DurationMS)
	assert.JSONEq(t, `{"synced":12}`, string(rows[0].Context))
}

func TestTrailReturnsEntriesForCorrelationID(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := context.Background()

	for _, action := range []string{"received", "routed", "applied"} {
		require.NoError(t, svc.Record(ctx, Entry{
			CorrelationID: "wh_42",
			EntityType:    "consignments",
			Action:        action,
		}))
	}
	require.NoError(t, svc.Record(ctx, Entry{CorrelationID: "other", Action: "noise"}))

	trail, err := svc.Trail(ctx, "wh_42", 10)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	for _, entry := range trail {
		assert.Equal(t, "wh_42", entry.CorrelationID)
	}

	_, err = svc.Trail(ctx, "", 10)
	assert.Error(t, err)
}

func TestRecentFiltersByEntityAndStatus(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, Entry{EntityType: "products", Action: "sync", Status: enums.AuditStatusError, Message: "boom"}))
	require.NoError(t, svc.Record(ctx, Entry{EntityType: "products", Action: "sync", Status: enums.AuditStatusSuccess}))
	require.NoError(t, svc.Record(ctx, Entry{EntityType: "sales", Action: "sync", Status: enums.AuditStatusError}))

	entries, err := svc.Recent(ctx, "products", enums.AuditStatusError, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Message)
}

func TestPurgeDeletesExpiredEntries(t *testing.T) {
	svc, db := newAuditService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, Entry{Action: "old"}))
	require.NoError(t, db.Model(&models.AuditLogEntry{}).
		Where("action = ?", "old").
		Update("created_at", time.Now().UTC().Add(-48*time.Hour)).Error)
	require.NoError(t, svc.Record(ctx, Entry{Action: "fresh"}))

	deleted, err := svc.Purge(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var remaining []models.AuditLogEntry
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Action)

	_, err = svc.Purge(ctx, 0)
	assert.Error(t, err)
}
