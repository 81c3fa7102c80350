package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/db/models"
	"github.com/pearcestephens/stocklink-backend/pkg/enums"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
	"github.com/pearcestephens/stocklink-backend/pkg/vend"
)

type fakeAPI struct {
	pages         map[string][]vend.Page
	paramsByCall  map[string][]url.Values
	failEndpoints map[string]error

	requestFn func(method, endpoint string, body any) (json.RawMessage, error)
	requests  []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pages:         map[string][]vend.Page{},
		paramsByCall:  map[string][]url.Values{},
		failEndpoints: map[string]error{},
	}
}

func (f *fakeAPI) Request(ctx context.Context, method, endpoint string, body any, params url.Values) (json.RawMessage, error) {
	f.requests = append(f.requests, method+" "+endpoint)
	if f.requestFn != nil {
		return f.requestFn(method, endpoint, body)
	}
	return json.RawMessage(`{"data":{}}`), nil
}

func (f *fakeAPI) FetchPaginated(ctx context.Context, endpoint string, params url.Values, pageFn func(vend.Page) error) error {
	f.paramsByCall[endpoint] = append(f.paramsByCall[endpoint], params)
	if err, ok := f.failEndpoints[endpoint]; ok {
		return err
	}
	for _, page := range f.pages[endpoint] {
		if err := pageFn(page); err != nil {
			return err
		}
	}
	return nil
}

type flushRecord struct {
	size int
	keys []string
}

type fakeStore struct {
	flushes []flushRecord
	upserts []any
	cursors map[enums.EntityType]string
	firstFn func(dest any, conds []any) error

	batchErr  error
	upsertErr func(record any) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{cursors: map[enums.EntityType]string{}}
}

func (f *fakeStore) Upsert(ctx context.Context, record any, uniqueKeys []string) error {
	if f.upsertErr != nil {
		if err := f.upsertErr(record); err != nil {
			return err
		}
	}
	f.upserts = append(f.upserts, record)
	return nil
}

func (f *fakeStore) BatchUpsert(ctx context.Context, records any, uniqueKeys []string) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.flushes = append(f.flushes, flushRecord{
		size: reflect.ValueOf(records).Len(),
		keys: uniqueKeys,
	})
	return nil
}

func (f *fakeStore) GetCursor(ctx context.Context, entity enums.EntityType) (string, error) {
	return f.cursors[entity], nil
}

func (f *fakeStore) UpdateCursor(ctx context.Context, entity enums.EntityType, cursor string) error {
	f.cursors[entity] = cursor
	return nil
}

func (f *fakeStore) First(ctx context.Context, dest any, conds ...any) error {
	if f.firstFn != nil {
		return f.firstFn(dest, conds)
	}
	return fmt.Errorf("record not found")
}

type nopAuditor struct {
	entries []audit.Entry
}

func (n *nopAuditor) Record(ctx context.Context, entry audit.Entry) error {
	n.entries = append(n.entries, entry)
	return nil
}

func newTestEngine(t *testing.T, api *fakeAPI, store *fakeStore, batchSize int) (*Engine, *nopAuditor) {
	t.Helper()
	auditor := &nopAuditor{}
	engine, err := NewEngine(EngineParams{
		API:     api,
		Store:   store,
		Auditor: auditor,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Config:  config.SyncConfig{BatchSize: batchSize},
	})
	require.NoError(t, err)
	return engine, auditor
}

func productRecord(id string, version int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":%q,"name":"P %s","version":%d}`, id, id, version))
}

func TestSyncFlushesInBatchesAndAdvancesCursor(t *testing.T) {
	api := newFakeAPI()
	api.pages["/api/2.0/products"] = []vend.Page{
		{
			Records: []json.RawMessage{
				productRecord("p1", 10), productRecord("p2", 11), productRecord("p3", 12),
				productRecord("p4", 13), productRecord("p5", 14),
			},
			MaxVersion: 14,
			Number:     1,
		},
	}
	store := newFakeStore()
	engine, auditor := newTestEngine(t, api, store, 2)

	result, err := engine.Sync(context.Background(), enums.EntityProducts, true, "")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Synced)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, "14", result.Cursor)

	require.Len(t, store.flushes, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{store.flushes[0].size, store.flushes[1].size, store.flushes[2].size})
	assert.Equal(t, "14", store.cursors[enums.EntityProducts])

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, enums.AuditStatusSuccess, auditor.entries[0].Status)
}

func TestSyncSkipsMalformedRecords(t *testing.T) {
	api := newFakeAPI()
	api.pages["/api/2.0/products"] = []vend.Page{
		{
			Records: []json.RawMessage{
				productRecord("p1", 10),
				json.RawMessage(`{"name":"no id"}`),
				json.RawMessage(`{not json`),
				productRecord("p2", 11),
			},
			MaxVersion: 11,
		},
	}
	store := newFakeStore()
	engine, auditor := newTestEngine(t, api, store, 100)

	result, err := engine.Sync(context.Background(), enums.EntityProducts, true, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 2, result.Errors)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, enums.AuditStatusWarning, auditor.entries[0].Status)
}

func TestSyncIncrementalResumesFromStoredCursor(t *testing.T) {
	api := newFakeAPI()
	store := newFakeStore()
	store.cursors[enums.EntityProducts] = "500"
	engine, _ := newTestEngine(t, api, store, 100)

	_, err := engine.Sync(context.Background(), enums.EntityProducts, false, "")
	require.NoError(t, err)

	calls := api.paramsByCall["/api/2.0/products"]
	require.Len(t, calls, 1)
	assert.Equal(t, "500", calls[0].Get("after"))
}

func TestSyncFullIgnoresStoredCursor(t *testing.T) {
	api := newFakeAPI()
	store := newFakeStore()
	store.cursors[enums.EntityProducts] = "500"
	engine, _ := newTestEngine(t, api, store, 100)

	_, err := engine.Sync(context.Background(), enums.EntityProducts, true, "")
	require.NoError(t, err)

	calls := api.paramsByCall["/api/2.0/products"]
	require.Len(t, calls, 1)
	assert.Equal(t, "", calls[0].Get("after"))
}

func TestSyncSincePreemptsStoredCursor(t *testing.T) {
	api := newFakeAPI()
	store := newFakeStore()
	store.cursors[enums.EntityProducts] = "500"
	engine, _ := newTestEngine(t, api, store, 100)

	_, err := engine.Sync(context.Background(), enums.EntityProducts, false, "750")
	require.NoError(t, err)

	calls := api.paramsByCall["/api/2.0/products"]
	require.Len(t, calls, 1)
	assert.Equal(t, "750", calls[0].Get("after"))
}

func TestSyncRejectsUnknownEntity(t *testing.T) {
	engine, _ := newTestEngine(t, newFakeAPI(), newFakeStore(), 100)
	_, err := engine.Sync(context.Background(), "gadgets", false, "")
	require.Error(t, err)
}

func TestSyncAllContinuesPastEntityFailure(t *testing.T) {
	api := newFakeAPI()
	api.failEndpoints["/api/2.0/brands"] = fmt.Errorf("remote exploded")
	api.pages["/api/2.0/products"] = []vend.Page{
		{Records: []json.RawMessage{productRecord("p1", 3)}, MaxVersion: 3},
	}
	store := newFakeStore()
	engine, _ := newTestEngine(t, api, store, 100)

	report, err := engine.SyncAll(context.Background(), false, nil)
	require.Error(t, err)
	require.Len(t, report.Results, len(enums.SyncOrder()))
	require.Contains(t, report.Failed, enums.EntityBrands)

	// Entities after the failing one still ran.
	assert.Equal(t, "3", store.cursors[enums.EntityProducts])
}

func TestSyncAllHonorsDependencyOrder(t *testing.T) {
	api := newFakeAPI()
	store := newFakeStore()
	engine, _ := newTestEngine(t, api, store, 100)

	report, err := engine.SyncAll(context.Background(), false, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, len(enums.SyncOrder()))
	for i, entity := range enums.SyncOrder() {
		assert.Equal(t, entity, report.Results[i].Entity)
	}
}

func TestAdjustInventoryFloorsAtZero(t *testing.T) {
	api := newFakeAPI()
	store := newFakeStore()
	store.firstFn = func(dest any, conds []any) error {
		if level, ok := dest.(*models.InventoryLevel); ok {
			level.Quantity = 5
			return nil
		}
		return fmt.Errorf("record not found")
	}
	engine, _ := newTestEngine(t, api, store, 100)

	quantity, err := engine.AdjustInventory(context.Background(), "p1", "o1", -100)
	require.NoError(t, err)
	assert.Equal(t, 0, quantity)

	// The remote call carried the floored quantity.
	require.NotEmpty(t, api.requests)
	assert.Equal(t, "POST /api/2.0/inventory", api.requests[0])
}

func TestAdjustInventoryTreatsMissingRowAsZero(t *testing.T) {
	engine, _ := newTestEngine(t, newFakeAPI(), newFakeStore(), 100)
	quantity, err := engine.AdjustInventory(context.Background(), "p1", "o1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)
}

func TestBulkInventoryUpdateIsolatesFailures(t *testing.T) {
	api := newFakeAPI()
	api.requestFn = func(method, endpoint string, body any) (json.RawMessage, error) {
		payload, _ := json.Marshal(body)
		if string(payload) != "" && jsonHasProduct(payload, "p2") {
			return nil, fmt.Errorf("remote rejected p2")
		}
		return json.RawMessage(`{"data":{}}`), nil
	}
	engine, _ := newTestEngine(t, api, newFakeStore(), 100)

	result := engine.BulkInventoryUpdate(context.Background(), []InventoryUpdate{
		{ProductID: "p1", OutletID: "o1", Quantity: 10},
		{ProductID: "p2", OutletID: "o1", Quantity: 3},
	})
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "p2")
}

func jsonHasProduct(payload []byte, productID string) bool {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return false
	}
	return body["product_id"] == productID
}

func TestUpdateInventoryMirrorFailureIsWarningOnly(t *testing.T) {
	api := newFakeAPI()
	store := newFakeStore()
	store.upsertErr = func(record any) error {
		if _, ok := record.(*models.StockLevel); ok {
			return fmt.Errorf("business table offline")
		}
		return nil
	}
	engine, auditor := newTestEngine(t, api, store, 100)

	err := engine.UpdateInventory(context.Background(), "p1", "o1", 9)
	require.NoError(t, err, "mirror failure must not fail the operation")

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, enums.AuditStatusWarning, auditor.entries[0].Status)
}

func TestCreateProductPushesAndMirrors(t *testing.T) {
	api := newFakeAPI()
	api.requestFn = func(method, endpoint string, body any) (json.RawMessage, error) {
		return json.RawMessage(`{"data":{"id":"p9","name":"New Thing","version":42}}`), nil
	}
	store := newFakeStore()
	engine, _ := newTestEngine(t, api, store, 100)

	product, err := engine.CreateProduct(context.Background(), ProductInput{Name: "New Thing"})
	require.NoError(t, err)
	assert.Equal(t, "p9", product.ID)
	assert.EqualValues(t, 42, product.Version)
	require.Len(t, store.upserts, 1)
}

func TestCreateProductRequiresName(t *testing.T) {
	engine, _ := newTestEngine(t, newFakeAPI(), newFakeStore(), 100)
	_, err := engine.CreateProduct(context.Background(), ProductInput{})
	require.Error(t, err)
}
