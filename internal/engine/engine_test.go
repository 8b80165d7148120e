package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-alert-service/internal/clock"
	"inventory-alert-service/internal/compose"
	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/models"
)

// fakeStore enforces the same dedup invariant as the PostgreSQL store, with a
// single mutex standing in for the advisory lock.
type fakeStore struct {
	mu     sync.Mutex
	nextID int
	alerts map[string]models.Alert
}

func newFakeStore() *fakeStore {
	return &fakeStore{alerts: make(map[string]models.Alert)}
}

func (f *fakeStore) HasOpenAlert(_ context.Context, subjectID string, condition models.ConditionType, stage string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openAlertLocked(subjectID, condition, stage), nil
}

func (f *fakeStore) openAlertLocked(subjectID string, condition models.ConditionType, stage string) bool {
	for _, a := range f.alerts {
		if a.SubjectID == subjectID && a.ConditionType == condition && a.Stage == stage && !a.IsDone {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateAlert(_ context.Context, a models.Alert) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openAlertLocked(a.SubjectID, a.ConditionType, a.Stage) {
		return "", models.ErrDuplicateAlert
	}
	f.nextID++
	a.ID = fmt.Sprintf("alert-%d", f.nextID)
	f.alerts[a.ID] = a
	return a.ID, nil
}

func (f *fakeStore) ResolveOpenAlerts(_ context.Context, subjectID string, condition models.ConditionType, reason string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	n := 0
	for id, a := range f.alerts {
		if a.SubjectID == subjectID && a.ConditionType == condition && !a.IsDone {
			a.IsDone = true
			a.ResolvedAt = &now
			a.ResolvedReason = reason
			f.alerts[id] = a
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.alerts {
		if !a.IsDone {
			n++
		}
	}
	return n
}

func (f *fakeStore) byID(id string) (models.Alert, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	return a, ok
}

type fakeCatalog struct {
	products map[string]models.Product
	batches  []models.Batch
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return models.Product{}, errors.New("no rows in result set")
}

func (f *fakeCatalog) ListProducts(_ context.Context) ([]models.Product, error) {
	var list []models.Product
	for _, p := range f.products {
		list = append(list, p)
	}
	return list, nil
}

func (f *fakeCatalog) ListBatches(_ context.Context) ([]models.Batch, error) {
	return f.batches, nil
}

type fakePusher struct {
	mu   sync.Mutex
	sent []models.Message
	fail bool
}

func (f *fakePusher) Push(_ context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("push transport down")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakePusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestEngine(t *testing.T, st *fakeStore, cat *fakeCatalog, p *fakePusher) *Engine {
	t.Helper()
	norm, err := clock.New("Asia/Kuala_Lumpur")
	require.NoError(t, err)
	composer := compose.New(norm.Location(), "manager_alerts", "manager_alerts", "risk_alerts")
	return New(st, cat, p, composer, norm, logging.NewNop(), Options{SweepWorkers: 4, SendTimeout: time.Second})
}

func TestExpiryPipelineCreatesAndDedupes(t *testing.T) {
	st := newFakeStore()
	cat := &fakeCatalog{products: map[string]models.Product{
		"p1": {ID: "p1", Name: "Paracetamol", Category: "Medicine", SubCategory: "Analgesic"},
	}}
	push := &fakePusher{}
	eng := newTestEngine(t, st, cat, push)

	ref := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	batch := &models.Batch{ID: "b1", ProductID: "p1", BatchNumber: "B-7", ExpiryDate: ref.AddDate(0, 0, 5)}

	out, err := eng.EvaluateBatch(context.Background(), batch, ref)
	require.NoError(t, err)
	assert.True(t, out.Created)

	a, ok := st.byID(out.AlertID)
	require.True(t, ok)
	assert.Equal(t, models.ConditionExpiry, a.ConditionType)
	assert.Equal(t, models.StageFiveDays, a.Stage)
	assert.Equal(t, "Paracetamol", a.ProductName)
	assert.True(t, a.IsNotified)
	assert.False(t, a.IsDone)
	assert.False(t, a.IsRead)

	// Second full run over unchanged input creates nothing.
	out, err = eng.EvaluateBatch(context.Background(), batch, ref)
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.True(t, out.Suppressed)
	assert.Equal(t, 1, st.openCount())

	assert.Eventually(t, func() bool { return push.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestExpiryLookupMissUsesPlaceholder(t *testing.T) {
	st := newFakeStore()
	eng := newTestEngine(t, st, &fakeCatalog{products: map[string]models.Product{}}, &fakePusher{})

	ref := time.Now()
	batch := &models.Batch{ID: "b1", ProductID: "missing", BatchNumber: "B-1", ExpiryDate: ref.AddDate(0, 0, -2)}

	out, err := eng.EvaluateBatch(context.Background(), batch, ref)
	require.NoError(t, err)
	require.True(t, out.Created)

	a, _ := st.byID(out.AlertID)
	assert.Equal(t, "Unknown product", a.ProductName)
}

func TestLowStockAutoResolution(t *testing.T) {
	st := newFakeStore()
	cat := &fakeCatalog{products: map[string]models.Product{}}
	eng := newTestEngine(t, st, cat, &fakePusher{})

	low := &models.Product{ID: "p1", Name: "Gauze", CurrentStock: 10, ReorderLevel: 10}
	out, err := eng.EvaluateProduct(context.Background(), low)
	require.NoError(t, err)
	assert.True(t, out.Created, "stock at reorder level raises an alert")

	// Restocked one above the reorder level: no condition, prior alert resolves.
	restocked := &models.Product{ID: "p1", Name: "Gauze", CurrentStock: 11, ReorderLevel: 10}
	out, err = eng.EvaluateProduct(context.Background(), restocked)
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Equal(t, 1, out.Resolved)
	assert.Equal(t, 0, st.openCount())

	for _, a := range st.alerts {
		assert.True(t, a.IsDone)
		assert.Equal(t, models.ReasonStockRestored, a.ResolvedReason)
		assert.NotNil(t, a.ResolvedAt)
	}

	// A fresh dip creates a new alert, never reopens the resolved one.
	out, err = eng.EvaluateProduct(context.Background(), low)
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, 1, st.openCount())
}

func TestRiskDedupWhileOpen(t *testing.T) {
	st := newFakeStore()
	cat := &fakeCatalog{products: map[string]models.Product{
		"p9": {ID: "p9", Name: "Amoxicillin"},
	}}
	eng := newTestEngine(t, st, cat, &fakePusher{})

	rec := &models.RiskRecord{ProductID: "p9", Level: models.RiskMedium, Score: 62}
	out, err := eng.EvaluateRisk(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, out.Created)

	a, _ := st.byID(out.AlertID)
	assert.Equal(t, 62.0, a.RiskScore)
	assert.Equal(t, models.RiskMedium, a.Stage)

	// Identical write while the first alert is open: suppressed.
	out, err = eng.EvaluateRisk(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, out.Suppressed)
	assert.Equal(t, 1, st.openCount())

	// A Low level raises nothing and resolves nothing (no reversal for risk).
	out, err = eng.EvaluateRisk(context.Background(), &models.RiskRecord{ProductID: "p9", Level: models.RiskLow, Score: 5})
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Equal(t, 0, out.Resolved)
	assert.Equal(t, 1, st.openCount(), "risk alerts have no auto-resolution path")
}

func TestDeliveryFailureDoesNotRollBackCreation(t *testing.T) {
	st := newFakeStore()
	push := &fakePusher{fail: true}
	eng := newTestEngine(t, st, &fakeCatalog{products: map[string]models.Product{}}, push)

	out, err := eng.EvaluateProduct(context.Background(), &models.Product{ID: "p1", Name: "Gauze", CurrentStock: 0, ReorderLevel: 5})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, 1, st.openCount(), "alert record is the source of truth")
}

func TestDeletedSubjectIsNoOp(t *testing.T) {
	st := newFakeStore()
	eng := newTestEngine(t, st, &fakeCatalog{}, &fakePusher{})

	out, err := eng.HandleBatchChanged(context.Background(), models.BatchChanged{
		Before: &models.Batch{ID: "b1"},
		After:  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)
	assert.Equal(t, 0, st.openCount())
}

func TestSweepMatchesPerSubjectProcessing(t *testing.T) {
	ref := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	products := map[string]models.Product{
		"p1": {ID: "p1", Name: "A", CurrentStock: 2, ReorderLevel: 5},   // low stock
		"p2": {ID: "p2", Name: "B", CurrentStock: 50, ReorderLevel: 5},  // fine
		"p3": {ID: "p3", Name: "C", CurrentStock: 5, ReorderLevel: 5},   // low stock boundary
	}
	batches := []models.Batch{
		{ID: "b1", ProductID: "p1", BatchNumber: "B1", ExpiryDate: ref.AddDate(0, 0, 3)}, // stage 3
		{ID: "b2", ProductID: "p2", BatchNumber: "B2", ExpiryDate: ref.AddDate(0, 0, 4)}, // silent gap
		{ID: "b3", ProductID: "p3", BatchNumber: "B3", ExpiryDate: ref.AddDate(0, 0, -1)}, // expired
	}
	cat := &fakeCatalog{products: products, batches: batches}

	st := newFakeStore()
	eng := newTestEngine(t, st, cat, &fakePusher{})

	res, err := eng.Sweep(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Subjects)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 4, res.Created, "2 expiry + 2 low stock")

	// Per-subject processing in isolation produces the identical alert set.
	isolated := newFakeStore()
	engIso := newTestEngine(t, isolated, cat, &fakePusher{})
	for i := range batches {
		_, err := engIso.EvaluateBatch(context.Background(), &batches[i], ref)
		require.NoError(t, err)
	}
	for _, p := range products {
		p := p
		_, err := engIso.EvaluateProduct(context.Background(), &p)
		require.NoError(t, err)
	}
	assert.Equal(t, isolated.openCount(), st.openCount())

	// A second sweep is fully idempotent.
	res, err = eng.Sweep(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 4, st.openCount())
}

func TestConcurrentTriggersCreateOneAlert(t *testing.T) {
	st := newFakeStore()
	eng := newTestEngine(t, st, &fakeCatalog{products: map[string]models.Product{}}, &fakePusher{})

	p := &models.Product{ID: "p1", Name: "Gauze", CurrentStock: 1, ReorderLevel: 5}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.EvaluateProduct(context.Background(), p)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, st.openCount())
}
