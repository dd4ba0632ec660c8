package cart

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPersistence keeps snapshots in memory and can simulate a corrupt blob.
type mockPersistence struct {
	snapshots map[string]Snapshot
	open      map[string]bool
	corrupt   map[string]bool
	saveErr   error
}

func newMockPersistence() *mockPersistence {
	return &mockPersistence{
		snapshots: make(map[string]Snapshot),
		open:      make(map[string]bool),
		corrupt:   make(map[string]bool),
	}
}

func (m *mockPersistence) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	if m.corrupt[sessionID] {
		return nil, fmt.Errorf("%w: unexpected end of JSON input", ErrCorrupt)
	}
	snap, ok := m.snapshots[sessionID]
	if !ok {
		return nil, ErrNoSavedCart
	}
	return &snap, nil
}

func (m *mockPersistence) Save(_ context.Context, sessionID string, snap Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshots[sessionID] = snap
	return nil
}

func (m *mockPersistence) Delete(_ context.Context, sessionID string) error {
	delete(m.snapshots, sessionID)
	delete(m.corrupt, sessionID)
	return nil
}

func (m *mockPersistence) LoadOpen(_ context.Context, sessionID string) (bool, error) {
	return m.open[sessionID], nil
}

func (m *mockPersistence) SaveOpen(_ context.Context, sessionID string, open bool) error {
	m.open[sessionID] = open
	return nil
}

// mockProducts serves product snapshots from a fixed map.
type mockProducts struct {
	products map[int64]ProductSnapshot
}

func (m *mockProducts) ProductSnapshot(_ context.Context, productID int64) (*ProductSnapshot, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %d not found", productID)
	}
	return &p, nil
}

func newTestService(t *testing.T, store Persistence, syncer *Syncer) *Service {
	t.Helper()
	products := &mockProducts{products: map[int64]ProductSnapshot{
		1: {ID: 1, Name: "Basmati Rice", Unit: "kg", Price: decimal.NewFromInt(100), Stock: 5},
		2: {ID: 2, Name: "Mango Juice", Unit: "ltr", Price: decimal.NewFromInt(200), SpecialPrice: decP("150"), Stock: 10},
	}}
	return NewService(store, products, syncer, nil, slog.Default())
}

func Test_Service_AddPersistsSnapshot(t *testing.T) {
	store := newMockPersistence()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "s1", 1, 3))

	snap, ok := store.snapshots["s1"]
	require.True(t, ok, "mutation must be written back to the store")
	assert.Equal(t, 3, snap.Count)
	assert.True(t, decimal.NewFromInt(300).Equal(snap.Total))
}

func Test_Service_RejectedAddDoesNotPersist(t *testing.T) {
	store := newMockPersistence()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "s1", 1, 3))
	before := store.snapshots["s1"]

	err := svc.Add(ctx, "s1", 1, 3)
	var stockErr *StockExceededError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, before, store.snapshots["s1"], "rejected add must not change persisted state")
}

func Test_Service_RehydratesFromStore(t *testing.T) {
	store := newMockPersistence()
	ctx := context.Background()

	first := newTestService(t, store, nil)
	require.NoError(t, first.Add(ctx, "s1", 2, 2))

	// A fresh service over the same store sees the same ledger.
	second := newTestService(t, store, nil)
	l, err := second.Ledger(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Count())
	assert.True(t, decimal.NewFromInt(300).Equal(l.Total()))
}

func Test_Service_CorruptBlobStartsEmpty(t *testing.T) {
	store := newMockPersistence()
	store.corrupt["s1"] = true
	svc := newTestService(t, store, nil)

	l, err := svc.Ledger(context.Background(), "s1")
	require.NoError(t, err, "corrupt persisted state must be recovered silently")
	assert.Empty(t, l.Items())
	assert.Equal(t, 0, l.Count())
}

func Test_Service_ClearRemovesBlob(t *testing.T) {
	store := newMockPersistence()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "s1", 1, 2))
	require.Contains(t, store.snapshots, "s1")

	require.NoError(t, svc.Clear(ctx, "s1"))
	assert.NotContains(t, store.snapshots, "s1", "clear must delete the blob, not overwrite it")

	l, err := svc.Ledger(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, l.Items())
}

func Test_Service_ToggleVisibilityPersistsFlag(t *testing.T) {
	store := newMockPersistence()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	open, err := svc.ToggleVisibility(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, open)
	assert.True(t, store.open["s1"])

	open, err = svc.ToggleVisibility(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, open)
	assert.False(t, store.open["s1"])
}

func Test_Service_HighlightClearIsDebounced(t *testing.T) {
	store := newMockPersistence()
	svc := newTestService(t, store, nil)
	svc.highlightTTL = 50 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "s1", 1, 1))
	time.Sleep(30 * time.Millisecond)

	// The second add lands inside the first add's window; its highlight must
	// survive the first timer's deadline.
	require.NoError(t, svc.Add(ctx, "s1", 2, 1))
	time.Sleep(35 * time.Millisecond)

	l, err := svc.Ledger(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), l.LastAdded(), "a stale timer must not clear a newer highlight")

	assert.Eventually(t, func() bool {
		return l.LastAdded() == 0
	}, time.Second, 10*time.Millisecond, "the debounced clear must eventually fire")
}

func Test_Service_SyncFailureLeavesLedgerIntact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newMockPersistence()
	syncer := NewSyncer(SyncerConfig{
		Endpoint:            srv.URL,
		Timeout:             time.Second,
		ConsecutiveFailures: 100,
		BreakerTimeout:      time.Second,
	})
	svc := newTestService(t, store, syncer)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "s1", 1, 3))

	_, err := svc.Sync(ctx, "s1")
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)

	l, lerr := svc.Ledger(ctx, "s1")
	require.NoError(t, lerr)
	assert.Equal(t, 3, l.Count(), "sync failure must not alter the local ledger")
	assert.True(t, decimal.NewFromInt(300).Equal(l.Total()))
}

func Test_Service_SyncSuccess(t *testing.T) {
	var received syncRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, jsonDecode(r, &received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	store := newMockPersistence()
	syncer := NewSyncer(SyncerConfig{
		Endpoint:            srv.URL,
		Timeout:             time.Second,
		ConsecutiveFailures: 3,
		BreakerTimeout:      time.Second,
	})
	svc := newTestService(t, store, syncer)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "s1", 1, 2))

	resp, err := svc.Sync(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, received.Items, 1)
	assert.Equal(t, SyncItem{ProductID: 1, Quantity: 2}, received.Items[0])
}
