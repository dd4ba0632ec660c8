package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/grocerly/storefront/internal/cart"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store used in tests and single-process setups.
// Blobs are kept in their serialized form so corrupt-state handling can be
// exercised the same way as with Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
	open  map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string][]byte),
		open:  make(map[string]bool),
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*cart.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.carts[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrCorrupt, err)
	}
	return &snap, nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, snap cart.Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	m.mu.Lock()
	m.carts[sessionID] = blob
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.carts, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadOpen(_ context.Context, sessionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open[sessionID], nil
}

func (m *MemoryStore) SaveOpen(_ context.Context, sessionID string, open bool) error {
	m.mu.Lock()
	m.open[sessionID] = open
	m.mu.Unlock()
	return nil
}

// SetRaw injects a raw blob for a session, bypassing marshalling. Tests use it
// to simulate corrupt persisted state.
func (m *MemoryStore) SetRaw(sessionID string, blob []byte) {
	m.mu.Lock()
	m.carts[sessionID] = blob
	m.mu.Unlock()
}

// Has reports whether a blob exists for the session.
func (m *MemoryStore) Has(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.carts[sessionID]
	return ok
}
