package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/grocerly/storefront/pkg/messaging"
	"github.com/grocerly/storefront/pkg/messaging/events"
)

// HighlightTTL is how long the "just added" pointer survives before the
// deferred clear fires. A newer add cancels the pending clear first, so rapid
// successive adds never lose their highlight to a stale timer.
const HighlightTTL = 2 * time.Second

// Persistence is the subset of the store the service drives. It matches
// store.Store; declared here so the service owns its dependency contract.
type Persistence interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Delete(ctx context.Context, sessionID string) error
	LoadOpen(ctx context.Context, sessionID string) (bool, error)
	SaveOpen(ctx context.Context, sessionID string, open bool) error
}

// ProductSource supplies the product snapshot captured at add-time.
type ProductSource interface {
	ProductSnapshot(ctx context.Context, productID int64) (*ProductSnapshot, error)
}

// Service owns one ledger per cart session: it rehydrates a ledger from the
// store on first touch, applies mutations, and writes the snapshot back after
// every successful one. Constructed once at startup and injected into the
// transport layer; there is no ambient singleton.
type Service struct {
	store     Persistence
	products  ProductSource
	syncer    *Syncer
	publisher messaging.Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	ledgers map[string]*Ledger
	timers  map[string]*time.Timer

	highlightTTL time.Duration
	syncCounter  metric.Int64Counter
}

// NewService creates the cart service. publisher may be nil when event
// publishing is not wired (tests).
func NewService(store Persistence, products ProductSource, syncer *Syncer, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront-cart")
	syncCounter, err := meter.Int64Counter("cart_syncs", metric.WithDescription("Total number of cart synchronization attempts"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_syncs counter: %v", err))
	}
	return &Service{
		store:        store,
		products:     products,
		syncer:       syncer,
		publisher:    publisher,
		logger:       logger.With("component", "cart"),
		ledgers:      make(map[string]*Ledger),
		timers:       make(map[string]*time.Timer),
		highlightTTL: HighlightTTL,
		syncCounter:  syncCounter,
	}
}

// Ledger returns the session's ledger, rehydrating it from the store on first
// touch. A missing blob starts empty; a corrupt one is discarded and also
// starts empty, without surfacing the corruption to the caller.
func (s *Service) Ledger(ctx context.Context, sessionID string) (*Ledger, error) {
	s.mu.Lock()
	if l, ok := s.ledgers[sessionID]; ok {
		s.mu.Unlock()
		return l, nil
	}
	s.mu.Unlock()

	l := NewLedger()
	snap, err := s.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		l.Restore(*snap)
	case errors.Is(err, ErrCorrupt):
		s.logger.WarnContext(ctx, "Discarding corrupt cart blob", "session_id", sessionID, "error", err)
		if err := s.store.Delete(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete corrupt cart blob", "session_id", sessionID, "error", err)
		}
	case errors.Is(err, ErrNoSavedCart):
		// First touch for this session.
	default:
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if open, err := s.store.LoadOpen(ctx, sessionID); err == nil {
		l.SetOpen(open)
	} else {
		s.logger.WarnContext(ctx, "Failed to load cart visibility flag", "session_id", sessionID, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.ledgers[sessionID]; ok {
		return existing, nil
	}
	s.ledgers[sessionID] = l
	return l, nil
}

// Add fetches the product snapshot and adds it to the session's ledger.
// A StockExceededError passes through untouched so the transport layer can
// render the available count; any other failure wraps the cause.
func (s *Service) Add(ctx context.Context, sessionID string, productID int64, quantity int) error {
	l, err := s.Ledger(ctx, sessionID)
	if err != nil {
		return err
	}

	p, err := s.products.ProductSnapshot(ctx, productID)
	if err != nil {
		return fmt.Errorf("fetch product %d: %w", productID, err)
	}

	if err := l.AddItem(*p, quantity); err != nil {
		return err
	}
	s.scheduleHighlightClear(sessionID, l, productID)
	return s.persist(ctx, sessionID, l)
}

// Remove decrements or deletes a line item. Removal is always safe; only the
// write-back can fail.
func (s *Service) Remove(ctx context.Context, sessionID string, productID int64, quantity int) error {
	l, err := s.Ledger(ctx, sessionID)
	if err != nil {
		return err
	}
	l.RemoveItem(productID, quantity)
	return s.persist(ctx, sessionID, l)
}

// SetQuantity overwrites a line item's quantity, with the ledger's
// set-to-zero-removes and stock-bound semantics.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	l, err := s.Ledger(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := l.SetQuantity(productID, quantity); err != nil {
		return err
	}
	return s.persist(ctx, sessionID, l)
}

// Clear empties the ledger and removes the persisted blob entirely rather
// than overwriting it with empty state.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	l, err := s.Ledger(ctx, sessionID)
	if err != nil {
		return err
	}
	l.Clear()
	return s.store.Delete(ctx, sessionID)
}

// ToggleVisibility flips the panel flag and persists it under its own key.
func (s *Service) ToggleVisibility(ctx context.Context, sessionID string) (bool, error) {
	l, err := s.Ledger(ctx, sessionID)
	if err != nil {
		return false, err
	}
	open := l.ToggleVisibility()
	if err := s.store.SaveOpen(ctx, sessionID, open); err != nil {
		return open, err
	}
	return open, nil
}

// Sync pushes the session's ledger to the remote cart endpoint. Failures come
// back as a *SyncError; the local ledger is never rolled back or altered.
func (s *Service) Sync(ctx context.Context, sessionID string) (*SyncResponse, error) {
	l, err := s.Ledger(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := l.Items()
	payload := make([]SyncItem, 0, len(items))
	for id, item := range items {
		payload = append(payload, SyncItem{ProductID: id, Quantity: item.Quantity})
	}

	s.syncCounter.Add(ctx, 1)
	resp, err := s.syncer.Push(ctx, payload)
	if err != nil {
		s.logger.WarnContext(ctx, "Cart sync failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	if s.publisher != nil {
		event := events.CartSyncedEvent{
			SessionID: sessionID,
			ItemCount: len(payload),
			SyncedAt:  time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish CartSyncedEvent", "error", err)
		}
	}
	return resp, nil
}

// persist writes the ledger snapshot back to the store.
func (s *Service) persist(ctx context.Context, sessionID string, l *Ledger) error {
	if err := s.store.Save(ctx, sessionID, l.Snapshot()); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// scheduleHighlightClear arms the deferred highlight clear, cancelling any
// pending timer for the session first (debounce semantics).
func (s *Service) scheduleHighlightClear(sessionID string, l *Ledger, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
	}
	s.timers[sessionID] = time.AfterFunc(s.highlightTTL, func() {
		l.ClearLastAdded(productID)
		s.mu.Lock()
		delete(s.timers, sessionID)
		s.mu.Unlock()
	})
}
