// Package cart implements the client-facing shopping cart: a quantity/price
// ledger with stock-bound invariants, session-scoped persistence, and a
// best-effort push to a remote cart endpoint.
package cart

import (
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
)

// LineItem is one product's quantity/price record within the ledger. Display
// fields and the stock ceiling are snapshotted at add-time and never
// re-fetched.
type LineItem struct {
	ProductID     int64            `json:"product_id"`
	Name          string           `json:"name"`
	Unit          string           `json:"unit"`
	Price         decimal.Decimal  `json:"price"`
	SpecialPrice  *decimal.Decimal `json:"special_price,omitempty"`
	Quantity      int              `json:"quantity"`
	StockSnapshot int              `json:"stock"`
	Image         string           `json:"image,omitempty"`
}

// UnitPrice returns the special price when present, the regular price otherwise.
func (li LineItem) UnitPrice() decimal.Decimal {
	if li.SpecialPrice != nil {
		return *li.SpecialPrice
	}
	return li.Price
}

// Subtotal returns quantity times the effective unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ProductSnapshot is the product view handed to AddItem. Image fields follow
// the catalog's ordering: the first entry is the primary image.
type ProductSnapshot struct {
	ID           int64
	Name         string
	Unit         string
	Price        decimal.Decimal
	SpecialPrice *decimal.Decimal
	Stock        int
	Images       []string
}

// Snapshot is the persisted form of a ledger: the exact items map plus the
// derived aggregates, keyed by the product ID's decimal string.
type Snapshot struct {
	Items map[string]LineItem `json:"items"`
	Count int                 `json:"count"`
	Total decimal.Decimal     `json:"total"`
}

// Ledger is the authoritative view of one session's cart. Every mutation is
// atomic and recomputes the derived aggregates, so count and total are always
// the exact fold over the items.
type Ledger struct {
	mu        sync.Mutex
	items     map[int64]LineItem
	count     int
	total     decimal.Decimal
	open      bool
	lastAdded int64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		items: make(map[int64]LineItem),
		total: decimal.Zero,
	}
}

// AddItem creates a line item for the product or increments an existing one.
// It is rejected with a StockExceededError when the resulting quantity would
// exceed the stock snapshot; the ledger is left unchanged in that case.
func (l *Ledger) AddItem(p ProductSnapshot, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.items[p.ID].Quantity
	if current+quantity > p.Stock {
		return &StockExceededError{ProductID: p.ID, Available: p.Stock - current}
	}

	item, ok := l.items[p.ID]
	if !ok {
		item = LineItem{
			ProductID:     p.ID,
			Name:          p.Name,
			Unit:          p.Unit,
			Price:         p.Price,
			SpecialPrice:  p.SpecialPrice,
			StockSnapshot: p.Stock,
		}
		if len(p.Images) > 0 {
			item.Image = p.Images[0]
		}
	}
	item.Quantity += quantity
	l.items[p.ID] = item
	l.lastAdded = p.ID
	l.recompute()
	return nil
}

// RemoveItem decrements an item's quantity, deleting the entry entirely when
// the requested quantity reaches or exceeds the current one. Removal of an
// absent item is a no-op; there is no error path.
func (l *Ledger) RemoveItem(productID int64, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return
	}
	if item.Quantity <= quantity {
		delete(l.items, productID)
	} else {
		item.Quantity -= quantity
		l.items[productID] = item
	}
	l.recompute()
}

// SetQuantity overwrites an item's quantity. A quantity of zero or less
// removes the entry; a quantity above the stock snapshot is rejected with a
// StockExceededError and leaves the ledger unchanged.
func (l *Ledger) SetQuantity(productID int64, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return ErrItemNotFound
	}
	if quantity > item.StockSnapshot {
		return &StockExceededError{ProductID: productID, Available: item.StockSnapshot}
	}
	if quantity <= 0 {
		delete(l.items, productID)
	} else {
		item.Quantity = quantity
		l.items[productID] = item
	}
	l.recompute()
	return nil
}

// Clear empties the ledger and zeroes the aggregates. The visibility flag is
// untouched; it is chrome, not contents.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[int64]LineItem)
	l.recompute()
}

// ToggleVisibility flips the panel-open flag and returns the new value.
func (l *Ledger) ToggleVisibility() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = !l.open
	return l.open
}

// SetOpen sets the panel-open flag, used when restoring it from storage.
func (l *Ledger) SetOpen(open bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = open
}

// Open reports whether the cart panel is visible.
func (l *Ledger) Open() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// Count returns the total quantity across all line items.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Total returns the ledger total, honoring special-price precedence.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Items returns a copy of the line items.
func (l *Ledger) Items() map[int64]LineItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make(map[int64]LineItem, len(l.items))
	for id, item := range l.items {
		items[id] = item
	}
	return items
}

// Quantity returns the current quantity for a product, zero when absent.
func (l *Ledger) Quantity(productID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items[productID].Quantity
}

// LastAdded returns the most recently added product ID, zero when the
// highlight has been cleared.
func (l *Ledger) LastAdded() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastAdded
}

// ClearLastAdded drops the highlight pointer if it still points at the given
// product, so a stale timer never clears a newer add.
func (l *Ledger) ClearLastAdded(productID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastAdded == productID {
		l.lastAdded = 0
	}
}

// Snapshot returns the persisted form of the ledger.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make(map[string]LineItem, len(l.items))
	for id, item := range l.items {
		items[strconv.FormatInt(id, 10)] = item
	}
	return Snapshot{Items: items, Count: l.count, Total: l.total}
}

// Restore replaces the ledger contents with a snapshot. Entries with an
// unparsable key or a non-positive quantity are dropped, and the aggregates
// are recomputed from what remains rather than trusted from the blob.
func (l *Ledger) Restore(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make(map[int64]LineItem, len(s.Items))
	for key, item := range s.Items {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || item.Quantity <= 0 {
			continue
		}
		item.ProductID = id
		l.items[id] = item
	}
	l.recompute()
}

// recompute folds the items into count and total. Callers must hold l.mu.
func (l *Ledger) recompute() {
	count := 0
	total := decimal.Zero
	for _, item := range l.items {
		count += item.Quantity
		total = total.Add(item.Subtotal())
	}
	l.count = count
	l.total = total
}
