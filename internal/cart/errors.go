package cart

import (
	"errors"
	"fmt"
)

// Sentinel errors for cart operations.
var (
	ErrItemNotFound = errors.New("item is not in the cart")
	ErrCorrupt      = errors.New("persisted cart state is corrupt")
	ErrNoSavedCart  = errors.New("no saved cart for session")

	// ErrProductUnavailable is returned by ProductSource implementations when
	// the requested product does not exist or is inactive.
	ErrProductUnavailable = errors.New("product is not available")
)

// StockExceededError indicates a requested quantity exceeds the available
// stock. Available carries the quantity the caller may still request.
type StockExceededError struct {
	ProductID int64
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available", e.ProductID, e.Available)
}

// SyncError indicates the cart push to the remote endpoint failed. The local
// ledger is never altered by a failed synchronization.
type SyncError struct {
	Cause error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("cart synchronization failed: %v", e.Cause)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}
