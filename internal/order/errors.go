package order

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no order matches the lookup.
	ErrNotFound = errors.New("order not found")
	// ErrAccessDenied is returned when a customer requests an order that is
	// not theirs.
	ErrAccessDenied = errors.New("access denied")
	// ErrEmptyOrder is returned when checkout is attempted with no lines.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrInvalidTransition is returned for a status change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InsufficientStockError is returned when checkout asks for more units than
// the catalog holds. Available is the authoritative stock at the time of the
// transaction.
type InsufficientStockError struct {
	ProductID int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available", e.ProductID, e.Available)
}
