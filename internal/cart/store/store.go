// Package store persists cart snapshots per session. Cart contents live under
// a session-scoped key with a TTL; the panel-visibility flag is kept under its
// own durable key, independent of the contents.
package store

import (
	"context"

	"github.com/grocerly/storefront/internal/cart"
)

// ErrNotFound signals there is no saved cart for the session.
var ErrNotFound = cart.ErrNoSavedCart

// Store abstracts the persisted cart blob and visibility flag.
type Store interface {
	// Load returns the saved snapshot for a session.
	// Returns ErrNotFound when there is none, cart.ErrCorrupt when the saved
	// blob cannot be decoded.
	Load(ctx context.Context, sessionID string) (*cart.Snapshot, error)

	// Save overwrites the session's snapshot.
	Save(ctx context.Context, sessionID string, snap cart.Snapshot) error

	// Delete removes the session's snapshot entirely.
	Delete(ctx context.Context, sessionID string) error

	// LoadOpen returns the saved panel-visibility flag, false when unset.
	LoadOpen(ctx context.Context, sessionID string) (bool, error)

	// SaveOpen overwrites the panel-visibility flag.
	SaveOpen(ctx context.Context, sessionID string, open bool) error
}
