package events

import (
	"encoding/json"
	"time"

	"github.com/grocerly/storefront/pkg/messaging"
)

type CartSyncedEvent struct {
	SessionID string    `json:"session_id"`
	ItemCount int       `json:"item_count"`
	SyncedAt  time.Time `json:"synced_at"`
}

func (c CartSyncedEvent) Subject() string {
	return messaging.CartSyncedSubject
}

func (c CartSyncedEvent) Payload() ([]byte, error) {
	return json.Marshal(c)
}
