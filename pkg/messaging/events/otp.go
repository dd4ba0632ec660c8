package events

import (
	"encoding/json"
	"time"

	"github.com/grocerly/storefront/pkg/messaging"
)

// OTPRequestedEvent asks the notifier to deliver a one-time code. The code
// itself travels in the event; the notifier owns the delivery channel.
type OTPRequestedEvent struct {
	Phone       string    `json:"phone"`
	Code        string    `json:"code"`
	Purpose     string    `json:"purpose"`
	RequestedAt time.Time `json:"requested_at"`
}

func (o OTPRequestedEvent) Subject() string {
	return messaging.OTPRequestedSubject
}

func (o OTPRequestedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
