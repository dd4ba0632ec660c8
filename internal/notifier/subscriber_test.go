package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/grocerly/storefront/pkg/messaging"
	"github.com/grocerly/storefront/pkg/messaging/events"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Nak() error {
	args := m.Called()
	return args.Error(0)
}

func Test_handleMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testCases := []struct {
		name       string
		newMockMsg func() *mockAckableMsg
	}{
		{
			name: "valid order created event",
			newMockMsg: func() *mockAckableMsg {
				payload, _ := json.Marshal(&events.OrderCreatedEvent{
					OrderID:    uuid.New(),
					CustomerID: uuid.New(),
					Total:      decimal.NewFromInt(500),
					CreatedAt:  time.Now(),
				})
				msg := new(mockAckableMsg)
				msg.On("Subject").Return(messaging.OrdersCreatedSubject)
				msg.On("Data").Return(payload).Times(1)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
		},
		{
			name: "valid otp requested event",
			newMockMsg: func() *mockAckableMsg {
				payload, _ := json.Marshal(&events.OTPRequestedEvent{
					Phone:       "+8801700000001",
					Code:        "482913",
					Purpose:     "verify",
					RequestedAt: time.Now(),
				})
				msg := new(mockAckableMsg)
				msg.On("Subject").Return(messaging.OTPRequestedSubject)
				msg.On("Data").Return(payload).Times(1)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
		},
		{
			name: "invalid payload is nacked",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Subject").Return(messaging.OrdersCreatedSubject)
				msg.On("Data").Return([]byte("invalid data")).Times(1)
				msg.On("Nak").Return(nil).Times(1)
				return msg
			},
		},
		{
			name: "unexpected subject is acked and dropped",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Subject").Return("payments.settled")
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockMsg := tc.newMockMsg()

			// when
			handleMessage(mockMsg, logger)

			// then
			mockMsg.AssertExpectations(t)
		})
	}
}

func TestMaskPhone(t *testing.T) {
	testCases := []struct {
		phone string
		want  string
	}{
		{"+8801712345678", "****5678"},
		{"1234", "****"},
		{"", "****"},
	}
	for _, tc := range testCases {
		if got := maskPhone(tc.phone); got != tc.want {
			t.Errorf("maskPhone(%q) = %q, want %q", tc.phone, got, tc.want)
		}
	}
}
