// Package notifier consumes storefront events from JetStream and dispatches
// customer notifications.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"

	"github.com/grocerly/storefront/pkg/config"
	"github.com/grocerly/storefront/pkg/messaging"
	"github.com/grocerly/storefront/pkg/messaging/events"
)

// Start initializes the JetStream consumer and runs the configured number of
// worker goroutines until the context is cancelled.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg.Timeout, subscriberCfg.Interval, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the consumer and processes them one at a
// time.
func runWorker(ctx context.Context, consumer jetstream.Consumer, timeout, interval time.Duration, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(msg, logger)
			}
		}
	}
}

// ackableMsg is the slice of jetstream.Msg the dispatcher needs.
type ackableMsg interface {
	Subject() string
	Data() []byte
	Ack() error
	Nak() error
}

// handleMessage dispatches a single message by subject. Unknown subjects are
// acked and dropped; undecodable payloads are nacked for redelivery.
func handleMessage(msg ackableMsg, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}

	var err error
	switch msg.Subject() {
	case messaging.OTPRequestedSubject:
		err = handleOTPRequested(msg.Data(), logger)
	case messaging.OrdersCreatedSubject:
		err = handleOrderCreated(msg.Data(), logger)
	default:
		logger.Warn("ignoring message on unexpected subject", "subject", msg.Subject())
	}
	if err != nil {
		logger.Error("failed to handle message", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

func handleOTPRequested(data []byte, logger *slog.Logger) error {
	var event events.OTPRequestedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	logger.Info("delivering one-time code",
		slog.String("phone", maskPhone(event.Phone)),
		slog.String("purpose", event.Purpose),
		slog.String("requested_at", event.RequestedAt.Format(time.RFC3339)))

	deliverSMS(event.Phone, event.Code)
	return nil
}

func handleOrderCreated(data []byte, logger *slog.Logger) error {
	var event events.OrderCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	logger.Info("dispatching order confirmation",
		slog.String("order_id", event.OrderID.String()),
		slog.String("customer_id", event.CustomerID.String()),
		slog.String("total", event.Total.String()),
		slog.String("created_at", event.CreatedAt.Format(time.RFC3339)))

	deliverOrderConfirmation(event.OrderID.String())
	return nil
}

// deliverSMS stands in for the SMS gateway call.
// TODO: wire the SMS gateway client once the provider account exists.
func deliverSMS(_, _ string) {
	time.Sleep(50 * time.Millisecond)
}

// deliverOrderConfirmation stands in for the confirmation delivery.
func deliverOrderConfirmation(_ string) {
	time.Sleep(50 * time.Millisecond)
}

// maskPhone keeps the last four digits for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
