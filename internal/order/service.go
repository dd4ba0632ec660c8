package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/grocerly/storefront/internal/catalog"
	"github.com/grocerly/storefront/pkg/messaging"
	"github.com/grocerly/storefront/pkg/messaging/events"
)

// Store defines the persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, offset, limit int32) ([]Order, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	List(ctx context.Context, status string, offset, limit int32) ([]Order, error)
	Count(ctx context.Context, status string) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// ProductSource resolves products at checkout. Implemented by the catalog
// service.
type ProductSource interface {
	ProductByID(ctx context.Context, id int64) (*catalog.Product, error)
}

// CartClearer empties a session's server-side cart after a successful
// checkout. Implemented by the cart service.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Service implements checkout and order history.
type Service struct {
	store        Store
	products     ProductSource
	carts        CartClearer
	publisher    messaging.Publisher
	logger       *slog.Logger
	orderCounter metric.Int64Counter
}

// NewService creates an order service.
func NewService(store Store, products ProductSource, carts CartClearer, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront-order")
	orderCounter, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of orders placed"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}
	return &Service{
		store:        store,
		products:     products,
		carts:        carts,
		publisher:    publisher,
		logger:       logger.With("component", "order"),
		orderCounter: orderCounter,
	}
}

// Place checks out the submitted lines for the customer. Prices are snapshot
// from the catalog with special price precedence, stock is re-checked and
// decremented transactionally, and the session's cart blob is removed on
// success. A failed cart cleanup does not fail the order.
func (s *Service) Place(ctx context.Context, customerID uuid.UUID, sessionID, address string, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	o := &Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     StatusPending,
		Address:    address,
		Total:      decimal.Zero,
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			line.Quantity = 1
		}
		p, err := s.products.ProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve product %d: %w", line.ProductID, err)
		}
		if !p.Active {
			return nil, fmt.Errorf("resolve product %d: %w", line.ProductID, catalog.ErrProductNotFound)
		}
		unitPrice := p.Price
		if p.SpecialPrice != nil {
			unitPrice = *p.SpecialPrice
		}
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		o.Items = append(o.Items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Unit:      p.Unit,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
		o.Total = o.Total.Add(subtotal)
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.orderCounter.Add(ctx, 1)

	if s.publisher != nil {
		event := events.OrderCreatedEvent{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			Total:      o.Total,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order created event", "order_id", o.ID, "error", err)
		}
	}

	if s.carts != nil && sessionID != "" {
		if err := s.carts.Clear(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to clear cart after checkout", "order_id", o.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "order placed", "order_id", o.ID, "customer_id", customerID, "total", o.Total)
	return o, nil
}

// ByID returns an order with its items. Customers only see their own orders;
// admins pass admin=true to bypass the ownership check.
func (s *Service) ByID(ctx context.Context, id, requesterID uuid.UUID, admin bool) (*Order, error) {
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && o.CustomerID != requesterID {
		return nil, ErrAccessDenied
	}
	return o, nil
}

// ByCustomer returns one page of the customer's orders plus the total count.
func (s *Service) ByCustomer(ctx context.Context, customerID uuid.UUID, offset, limit int32) ([]Order, int64, error) {
	orders, err := s.store.ListByCustomer(ctx, customerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// All returns one page of all orders, optionally filtered by status.
func (s *Service) All(ctx context.Context, status string, offset, limit int32) ([]Order, int64, error) {
	orders, err := s.store.List(ctx, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves an order through the status state machine.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	updated, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "order status updated", "order_id", id, "from", current.Status, "to", status)
	return updated, nil
}

// Dashboard aggregates for the back office.
type Dashboard struct {
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	Revenue        decimal.Decimal  `json:"revenue"`
}

// Stats returns order counts per status and delivered revenue.
func (s *Service) Stats(ctx context.Context) (*Dashboard, error) {
	counts, err := s.store.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{OrdersByStatus: counts, Revenue: revenue}, nil
}
