// Package store provides PostgreSQL persistence for orders.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/grocerly/storefront/internal/order"
)

const (
	lockStockSQL = `SELECT stock FROM products WHERE id = $1 FOR UPDATE`

	decrementStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (id, customer_id, status, address, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	insertItemSQL = `INSERT INTO order_items (order_id, product_id, name, unit, unit_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	findOrderByIDSQL = `SELECT id, customer_id, status, address, total, created_at, updated_at
		FROM orders WHERE id = $1`

	findItemsSQL = `SELECT product_id, name, unit, unit_price, quantity, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY product_id`

	listByCustomerSQL = `SELECT id, customer_id, status, address, total, created_at, updated_at
		FROM orders WHERE customer_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`

	countByCustomerSQL = `SELECT count(*) FROM orders WHERE customer_id = $1`

	listOrdersSQL = `SELECT id, customer_id, status, address, total, created_at, updated_at
		FROM orders
		WHERE ($1::text = '' OR status = $1)
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`

	countOrdersSQL = `SELECT count(*) FROM orders WHERE ($1::text = '' OR status = $1)`

	updateStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
		RETURNING id, customer_id, status, address, total, created_at, updated_at`

	statusCountsSQL = `SELECT status, count(*) FROM orders GROUP BY status`

	revenueSQL = `SELECT coalesce(sum(total), 0) FROM orders WHERE status = 'delivered'`
)

var _ order.Store = (*PgStore)(nil)

// PgStore implements order.Store backed by PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates an order store using the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create persists the order and decrements product stock in one transaction.
// Stock rows are locked before the check, so concurrent checkouts cannot
// oversell. Returns *order.InsufficientStockError with the authoritative
// count when any line exceeds stock; nothing is written in that case.
func (s *PgStore) Create(ctx context.Context, o *order.Order) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, item := range o.Items {
			var stock int
			if err := tx.QueryRow(ctx, lockStockSQL, item.ProductID).Scan(&stock); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return &order.InsufficientStockError{ProductID: item.ProductID, Available: 0}
				}
				return fmt.Errorf("failed to lock stock for product %d: %w", item.ProductID, err)
			}
			if stock < item.Quantity {
				return &order.InsufficientStockError{ProductID: item.ProductID, Available: stock}
			}
			if _, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
			}
		}

		if err := tx.QueryRow(ctx, insertOrderSQL,
			o.ID, o.CustomerID, o.Status, o.Address, o.Total,
		).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		for _, item := range o.Items {
			if _, err := tx.Exec(ctx, insertItemSQL,
				o.ID, item.ProductID, item.Name, item.Unit, item.UnitPrice, item.Quantity, item.Subtotal,
			); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		var stockErr *order.InsufficientStockError
		if errors.As(err, &stockErr) {
			return stockErr
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindByID retrieves an order with its items.
// Returns order.ErrNotFound if no order exists with the given ID.
func (s *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, findOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find order %s: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order %s: %w", id, err)
	}

	itemRows, err := s.pool.Query(ctx, findItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for order %s: %w", id, err)
	}
	items, err := pgx.CollectRows(itemRows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for order %s: %w", id, err)
	}
	o.Items = items
	return &o, nil
}

// ListByCustomer returns a page of the customer's orders, newest first,
// without items.
func (s *PgStore) ListByCustomer(ctx context.Context, customerID uuid.UUID, offset, limit int32) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listByCustomerSQL, customerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %s: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// CountByCustomer returns the customer's total order count.
func (s *PgStore) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, countByCustomerSQL, customerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count orders for customer %s: %w", customerID, err)
	}
	return total, nil
}

// List returns a page of all orders, optionally filtered by status.
func (s *PgStore) List(ctx context.Context, status string, offset, limit int32) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listOrdersSQL, status, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Count returns the number of orders, optionally filtered by status.
func (s *PgStore) Count(ctx context.Context, status string) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, countOrdersSQL, status).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}

// UpdateStatus overwrites the order's status.
// Returns order.ErrNotFound if no order exists with the given ID.
func (s *PgStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, updateStatusSQL, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return &o, nil
}

// StatusCounts returns the number of orders per status.
func (s *PgStore) StatusCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, statusCountsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Revenue returns the sum of delivered order totals.
func (s *PgStore) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	if err := s.pool.QueryRow(ctx, revenueSQL).Scan(&revenue); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return revenue, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Address, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanItem(row pgx.CollectableRow) (order.Item, error) {
	var i order.Item
	err := row.Scan(&i.ProductID, &i.Name, &i.Unit, &i.UnitPrice, &i.Quantity, &i.Subtotal)
	return i, err
}
