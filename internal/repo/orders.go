package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `order_id, items, total, customer_info, delivery_info, status, created_at, updated_at`

// InsertOrder stores a new order record.
func (r *PostgresRepository) InsertOrder(ctx context.Context, order Order) (*Order, error) {
	items, err := itemsJSON(order.Items)
	if err != nil {
		return nil, err
	}
	customer, err := objectJSON(order.CustomerInfo)
	if err != nil {
		return nil, err
	}
	delivery, err := objectJSON(order.DeliveryInfo)
	if err != nil {
		return nil, err
	}

	q := `
INSERT INTO orders (order_id, items, total, customer_info, delivery_info, status, created_at)
VALUES ($1, $2::jsonb, $3, $4::jsonb, $5::jsonb, $6, $7)
RETURNING ` + orderColumns + `;
`
	row := r.pool.QueryRow(ctx, q,
		order.OrderID,
		items,
		order.Total,
		customer,
		delivery,
		order.Status,
		order.CreatedAt,
	)
	inserted, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return inserted, nil
}

// GetOrder retrieves an order by id.
func (r *PostgresRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE order_id = $1
LIMIT 1;
`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, orderID))
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus updates the status of an existing order.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	q := `
UPDATE orders
SET status = $2,
    updated_at = NOW()
WHERE order_id = $1
RETURNING ` + orderColumns + `;
`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, orderID, status))
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return order, nil
}

// ListOrders returns every order, newest first.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row rowScanner) (*Order, error) {
	var order Order
	var itemsRaw, customerRaw, deliveryRaw []byte
	if err := row.Scan(&order.OrderID, &itemsRaw, &order.Total, &customerRaw, &deliveryRaw, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := itemsFromJSON(itemsRaw)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.CustomerInfo = objectFromJSON(customerRaw)
	order.DeliveryInfo = objectFromJSON(deliveryRaw)
	return &order, nil
}
