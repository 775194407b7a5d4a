package menu

import (
	"fmt"
	"time"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/repo"
)

// OrderRequest is the body of POST /menu and POST /orders.
type OrderRequest struct {
	Items        []repo.OrderItem `json:"items"`
	CustomerInfo map[string]any   `json:"customer_info"`
	DeliveryInfo map[string]any   `json:"delivery_info"`
}

// OrderID formats the identifier of an order created at t.
func OrderID(t time.Time) string {
	return fmt.Sprintf("ORD-%d", t.UnixMilli())
}

// BuildOrder validates req and returns a pending order created at now.
// The total is the sum of price times quantity over every item.
func BuildOrder(req OrderRequest, now time.Time) (repo.Order, error) {
	if len(req.Items) == 0 {
		return repo.Order{}, apperr.Validation("items", "items must be a non-empty list")
	}

	var total float64
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return repo.Order{}, &apperr.ValidationError{Field: "items", Value: fmt.Sprintf("%d", i), Message: "item quantity must be positive"}
		}
		if it.Price < 0 {
			return repo.Order{}, &apperr.ValidationError{Field: "items", Value: fmt.Sprintf("%d", i), Message: "item price must not be negative"}
		}
		total += it.Price * float64(it.Quantity)
	}

	customer := req.CustomerInfo
	if customer == nil {
		customer = map[string]any{}
	}
	delivery := req.DeliveryInfo
	if delivery == nil {
		delivery = map[string]any{}
	}

	now = now.UTC()
	return repo.Order{
		OrderID:      OrderID(now),
		Items:        req.Items,
		Total:        total,
		CustomerInfo: customer,
		DeliveryInfo: delivery,
		Status:       repo.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
