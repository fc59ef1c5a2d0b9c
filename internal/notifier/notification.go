package notifier

import (
	"context"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
)

type Kind string

const (
	KindOrderPlaced    Kind = "order_placed"
	KindOrderCancelled Kind = "order_cancelled"
)

type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Notification is the payload published for the email worker.
type Notification struct {
	Kind        Kind      `json:"kind"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Items       []Item    `json:"items"`
	Subtotal    float64   `json:"subtotal"`
	Shipping    float64   `json:"shipping"`
	Tax         float64   `json:"tax"`
	Total       float64   `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Dispatcher hands a notification off for delivery. Dispatch never blocks on
// delivery and never fails the caller; delivery is at most once.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}

func OrderPlaced(order *domain.Order, user *domain.User) Notification {
	return fromOrder(KindOrderPlaced, order, user)
}

func OrderCancelled(order *domain.Order, user *domain.User) Notification {
	return fromOrder(KindOrderCancelled, order, user)
}

func fromOrder(kind Kind, order *domain.Order, user *domain.User) Notification {
	items := make([]Item, len(order.Items))
	for i, it := range order.Items {
		items[i] = Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}

	n := Notification{
		Kind:        kind,
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.Hex(),
		Items:       items,
		Subtotal:    order.Subtotal,
		Shipping:    order.Shipping,
		Tax:         order.Tax,
		Total:       order.Total,
		OccurredAt:  time.Now().UTC(),
	}
	if user != nil {
		n.Email = user.Email
		n.Name = user.Name
	}
	return n
}
