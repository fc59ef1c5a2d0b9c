package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/pricing"
	"github.com/inkdesk/storefront/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderService interface {
	CreateOrder(ctx context.Context, p domain.Principal, req service.CreateOrderRequest) (*service.OrderResult, error)
	BuyNow(ctx context.Context, p domain.Principal, req service.BuyNowRequest) (*service.OrderResult, error)
	CancelOrder(ctx context.Context, p domain.Principal, orderID primitive.ObjectID) (*domain.Order, error)
	ListMyOrders(ctx context.Context, p domain.Principal, page, limit int) (domain.Page[*domain.Order], error)
	GetOrder(ctx context.Context, p domain.Principal, orderID primitive.ObjectID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.Page[*domain.Order], error)
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, to domain.OrderStatus) (*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderService
	resp    *Responder
	timeout time.Duration
}

func NewOrderHandler(orders OrderService, resp *Responder, timeout time.Duration) *OrderHandler {
	return &OrderHandler{orders: orders, resp: resp, timeout: timeout}
}

type OrderItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderDTO struct {
	Items           []OrderItemDTO         `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
}

type BuyNowDTO struct {
	ProductID       string                 `json:"product_id"`
	Quantity        int                    `json:"quantity"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
}

type BreakdownDTO struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func toBreakdownDTO(b pricing.Breakdown) BreakdownDTO {
	subtotal, shipping, tax, total := b.Floats()
	return BreakdownDTO{Subtotal: subtotal, Shipping: shipping, Tax: tax, Total: total}
}

// POST /api/v1/orders/create
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var dto CreateOrderDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	req := service.CreateOrderRequest{
		Items:           make([]service.OrderItemRequest, 0, len(dto.Items)),
		ShippingAddress: dto.ShippingAddress,
	}
	for _, item := range dto.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			h.resp.Error(w, r, badRequest(fmt.Sprintf("invalid product_id %q", item.ProductID)))
			return
		}
		req.Items = append(req.Items, service.OrderItemRequest{ProductID: productID, Quantity: item.Quantity})
	}

	result, err := h.orders.CreateOrder(ctx, p, req)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	respondOK(w, http.StatusCreated, map[string]any{
		"order":     result.Order,
		"breakdown": toBreakdownDTO(result.Breakdown),
	})
}

// POST /api/v1/orders/buy-now
func (h *OrderHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var dto BuyNowDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	productID, err := primitive.ObjectIDFromHex(dto.ProductID)
	if err != nil {
		h.resp.Error(w, r, badRequest("invalid product_id"))
		return
	}

	result, err := h.orders.BuyNow(ctx, p, service.BuyNowRequest{
		ProductID:       productID,
		Quantity:        dto.Quantity,
		ShippingAddress: dto.ShippingAddress,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	respondOK(w, http.StatusCreated, map[string]any{
		"order":     result.Order,
		"breakdown": toBreakdownDTO(result.Breakdown),
	})
}

// GET /api/v1/orders
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	orders, err := h.orders.ListMyOrders(ctx, p, page, limit)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondPage(w, "orders", orders)
}

// GET /api/v1/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	order, err := h.orders.GetOrder(ctx, p, orderID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"order": order})
}

// PUT /api/v1/orders/{orderId}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	order, err := h.orders.CancelOrder(ctx, p, orderID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"order": order})
}

// GET /api/v1/admin/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, limit, err := pageParams(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.resp.Error(w, r, badRequest("invalid user_id"))
			return
		}
		filter.UserID = &userID
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondPage(w, "orders", orders)
}

// PUT /api/v1/admin/orders/{orderId}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := pathID(r, "orderId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto UpdateStatusDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, domain.OrderStatus(dto.Status))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"order": order})
}

func principal(r *http.Request) (domain.Principal, error) {
	p, ok := principalFrom(r.Context())
	if !ok {
		return domain.Principal{}, fmt.Errorf("%w: %v", service.ErrUnauthorized, errNoPrincipal)
	}
	return p, nil
}

// pageParams reads ?page= and ?limit=. Absent values are left to the
// service defaults.
func pageParams(r *http.Request) (page, limit int, err error) {
	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return 0, 0, badRequest("page must be a number")
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, badRequest("limit must be a number")
		}
	}
	return page, limit, nil
}

func respondPage[T any](w http.ResponseWriter, key string, page domain.Page[T]) {
	respondOK(w, http.StatusOK, map[string]any{
		key: page.Items,
		"pagination": map[string]any{
			"total": page.Total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}
