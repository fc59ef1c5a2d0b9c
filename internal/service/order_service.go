package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkdesk/storefront/internal/cache"
	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/logger"
	"github.com/inkdesk/storefront/internal/notifier"
	"github.com/inkdesk/storefront/internal/pricing"
	"github.com/inkdesk/storefront/internal/repository"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderItemRequest struct {
	ProductID primitive.ObjectID
	Quantity  int
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest
	ShippingAddress domain.ShippingAddress
}

type BuyNowRequest struct {
	ProductID       primitive.ObjectID
	Quantity        int
	ShippingAddress domain.ShippingAddress
}

type OrderResult struct {
	Order     *domain.Order
	Breakdown pricing.Breakdown
}

type OrderService struct {
	products   repository.ProductRepository
	users      repository.UserRepository
	orders     repository.OrderRepository
	cache      cache.ProductCache
	dispatcher notifier.Dispatcher
	rules      pricing.Rules
	log        zerolog.Logger
}

func NewOrderService(
	products repository.ProductRepository,
	users repository.UserRepository,
	orders repository.OrderRepository,
	productCache cache.ProductCache,
	dispatcher notifier.Dispatcher,
	rules pricing.Rules,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		products:   products,
		users:      users,
		orders:     orders,
		cache:      productCache,
		dispatcher: dispatcher,
		rules:      rules,
		log:        log,
	}
}

// CreateOrder places an order for the given items and empties the caller's cart.
func (s *OrderService) CreateOrder(ctx context.Context, p domain.Principal, req CreateOrderRequest) (*OrderResult, error) {
	return s.placeOrder(ctx, p, req.Items, req.ShippingAddress)
}

// BuyNow places a single-item order with the same side effects as CreateOrder,
// including emptying the caller's cart.
func (s *OrderService) BuyNow(ctx context.Context, p domain.Principal, req BuyNowRequest) (*OrderResult, error) {
	items := []OrderItemRequest{{ProductID: req.ProductID, Quantity: req.Quantity}}
	return s.placeOrder(ctx, p, items, req.ShippingAddress)
}

// CancelOrder cancels one of the caller's own orders and restores its stock.
func (s *OrderService) CancelOrder(ctx context.Context, p domain.Principal, orderID primitive.ObjectID) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err, "order")
	}
	if order.UserID != p.UserID {
		return nil, notFound("order")
	}
	if !order.Status.Cancellable() {
		return nil, fmt.Errorf("%w: order is already %s", ErrInvalidState, order.Status)
	}
	return s.cancel(ctx, order)
}

func (s *OrderService) ListMyOrders(ctx context.Context, p domain.Principal, page, limit int) (domain.Page[*domain.Order], error) {
	return s.ListOrders(ctx, domain.OrderFilter{UserID: &p.UserID, Page: page, Limit: limit})
}

// GetOrder returns an order owned by the caller. Admins may read any order.
func (s *OrderService) GetOrder(ctx context.Context, p domain.Principal, orderID primitive.ObjectID) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err, "order")
	}
	if order.UserID != p.UserID && !p.IsAdmin() {
		return nil, notFound("order")
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.Page[*domain.Order], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.Page[*domain.Order]{}, validationf("unknown order status %q", filter.Status)
	}
	filter.Page, filter.Limit = domain.NormalizePage(filter.Page, filter.Limit)
	orders, total, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return domain.Page[*domain.Order]{}, err
	}
	return domain.NewPage(orders, total, filter.Page, filter.Limit), nil
}

// UpdateStatus moves an order along its lifecycle. Cancelling restores stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, validationf("unknown order status %q", to)
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err, "order")
	}
	if !domain.CanTransitionTo(order.Status, to) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidState, order.Status, to)
	}
	if to == domain.OrderStatusCancelled {
		return s.cancel(ctx, order)
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, to)
	if err != nil {
		return nil, translate(err, "order")
	}
	return updated, nil
}

// cancel flips the status conditionally so that only one caller restores stock.
func (s *OrderService) cancel(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	updated, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, domain.OrderStatusCancelled)
	if err != nil {
		return nil, translate(err, "order")
	}

	l := logger.FromContext(ctx, s.log)
	s.releaseStock(ctx, updated.Items)
	l.Info().Str("order_number", updated.OrderNumber).Msg("order cancelled")

	user, err := s.users.GetUser(ctx, updated.UserID)
	if err != nil {
		l.Warn().Err(err).Str("order_number", updated.OrderNumber).Msg("cancellation notice has no recipient")
		user = nil
	}
	s.dispatcher.Dispatch(ctx, notifier.OrderCancelled(updated, user))
	return updated, nil
}

func (s *OrderService) placeOrder(
	ctx context.Context,
	p domain.Principal,
	requested []OrderItemRequest,
	address domain.ShippingAddress,
) (*OrderResult, error) {
	items, err := mergeItems(requested)
	if err != nil {
		return nil, err
	}
	if missing := address.Missing(); len(missing) > 0 {
		return nil, validationf("shipping address is missing %v", missing)
	}

	user, err := s.users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "user")
	}

	ids := make([]primitive.ObjectID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	// Prices and stock always come from the store, never the read cache.
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	orderItems := make([]domain.OrderItem, len(items))
	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		product, ok := products[it.ProductID]
		if !ok {
			return nil, validationf("product %s does not exist", it.ProductID.Hex())
		}
		if !product.InStock(it.Quantity) {
			return nil, fmt.Errorf("%w: only %d of %q available", ErrInsufficientStock, product.Stock, product.Name)
		}
		orderItems[i] = domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  it.Quantity,
			Price:     product.Price,
		}
		lines[i] = pricing.Line{Price: product.Price, Quantity: it.Quantity}
	}

	breakdown := s.rules.Compute(pricing.Subtotal(lines...))

	if err := s.reserveStock(ctx, orderItems); err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:          p.UserID,
		Items:           orderItems,
		Status:          domain.OrderStatusPending,
		ShippingAddress: address,
	}
	order.Subtotal, order.Shipping, order.Tax, order.Total = breakdown.Floats()

	if err := s.insertOrder(ctx, order); err != nil {
		s.releaseStock(ctx, orderItems)
		return nil, err
	}

	l := logger.FromContext(ctx, s.log).With().Str("order_number", order.OrderNumber).Logger()
	l.Info().Str("user_id", p.UserID.Hex()).Float64("total", order.Total).Msg("order placed")

	if err := s.users.ClearCart(ctx, p.UserID); err != nil {
		l.Error().Err(err).Msg("failed to clear cart after order")
	}
	s.invalidateProducts(ctx, orderItems)
	s.dispatcher.Dispatch(ctx, notifier.OrderPlaced(order, user))

	return &OrderResult{Order: order, Breakdown: breakdown}, nil
}

// mergeItems validates requested lines and folds repeated products into one.
func mergeItems(requested []OrderItemRequest) ([]OrderItemRequest, error) {
	if len(requested) == 0 {
		return nil, validationf("order must contain at least one item")
	}
	merged := make([]OrderItemRequest, 0, len(requested))
	index := make(map[primitive.ObjectID]int, len(requested))
	for _, it := range requested {
		if it.ProductID.IsZero() {
			return nil, validationf("product_id is required")
		}
		if it.Quantity < 1 {
			return nil, validationf("quantity must be at least 1")
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

// reserveStock decrements each product atomically. A failed item releases
// everything reserved before it.
func (s *OrderService) reserveStock(ctx context.Context, items []domain.OrderItem) error {
	for i, it := range items {
		err := s.products.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err == nil {
			continue
		}
		s.releaseStock(ctx, items[:i])
		if errors.Is(err, repository.ErrInsufficientStock) || errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %q sold out while placing the order", ErrInsufficientStock, it.Name)
		}
		return err
	}
	return nil
}

// releaseStock returns quantities to their products. It detaches from the
// caller's cancellation; failures are logged and not returned.
func (s *OrderService) releaseStock(ctx context.Context, items []domain.OrderItem) {
	if len(items) == 0 {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	l := logger.FromContext(ctx, s.log)
	for _, it := range items {
		if err := s.products.IncrementStock(rctx, it.ProductID, it.Quantity); err != nil {
			l.Error().Err(err).
				Str("product_id", it.ProductID.Hex()).
				Int("quantity", it.Quantity).
				Msg("failed to restore stock")
		}
	}
	s.invalidateProducts(rctx, items)
}

const orderNumberAttempts = 3

func (s *OrderService) insertOrder(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = newOrderNumber(time.Now())
		err = s.orders.CreateOrder(ctx, order)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return fmt.Errorf("could not allocate a unique order number: %w", err)
}

func (s *OrderService) invalidateProducts(ctx context.Context, items []domain.OrderItem) {
	if s.cache == nil {
		return
	}
	for _, it := range items {
		if err := s.cache.Delete(ctx, it.ProductID); err != nil {
			l := logger.FromContext(ctx, s.log)
			l.Warn().Err(err).Str("product_id", it.ProductID.Hex()).Msg("cache invalidate error")
		}
	}
}
