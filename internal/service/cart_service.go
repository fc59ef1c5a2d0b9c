package service

import (
	"context"
	"fmt"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/pricing"
	"github.com/inkdesk/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCartQuantity = 99

type CartLine struct {
	ProductID    primitive.ObjectID `json:"product_id"`
	Name         string             `json:"name"`
	Image        string             `json:"image,omitempty"`
	Price        float64            `json:"price"`
	CurrentPrice float64            `json:"current_price"`
	Quantity     int                `json:"quantity"`
	LineTotal    float64            `json:"line_total"`
	Available    bool               `json:"available"`
}

type CartView struct {
	Items     []CartLine `json:"items"`
	ItemCount int        `json:"item_count"`
	Subtotal  float64    `json:"subtotal"`
}

type CartService struct {
	users    repository.UserRepository
	products repository.ProductRepository
}

func NewCartService(users repository.UserRepository, products repository.ProductRepository) *CartService {
	return &CartService{users: users, products: products}
}

// GetCart returns the caller's cart. Lines whose product no longer exists are
// left out.
func (s *CartService) GetCart(ctx context.Context, p domain.Principal) (*CartView, error) {
	user, err := s.users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "user")
	}

	ids := make([]primitive.ObjectID, len(user.ShoppingCart))
	for i, it := range user.ShoppingCart {
		ids[i] = it.ProductID
	}
	products := map[primitive.ObjectID]*domain.Product{}
	if len(ids) > 0 {
		products, err = s.products.GetProducts(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	view := &CartView{Items: make([]CartLine, 0, len(user.ShoppingCart))}
	lines := make([]pricing.Line, 0, len(user.ShoppingCart))
	for _, it := range user.ShoppingCart {
		product, ok := products[it.ProductID]
		if !ok {
			continue
		}
		line := CartLine{
			ProductID:    it.ProductID,
			Name:         product.Name,
			Price:        it.Price,
			CurrentPrice: product.Price,
			Quantity:     it.Quantity,
			LineTotal:    pricing.Subtotal(pricing.Line{Price: it.Price, Quantity: it.Quantity}).Round(2).InexactFloat64(),
			Available:    product.InStock(it.Quantity),
		}
		if len(product.Images) > 0 {
			line.Image = product.Images[0].URL
		}
		view.Items = append(view.Items, line)
		view.ItemCount += it.Quantity
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}
	view.Subtotal = pricing.Subtotal(lines...).Round(2).InexactFloat64()
	return view, nil
}

// AddItem puts a product in the cart at its current price. Adding a product
// that is already there replaces its quantity.
func (s *CartService) AddItem(ctx context.Context, p domain.Principal, productID primitive.ObjectID, quantity int) (*CartView, error) {
	product, err := s.checkProduct(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	item := domain.CartItem{ProductID: productID, Quantity: quantity, Price: product.Price}
	if err := s.users.AddCartItem(ctx, p.UserID, item); err != nil {
		return nil, translate(err, "user")
	}
	return s.GetCart(ctx, p)
}

func (s *CartService) UpdateQuantity(ctx context.Context, p domain.Principal, productID primitive.ObjectID, quantity int) (*CartView, error) {
	if _, err := s.checkProduct(ctx, productID, quantity); err != nil {
		return nil, err
	}
	if err := s.users.UpdateCartItemQuantity(ctx, p.UserID, productID, quantity); err != nil {
		return nil, translate(err, "cart item")
	}
	return s.GetCart(ctx, p)
}

func (s *CartService) RemoveItem(ctx context.Context, p domain.Principal, productID primitive.ObjectID) (*CartView, error) {
	if err := s.users.RemoveCartItem(ctx, p.UserID, productID); err != nil {
		return nil, translate(err, "user")
	}
	return s.GetCart(ctx, p)
}

func (s *CartService) ClearCart(ctx context.Context, p domain.Principal) error {
	return translate(s.users.ClearCart(ctx, p.UserID), "user")
}

func (s *CartService) checkProduct(ctx context.Context, productID primitive.ObjectID, quantity int) (*domain.Product, error) {
	if quantity < 1 || quantity > maxCartQuantity {
		return nil, validationf("quantity must be between 1 and %d", maxCartQuantity)
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, translate(err, "product")
	}
	if !product.InStock(quantity) {
		return nil, fmt.Errorf("%w: only %d of %q available", ErrInsufficientStock, product.Stock, product.Name)
	}
	return product, nil
}

// Wishlist returns the wishlisted products that still exist.
func (s *CartService) Wishlist(ctx context.Context, p domain.Principal) ([]*domain.Product, error) {
	user, err := s.users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "user")
	}
	result := make([]*domain.Product, 0, len(user.Wishlist))
	if len(user.Wishlist) == 0 {
		return result, nil
	}

	products, err := s.products.GetProducts(ctx, user.Wishlist)
	if err != nil {
		return nil, err
	}
	for _, id := range user.Wishlist {
		if product, ok := products[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

func (s *CartService) AddToWishlist(ctx context.Context, p domain.Principal, productID primitive.ObjectID) error {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return translate(err, "product")
	}
	return translate(s.users.AddToWishlist(ctx, p.UserID, productID), "user")
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, p domain.Principal, productID primitive.ObjectID) error {
	return translate(s.users.RemoveFromWishlist(ctx, p.UserID, productID), "user")
}
