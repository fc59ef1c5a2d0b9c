package http

import (
	"context"
	"net/http"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartService interface {
	GetCart(ctx context.Context, p domain.Principal) (*service.CartView, error)
	AddItem(ctx context.Context, p domain.Principal, productID primitive.ObjectID, quantity int) (*service.CartView, error)
	UpdateQuantity(ctx context.Context, p domain.Principal, productID primitive.ObjectID, quantity int) (*service.CartView, error)
	RemoveItem(ctx context.Context, p domain.Principal, productID primitive.ObjectID) (*service.CartView, error)
	ClearCart(ctx context.Context, p domain.Principal) error
	Wishlist(ctx context.Context, p domain.Principal) ([]*domain.Product, error)
	AddToWishlist(ctx context.Context, p domain.Principal, productID primitive.ObjectID) error
	RemoveFromWishlist(ctx context.Context, p domain.Principal, productID primitive.ObjectID) error
}

type CartHandler struct {
	cart    CartService
	resp    *Responder
	timeout time.Duration
}

func NewCartHandler(cart CartService, resp *Responder, timeout time.Duration) *CartHandler {
	return &CartHandler{cart: cart, resp: resp, timeout: timeout}
}

type AddItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityDTO struct {
	Quantity int `json:"quantity"`
}

type WishlistDTO struct {
	ProductID string `json:"product_id"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	cart, err := h.cart.GetCart(ctx, p)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"cart": cart})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto AddItemDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	productID, err := primitive.ObjectIDFromHex(dto.ProductID)
	if err != nil {
		h.resp.Error(w, r, badRequest("invalid product_id"))
		return
	}
	if dto.Quantity == 0 {
		dto.Quantity = 1
	}

	cart, err := h.cart.AddItem(ctx, p, productID, dto.Quantity)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"cart": cart})
}

// PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto UpdateQuantityDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	cart, err := h.cart.UpdateQuantity(ctx, p, productID, dto.Quantity)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"cart": cart})
}

// DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	cart, err := h.cart.RemoveItem(ctx, p, productID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"cart": cart})
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.cart.ClearCart(ctx, p); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "cart cleared"})
}

// GET /api/v1/wishlist
func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	products, err := h.cart.Wishlist(ctx, p)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"wishlist": products})
}

// POST /api/v1/wishlist
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto WishlistDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	productID, err := primitive.ObjectIDFromHex(dto.ProductID)
	if err != nil {
		h.resp.Error(w, r, badRequest("invalid product_id"))
		return
	}

	if err := h.cart.AddToWishlist(ctx, p, productID); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "added to wishlist"})
}

// DELETE /api/v1/wishlist/{productId}
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	if err := h.cart.RemoveFromWishlist(ctx, p, productID); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "removed from wishlist"})
}
