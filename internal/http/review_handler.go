package http

import (
	"context"
	"net/http"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewService interface {
	ListReviews(ctx context.Context, productID primitive.ObjectID, page, limit int) (domain.Page[*domain.Review], error)
	CreateReview(ctx context.Context, p domain.Principal, productID primitive.ObjectID, in service.ReviewInput) (*domain.Review, error)
	UpdateReview(ctx context.Context, p domain.Principal, reviewID primitive.ObjectID, in service.ReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, p domain.Principal, reviewID primitive.ObjectID) error
}

type ReviewHandler struct {
	reviews ReviewService
	resp    *Responder
	timeout time.Duration
}

func NewReviewHandler(reviews ReviewService, resp *Responder, timeout time.Duration) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, resp: resp, timeout: timeout}
}

type ReviewDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// GET /api/v1/products/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	reviews, err := h.reviews.ListReviews(ctx, productID, page, limit)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondPage(w, "reviews", reviews)
}

// POST /api/v1/products/{id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	productID, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto ReviewDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	review, err := h.reviews.CreateReview(ctx, p, productID, service.ReviewInput(dto))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"review": review})
}

// PUT /api/v1/reviews/{reviewId}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto ReviewDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	review, err := h.reviews.UpdateReview(ctx, p, reviewID, service.ReviewInput(dto))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"review": review})
}

// DELETE /api/v1/reviews/{reviewId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := principal(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	if err := h.reviews.DeleteReview(ctx, p, reviewID); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "review deleted"})
}
