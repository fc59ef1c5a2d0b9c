package http

import (
	"context"
	"net/http"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BannerService interface {
	ListBanners(ctx context.Context, activeOnly bool) ([]*domain.Banner, error)
	CreateBanner(ctx context.Context, in service.BannerInput) (*domain.Banner, error)
	UpdateBanner(ctx context.Context, id primitive.ObjectID, in service.BannerInput) (*domain.Banner, error)
	DeleteBanner(ctx context.Context, id primitive.ObjectID) error
}

type BannerHandler struct {
	banners BannerService
	resp    *Responder
	timeout time.Duration
}

func NewBannerHandler(banners BannerService, resp *Responder, timeout time.Duration) *BannerHandler {
	return &BannerHandler{banners: banners, resp: resp, timeout: timeout}
}

type BannerDTO struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	Image    domain.Image `json:"image"`
	Link     string       `json:"link"`
	Active   bool         `json:"active"`
	Position int          `json:"position"`
}

// GET /api/v1/banners
func (h *BannerHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// GET /api/v1/admin/banners
func (h *BannerHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *BannerHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	banners, err := h.banners.ListBanners(ctx, activeOnly)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if banners == nil {
		banners = []*domain.Banner{}
	}
	respondOK(w, http.StatusOK, map[string]any{"banners": banners})
}

// POST /api/v1/admin/banners
func (h *BannerHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var dto BannerDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	banner, err := h.banners.CreateBanner(ctx, service.BannerInput(dto))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"banner": banner})
}

// PUT /api/v1/admin/banners/{id}
func (h *BannerHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto BannerDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	banner, err := h.banners.UpdateBanner(ctx, id, service.BannerInput(dto))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"banner": banner})
}

// DELETE /api/v1/admin/banners/{id}
func (h *BannerHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.banners.DeleteBanner(ctx, id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "banner deleted"})
}
