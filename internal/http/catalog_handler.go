package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id primitive.ObjectID) (*domain.Category, error)
	CreateCategory(ctx context.Context, in service.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id primitive.ObjectID, in service.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
	ListSubcategories(ctx context.Context, categoryID *primitive.ObjectID) ([]*domain.Subcategory, error)
	CreateSubcategory(ctx context.Context, categoryID primitive.ObjectID, name string) (*domain.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id primitive.ObjectID, name string) (*domain.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error
	ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.Page[*domain.Product], error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, in service.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*domain.Product, error)
}

type CatalogHandler struct {
	catalog CatalogService
	resp    *Responder
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogService, resp *Responder, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, resp: resp, timeout: timeout}
}

type CategoryDTO struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       *domain.Image `json:"image"`
}

type SubcategoryDTO struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

type ProductDTO struct {
	Name        string         `json:"name"`
	Brand       string         `json:"brand"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Discount    float64        `json:"discount"`
	Stock       int            `json:"stock"`
	CategoryID  string         `json:"category_id"`
	Subcategory string         `json:"subcategory"`
	Images      []domain.Image `json:"images"`
}

type StockDTO struct {
	Stock *int `json:"stock"`
}

func (d ProductDTO) input() (service.ProductInput, error) {
	categoryID, err := primitive.ObjectIDFromHex(d.CategoryID)
	if err != nil {
		return service.ProductInput{}, badRequest("invalid category_id")
	}
	return service.ProductInput{
		Name:        d.Name,
		Brand:       d.Brand,
		Description: d.Description,
		Price:       d.Price,
		Discount:    d.Discount,
		Stock:       d.Stock,
		CategoryID:  categoryID,
		Subcategory: d.Subcategory,
		Images:      d.Images,
	}, nil
}

// --- categories ---

// GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"categories": categories})
}

// GET /api/v1/categories/{id}
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	category, err := h.catalog.GetCategory(ctx, id)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"category": category})
}

// POST /api/v1/admin/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var dto CategoryDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	category, err := h.catalog.CreateCategory(ctx, service.CategoryInput(dto))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"category": category})
}

// PUT /api/v1/admin/categories/{id}
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto CategoryDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	category, err := h.catalog.UpdateCategory(ctx, id, service.CategoryInput(dto))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"category": category})
}

// DELETE /api/v1/admin/categories/{id}
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.catalog.DeleteCategory(ctx, id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "category deleted"})
}

// --- subcategories ---

// GET /api/v1/subcategories?category_id=
func (h *CatalogHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var categoryID *primitive.ObjectID
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.resp.Error(w, r, badRequest("invalid category_id"))
			return
		}
		categoryID = &id
	}

	subcategories, err := h.catalog.ListSubcategories(ctx, categoryID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"subcategories": subcategories})
}

// POST /api/v1/admin/subcategories
func (h *CatalogHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var dto SubcategoryDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	categoryID, err := primitive.ObjectIDFromHex(dto.CategoryID)
	if err != nil {
		h.resp.Error(w, r, badRequest("invalid category_id"))
		return
	}

	subcategory, err := h.catalog.CreateSubcategory(ctx, categoryID, dto.Name)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"subcategory": subcategory})
}

// PUT /api/v1/admin/subcategories/{id}
func (h *CatalogHandler) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto SubcategoryDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	subcategory, err := h.catalog.UpdateSubcategory(ctx, id, dto.Name)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"subcategory": subcategory})
}

// DELETE /api/v1/admin/subcategories/{id}
func (h *CatalogHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.catalog.DeleteSubcategory(ctx, id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "subcategory deleted"})
}

// --- products ---

// GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter, err := productFilter(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondPage(w, "products", products)
}

func productFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	page, limit, err := pageParams(r)
	if err != nil {
		return domain.ProductFilter{}, err
	}
	filter := domain.ProductFilter{
		Subcategory: q.Get("subcategory"),
		Brand:       q.Get("brand"),
		Search:      q.Get("search"),
		Sort:        domain.ProductSort(q.Get("sort")),
		Page:        page,
		Limit:       limit,
	}

	if raw := q.Get("category"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return domain.ProductFilter{}, badRequest("invalid category")
		}
		filter.CategoryID = &id
	}
	if filter.MinPrice, err = floatParam(q.Get("min_price"), "min_price"); err != nil {
		return domain.ProductFilter{}, err
	}
	if filter.MaxPrice, err = floatParam(q.Get("max_price"), "max_price"); err != nil {
		return domain.ProductFilter{}, err
	}
	if raw := q.Get("in_stock"); raw != "" {
		if filter.InStockOnly, err = strconv.ParseBool(raw); err != nil {
			return domain.ProductFilter{}, badRequest("in_stock must be a boolean")
		}
	}
	return filter, nil
}

func floatParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, badRequest(name + " must be a number")
	}
	return &v, nil
}

// GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"product": product})
}

// POST /api/v1/admin/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var dto ProductDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	in, err := dto.input()
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"product": product})
}

// PUT /api/v1/admin/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto ProductDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	in, err := dto.input()
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, id, in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"product": product})
}

// DELETE /api/v1/admin/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"message": "product deleted"})
}

// PUT /api/v1/admin/products/{id}/stock
func (h *CatalogHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := pathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var dto StockDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if dto.Stock == nil {
		h.resp.Error(w, r, badRequest("stock is required"))
		return
	}

	product, err := h.catalog.SetStock(ctx, id, *dto.Stock)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"product": product})
}
