package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkdesk/storefront/internal/service"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Orders  *OrderHandler
	Cart    *CartHandler
	Catalog *CatalogHandler
	Reviews *ReviewHandler
	Banners *BannerHandler
	Uploads *UploadHandler
}

type RouterConfig struct {
	// OrderRateLimit is the number of order placements allowed per
	// caller per OrderRateWindow.
	OrderRateLimit  int
	OrderRateWindow time.Duration
}

func NewRouter(h Handlers, m *Middleware, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(m.AccessLog)
	r.Use(m.Recoverer)
	r.Use(middleware.Compress(5))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		m.resp.Error(w, r, fmt.Errorf("%w: no route for %s %s", service.ErrNotFound, r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path),
			Code:    "method_not_allowed",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", h.Catalog.ListCategories)
		r.Get("/categories/{id}", h.Catalog.GetCategory)
		r.Get("/subcategories", h.Catalog.ListSubcategories)
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{id}", h.Catalog.GetProduct)
		r.Get("/products/{id}/reviews", h.Reviews.ListReviews)
		r.Get("/banners", h.Banners.ListActive)

		r.Group(func(r chi.Router) {
			r.Use(m.Authenticate)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{productId}", h.Cart.UpdateQuantity)
				r.Delete("/items/{productId}", h.Cart.RemoveItem)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.Cart.GetWishlist)
				r.Post("/", h.Cart.AddToWishlist)
				r.Delete("/{productId}", h.Cart.RemoveFromWishlist)
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(m.RateLimit("orders", cfg.OrderRateLimit, cfg.OrderRateWindow)).Post("/create", h.Orders.CreateOrder)
				r.With(m.RateLimit("orders", cfg.OrderRateLimit, cfg.OrderRateWindow)).Post("/buy-now", h.Orders.BuyNow)
				r.Get("/", h.Orders.ListMyOrders)
				r.Get("/{orderId}", h.Orders.GetOrder)
				r.Put("/{orderId}/cancel", h.Orders.CancelOrder)
			})

			r.Post("/products/{id}/reviews", h.Reviews.CreateReview)
			r.Put("/reviews/{reviewId}", h.Reviews.UpdateReview)
			r.Delete("/reviews/{reviewId}", h.Reviews.DeleteReview)

			r.Route("/admin", func(r chi.Router) {
				r.Use(m.RequireAdmin)

				r.Post("/categories", h.Catalog.CreateCategory)
				r.Put("/categories/{id}", h.Catalog.UpdateCategory)
				r.Delete("/categories/{id}", h.Catalog.DeleteCategory)

				r.Post("/subcategories", h.Catalog.CreateSubcategory)
				r.Put("/subcategories/{id}", h.Catalog.UpdateSubcategory)
				r.Delete("/subcategories/{id}", h.Catalog.DeleteSubcategory)

				r.Post("/products", h.Catalog.CreateProduct)
				r.Put("/products/{id}", h.Catalog.UpdateProduct)
				r.Delete("/products/{id}", h.Catalog.DeleteProduct)
				r.Put("/products/{id}/stock", h.Catalog.SetStock)

				r.Get("/banners", h.Banners.ListAll)
				r.Post("/banners", h.Banners.CreateBanner)
				r.Put("/banners/{id}", h.Banners.UpdateBanner)
				r.Delete("/banners/{id}", h.Banners.DeleteBanner)

				r.Get("/orders", h.Orders.ListOrders)
				r.Get("/orders/{orderId}", h.Orders.GetOrder)
				r.Put("/orders/{orderId}/status", h.Orders.UpdateStatus)

				r.Post("/uploads", h.Uploads.Upload)
			})
		})
	})

	return r
}
