package repository

import (
	"context"
	"errors"

	"github.com/inkdesk/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStatusChanged     = errors.New("order status changed concurrently")
	ErrItemNotFound      = errors.New("item not found in cart")
)

// ProductRepository covers the products collection. Stock is changed only by
// DecrementStock and IncrementStock.
type ProductRepository interface {
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) error
	// DecrementStock subtracts quantity only if at least quantity units remain.
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	SetRating(ctx context.Context, id primitive.ObjectID, summary domain.RatingSummary) error
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id primitive.ObjectID) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error

	ListSubcategories(ctx context.Context, categoryID *primitive.ObjectID) ([]*domain.Subcategory, error)
	GetSubcategory(ctx context.Context, id primitive.ObjectID) (*domain.Subcategory, error)
	CreateSubcategory(ctx context.Context, s *domain.Subcategory) error
	UpdateSubcategory(ctx context.Context, s *domain.Subcategory) error
	DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error
}

// UserRepository reads users and mutates their embedded cart and wishlist.
type UserRepository interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddCartItem(ctx context.Context, userID primitive.ObjectID, item domain.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) error
	RemoveCartItem(ctx context.Context, userID, productID primitive.ObjectID) error
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
	AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error)
	// UpdateStatus moves the order from one status to another and fails with
	// ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.OrderStatus) (*domain.Order, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r *domain.Review) error
	GetReview(ctx context.Context, id primitive.ObjectID) (*domain.Review, error)
	UpdateReview(ctx context.Context, r *domain.Review) error
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
	ListByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]*domain.Review, int64, error)
	Summarize(ctx context.Context, productID primitive.ObjectID) (domain.RatingSummary, error)
}

type BannerRepository interface {
	ListBanners(ctx context.Context, activeOnly bool) ([]*domain.Banner, error)
	GetBanner(ctx context.Context, id primitive.ObjectID) (*domain.Banner, error)
	CreateBanner(ctx context.Context, b *domain.Banner) error
	UpdateBanner(ctx context.Context, b *domain.Banner) error
	DeleteBanner(ctx context.Context, id primitive.ObjectID) error
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return wrap(op, err)
}
