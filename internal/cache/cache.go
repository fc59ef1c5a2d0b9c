package cache

import (
	"context"
	"errors"

	"github.com/inkdesk/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrCacheMiss = errors.New("cache miss")

// ProductCache holds product documents for the public catalog read path.
// Prices used for orders are never read from it.
type ProductCache interface {
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
