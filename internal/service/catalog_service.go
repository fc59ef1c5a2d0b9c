package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkdesk/storefront/internal/cache"
	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/logger"
	"github.com/inkdesk/storefront/internal/media"
	"github.com/inkdesk/storefront/internal/repository"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

type ProductInput struct {
	Name        string
	Brand       string
	Description string
	Price       float64
	Discount    float64
	Stock       int
	CategoryID  primitive.ObjectID
	Subcategory string
	Images      []domain.Image
}

type CategoryInput struct {
	Name        string
	Description string
	Image       *domain.Image
}

type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	cache      cache.ProductCache
	media      media.Uploader
	log        zerolog.Logger
	sfg        singleflight.Group // Prevents cache stampede
}

func NewCatalogService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	productCache cache.ProductCache,
	uploader media.Uploader,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		products:   products,
		cache:      productCache,
		media:      uploader,
		log:        log,
	}
}

// --- categories ---

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id primitive.ObjectID) (*domain.Category, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return nil, translate(err, "category")
	}
	return c, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("category name is required")
	}
	c := &domain.Category{Name: name, Description: in.Description, Image: in.Image}
	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return nil, translate(err, "category")
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id primitive.ObjectID, in CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("category name is required")
	}
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return nil, translate(err, "category")
	}
	previous := c.Image
	c.Name, c.Description, c.Image = name, in.Description, in.Image
	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		return nil, translate(err, "category")
	}
	if previous != nil && (c.Image == nil || c.Image.PublicID != previous.PublicID) {
		s.deleteAssets(ctx, previous.PublicID)
	}
	return c, nil
}

// DeleteCategory refuses while products still reference the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return translate(err, "category")
	}
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category %q still has %d products", ErrConflict, c.Name, n)
	}
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return translate(err, "category")
	}
	if c.Image != nil {
		s.deleteAssets(ctx, c.Image.PublicID)
	}
	return nil
}

// --- subcategories ---

func (s *CatalogService) ListSubcategories(ctx context.Context, categoryID *primitive.ObjectID) ([]*domain.Subcategory, error) {
	return s.categories.ListSubcategories(ctx, categoryID)
}

func (s *CatalogService) CreateSubcategory(ctx context.Context, categoryID primitive.ObjectID, name string) (*domain.Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("subcategory name is required")
	}
	if _, err := s.categories.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationf("category %s does not exist", categoryID.Hex())
		}
		return nil, err
	}
	sub := &domain.Subcategory{Name: name, CategoryID: categoryID}
	if err := s.categories.CreateSubcategory(ctx, sub); err != nil {
		return nil, translate(err, "subcategory")
	}
	return sub, nil
}

func (s *CatalogService) UpdateSubcategory(ctx context.Context, id primitive.ObjectID, name string) (*domain.Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("subcategory name is required")
	}
	sub, err := s.categories.GetSubcategory(ctx, id)
	if err != nil {
		return nil, translate(err, "subcategory")
	}
	sub.Name = name
	if err := s.categories.UpdateSubcategory(ctx, sub); err != nil {
		return nil, translate(err, "subcategory")
	}
	return sub, nil
}

func (s *CatalogService) DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error {
	return translate(s.categories.DeleteSubcategory(ctx, id), "subcategory")
}

// --- products ---

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.Page[*domain.Product], error) {
	if filter.Sort == "" {
		filter.Sort = domain.SortNewest
	}
	if !filter.Sort.Valid() {
		return domain.Page[*domain.Product]{}, validationf("unknown sort %q", filter.Sort)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return domain.Page[*domain.Product]{}, validationf("min_price must not exceed max_price")
	}
	filter.Page, filter.Limit = domain.NormalizePage(filter.Page, filter.Limit)

	products, total, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return domain.Page[*domain.Product]{}, err
	}
	return domain.NewPage(products, total, filter.Page, filter.Limit), nil
}

// GetProduct serves from the cache. Concurrent misses for the same product
// share one store read.
func (s *CatalogService) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(id.Hex(), func() (any, error) {
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l := logger.FromContext(ctx, s.log)
			l.Warn().Err(err).Msg("cache get error")
		}

		product, err = s.products.GetProduct(ctx, id)
		if err != nil {
			return nil, translate(err, "product")
		}

		// Filled before returning so a later stock write's invalidation cannot be overtaken.
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.cache.Set(setCtx, product); err != nil {
			l := logger.FromContext(ctx, s.log)
			l.Warn().Err(err).Msg("cache set error")
		}

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := s.validateProduct(ctx, in); err != nil {
		return nil, err
	}
	if in.Stock < 0 {
		return nil, validationf("stock must not be negative")
	}
	p := &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Brand:       in.Brand,
		Description: in.Description,
		Price:       in.Price,
		Discount:    in.Discount,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		Subcategory: in.Subcategory,
		Images:      in.Images,
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, translate(err, "product")
	}
	return p, nil
}

// UpdateProduct replaces the editable fields. Stock is changed through SetStock.
func (s *CatalogService) UpdateProduct(ctx context.Context, id primitive.ObjectID, in ProductInput) (*domain.Product, error) {
	if err := s.validateProduct(ctx, in); err != nil {
		return nil, err
	}
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}
	dropped := removedAssets(p.Images, in.Images)

	p.Name = strings.TrimSpace(in.Name)
	p.Brand = in.Brand
	p.Description = in.Description
	p.Price = in.Price
	p.Discount = in.Discount
	p.CategoryID = in.CategoryID
	p.Subcategory = in.Subcategory
	p.Images = in.Images
	if p.Images == nil {
		p.Images = []domain.Image{}
	}
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, translate(err, "product")
	}
	s.invalidate(ctx, id)
	s.deleteAssets(ctx, dropped...)
	return p, nil
}

// DeleteProduct removes the product and, best effort, its hosted images.
func (s *CatalogService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return translate(err, "product")
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return translate(err, "product")
	}
	s.invalidate(ctx, id)

	ids := make([]string, len(p.Images))
	for i, img := range p.Images {
		ids[i] = img.PublicID
	}
	s.deleteAssets(ctx, ids...)
	return nil
}

func (s *CatalogService) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, validationf("stock must not be negative")
	}
	if err := s.products.SetStock(ctx, id, stock); err != nil {
		return nil, translate(err, "product")
	}
	s.invalidate(ctx, id)

	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}
	return p, nil
}

func (s *CatalogService) validateProduct(ctx context.Context, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationf("product name is required")
	}
	if in.Price < 0 {
		return validationf("price must not be negative")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return validationf("discount must be between 0 and 100")
	}
	if in.CategoryID.IsZero() {
		return validationf("category_id is required")
	}
	if _, err := s.categories.GetCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationf("category %s does not exist", in.CategoryID.Hex())
		}
		return err
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := s.cache.Delete(ctx, id); err != nil {
		l := logger.FromContext(ctx, s.log)
		l.Warn().Err(err).Str("product_id", id.Hex()).Msg("cache invalidate error")
	}
}

func (s *CatalogService) deleteAssets(ctx context.Context, publicIDs ...string) {
	deleteAssets(ctx, s.media, s.log, publicIDs...)
}

// deleteAssets removes hosted images best effort.
func deleteAssets(ctx context.Context, uploader media.Uploader, log zerolog.Logger, publicIDs ...string) {
	if uploader == nil {
		return
	}
	l := logger.FromContext(ctx, log)
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if err := uploader.Delete(ctx, id); err != nil {
			l.Warn().Err(err).Str("public_id", id).Msg("failed to delete hosted image")
		}
	}
}

// removedAssets lists the public ids present in before but not in after.
func removedAssets(before, after []domain.Image) []string {
	keep := make(map[string]struct{}, len(after))
	for _, img := range after {
		keep[img.PublicID] = struct{}{}
	}
	var removed []string
	for _, img := range before {
		if _, ok := keep[img.PublicID]; !ok {
			removed = append(removed, img.PublicID)
		}
	}
	return removed
}
