package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type catalogFixture struct {
	svc        *CatalogService
	categories *MemoryCategories
	products   *MemoryProducts
	cache      *MockCache
	uploader   *MockUploader
	category   *domain.Category
}

func newCatalogFixture(products ...*domain.Product) *catalogFixture {
	category := &domain.Category{ID: primitive.NewObjectID(), Name: "Pens"}
	for _, p := range products {
		p.CategoryID = category.ID
	}
	f := &catalogFixture{
		categories: NewMemoryCategories(category),
		products:   NewMemoryProducts(products...),
		cache:      NewMockCache(),
		uploader:   &MockUploader{},
		category:   category,
	}
	f.svc = NewCatalogService(f.categories, f.products, f.cache, f.uploader, zerolog.Nop())
	return f
}

func TestGetProduct_CachesOnMiss(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	f := newCatalogFixture(pen)
	ctx := context.Background()

	got, err := f.svc.GetProduct(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fountain Pen", got.Name)

	assert.True(t, f.cache.Has(pen.ID))

	_, err = f.svc.GetProduct(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProduct_InvalidationAfterReadIsNotOverwritten(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	f := newCatalogFixture(pen)
	ctx := context.Background()

	got, err := f.svc.GetProduct(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	// An order lands right after the read: stock drops and the entry is dropped.
	require.NoError(t, f.products.DecrementStock(ctx, pen.ID, 3))
	require.NoError(t, f.cache.Delete(ctx, pen.ID))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, f.cache.Has(pen.ID))

	got, err = f.svc.GetProduct(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
}

func TestGetProduct_CacheErrorFallsBackToStore(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	f := newCatalogFixture(pen)
	f.cache.GetErr = errors.New("redis down")

	got, err := f.svc.GetProduct(context.Background(), pen.ID)
	require.NoError(t, err)
	assert.Equal(t, pen.ID, got.ID)
}

func TestGetProduct_ConcurrentCallers(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	f := newCatalogFixture(pen)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.svc.GetProduct(context.Background(), pen.ID)
			assert.NoError(t, err)
			assert.Equal(t, pen.ID, got.ID)
		}()
	}
	wg.Wait()
}

func TestListProducts_Validation(t *testing.T) {
	f := newCatalogFixture(product("Fountain Pen", 250, 10), product("Gel Pen", 20, 0))
	ctx := context.Background()

	_, err := f.svc.ListProducts(ctx, domain.ProductFilter{Sort: "cheapest"})
	assert.ErrorIs(t, err, ErrValidation)

	lo, hi := 100.0, 10.0
	_, err = f.svc.ListProducts(ctx, domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	assert.ErrorIs(t, err, ErrValidation)

	page, err := f.svc.ListProducts(ctx, domain.ProductFilter{InStockOnly: true, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, domain.MaxPageLimit, page.Limit)
}

func TestCreateProduct(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, ProductInput{Name: " Desk Lamp ", Price: 1500, Stock: 4, CategoryID: f.category.ID})
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.False(t, p.ID.IsZero())

	cases := []ProductInput{
		{Name: "", Price: 1, CategoryID: f.category.ID},
		{Name: "x", Price: -1, CategoryID: f.category.ID},
		{Name: "x", Price: 1, Discount: 120, CategoryID: f.category.ID},
		{Name: "x", Price: 1, Stock: -1, CategoryID: f.category.ID},
		{Name: "x", Price: 1},
		{Name: "x", Price: 1, CategoryID: primitive.NewObjectID()},
	}
	for _, in := range cases {
		_, err := f.svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestUpdateProduct_InvalidatesCacheAndDropsImages(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	pen.Images = []domain.Image{{URL: "https://cdn.test/a", PublicID: "a"}, {URL: "https://cdn.test/b", PublicID: "b"}}
	f := newCatalogFixture(pen)
	ctx := context.Background()

	updated, err := f.svc.UpdateProduct(ctx, pen.ID, ProductInput{
		Name:       "Fountain Pen Pro",
		Price:      300,
		Stock:      999,
		CategoryID: f.category.ID,
		Images:     []domain.Image{{URL: "https://cdn.test/b", PublicID: "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Fountain Pen Pro", updated.Name)
	assert.Equal(t, 10, f.products.Stock(pen.ID))
	assert.Contains(t, f.cache.Deletes, pen.ID)
	assert.Equal(t, []string{"a"}, f.uploader.Deleted)
}

func TestDeleteProduct_RemovesImagesBestEffort(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	pen.Images = []domain.Image{{URL: "https://cdn.test/a", PublicID: "a"}}
	f := newCatalogFixture(pen)
	f.uploader.Err = errors.New("media host down")

	require.NoError(t, f.svc.DeleteProduct(context.Background(), pen.ID))
	assert.Equal(t, []string{"a"}, f.uploader.Deleted)
	assert.Contains(t, f.cache.Deletes, pen.ID)

	assert.ErrorIs(t, f.svc.DeleteProduct(context.Background(), pen.ID), ErrNotFound)
}

func TestSetStock(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	f := newCatalogFixture(pen)
	ctx := context.Background()

	p, err := f.svc.SetStock(ctx, pen.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Stock)
	assert.Contains(t, f.cache.Deletes, pen.ID)

	_, err = f.svc.SetStock(ctx, pen.ID, -1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.SetStock(ctx, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategories(t *testing.T) {
	pen := product("Fountain Pen", 250, 10)
	f := newCatalogFixture(pen)
	ctx := context.Background()

	_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Pens"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.CreateCategory(ctx, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	paper, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Paper", Image: &domain.Image{URL: "u", PublicID: "paper"}})
	require.NoError(t, err)

	updated, err := f.svc.UpdateCategory(ctx, paper.ID, CategoryInput{Name: "Paper & Notebooks"})
	require.NoError(t, err)
	assert.Equal(t, "Paper & Notebooks", updated.Name)
	assert.Equal(t, []string{"paper"}, f.uploader.Deleted)

	// Still referenced by the pen.
	err = f.svc.DeleteCategory(ctx, f.category.ID)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, f.svc.DeleteCategory(ctx, paper.ID))
	_, err = f.svc.GetCategory(ctx, paper.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubcategories(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	sub, err := f.svc.CreateSubcategory(ctx, f.category.ID, "Fountain")
	require.NoError(t, err)

	_, err = f.svc.CreateSubcategory(ctx, f.category.ID, "Fountain")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.CreateSubcategory(ctx, primitive.NewObjectID(), "Gel")
	assert.ErrorIs(t, err, ErrValidation)

	renamed, err := f.svc.UpdateSubcategory(ctx, sub.ID, "Fountain & Dip")
	require.NoError(t, err)
	assert.Equal(t, "Fountain & Dip", renamed.Name)

	subs, err := f.svc.ListSubcategories(ctx, &f.category.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, f.svc.DeleteSubcategory(ctx, sub.ID))
	assert.ErrorIs(t, f.svc.DeleteSubcategory(ctx, sub.ID), ErrNotFound)
}
