package http

import (
	"context"
	"io"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/media"
	"github.com/inkdesk/storefront/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- OrderService ---

type OrderServiceMock struct {
	result *service.OrderResult
	order  *domain.Order
	page   domain.Page[*domain.Order]
	err    error

	gotCreate    service.CreateOrderRequest
	gotBuyNow    service.BuyNowRequest
	gotPrincipal domain.Principal
	gotFilter    domain.OrderFilter
	gotStatus    domain.OrderStatus
}

func (m *OrderServiceMock) CreateOrder(ctx context.Context, p domain.Principal, req service.CreateOrderRequest) (*service.OrderResult, error) {
	m.gotPrincipal, m.gotCreate = p, req
	return m.result, m.err
}

func (m *OrderServiceMock) BuyNow(ctx context.Context, p domain.Principal, req service.BuyNowRequest) (*service.OrderResult, error) {
	m.gotPrincipal, m.gotBuyNow = p, req
	return m.result, m.err
}

func (m *OrderServiceMock) CancelOrder(ctx context.Context, p domain.Principal, orderID primitive.ObjectID) (*domain.Order, error) {
	m.gotPrincipal = p
	return m.order, m.err
}

func (m *OrderServiceMock) ListMyOrders(ctx context.Context, p domain.Principal, page, limit int) (domain.Page[*domain.Order], error) {
	m.gotPrincipal = p
	m.gotFilter = domain.OrderFilter{UserID: &p.UserID, Page: page, Limit: limit}
	return m.page, m.err
}

func (m *OrderServiceMock) GetOrder(ctx context.Context, p domain.Principal, orderID primitive.ObjectID) (*domain.Order, error) {
	m.gotPrincipal = p
	return m.order, m.err
}

func (m *OrderServiceMock) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.Page[*domain.Order], error) {
	m.gotFilter = filter
	return m.page, m.err
}

func (m *OrderServiceMock) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, to domain.OrderStatus) (*domain.Order, error) {
	m.gotStatus = to
	return m.order, m.err
}

// --- CartService ---

type CartServiceMock struct {
	view     *service.CartView
	wishlist []*domain.Product
	err      error

	gotProduct  primitive.ObjectID
	gotQuantity int
}

func (m *CartServiceMock) GetCart(ctx context.Context, p domain.Principal) (*service.CartView, error) {
	return m.view, m.err
}

func (m *CartServiceMock) AddItem(ctx context.Context, p domain.Principal, productID primitive.ObjectID, quantity int) (*service.CartView, error) {
	m.gotProduct, m.gotQuantity = productID, quantity
	return m.view, m.err
}

func (m *CartServiceMock) UpdateQuantity(ctx context.Context, p domain.Principal, productID primitive.ObjectID, quantity int) (*service.CartView, error) {
	m.gotProduct, m.gotQuantity = productID, quantity
	return m.view, m.err
}

func (m *CartServiceMock) RemoveItem(ctx context.Context, p domain.Principal, productID primitive.ObjectID) (*service.CartView, error) {
	m.gotProduct = productID
	return m.view, m.err
}

func (m *CartServiceMock) ClearCart(ctx context.Context, p domain.Principal) error {
	return m.err
}

func (m *CartServiceMock) Wishlist(ctx context.Context, p domain.Principal) ([]*domain.Product, error) {
	return m.wishlist, m.err
}

func (m *CartServiceMock) AddToWishlist(ctx context.Context, p domain.Principal, productID primitive.ObjectID) error {
	m.gotProduct = productID
	return m.err
}

func (m *CartServiceMock) RemoveFromWishlist(ctx context.Context, p domain.Principal, productID primitive.ObjectID) error {
	m.gotProduct = productID
	return m.err
}

// --- CatalogService ---

type CatalogServiceMock struct {
	product  *domain.Product
	products domain.Page[*domain.Product]
	category *domain.Category
	err      error

	gotFilter domain.ProductFilter
	gotInput  service.ProductInput
	gotStock  int
}

func (m *CatalogServiceMock) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return []*domain.Category{m.category}, m.err
}

func (m *CatalogServiceMock) GetCategory(ctx context.Context, id primitive.ObjectID) (*domain.Category, error) {
	return m.category, m.err
}

func (m *CatalogServiceMock) CreateCategory(ctx context.Context, in service.CategoryInput) (*domain.Category, error) {
	return m.category, m.err
}

func (m *CatalogServiceMock) UpdateCategory(ctx context.Context, id primitive.ObjectID, in service.CategoryInput) (*domain.Category, error) {
	return m.category, m.err
}

func (m *CatalogServiceMock) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	return m.err
}

func (m *CatalogServiceMock) ListSubcategories(ctx context.Context, categoryID *primitive.ObjectID) ([]*domain.Subcategory, error) {
	return []*domain.Subcategory{}, m.err
}

func (m *CatalogServiceMock) CreateSubcategory(ctx context.Context, categoryID primitive.ObjectID, name string) (*domain.Subcategory, error) {
	return &domain.Subcategory{Name: name, CategoryID: categoryID}, m.err
}

func (m *CatalogServiceMock) UpdateSubcategory(ctx context.Context, id primitive.ObjectID, name string) (*domain.Subcategory, error) {
	return &domain.Subcategory{ID: id, Name: name}, m.err
}

func (m *CatalogServiceMock) DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error {
	return m.err
}

func (m *CatalogServiceMock) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.Page[*domain.Product], error) {
	m.gotFilter = filter
	return m.products, m.err
}

func (m *CatalogServiceMock) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	return m.product, m.err
}

func (m *CatalogServiceMock) CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error) {
	m.gotInput = in
	return m.product, m.err
}

func (m *CatalogServiceMock) UpdateProduct(ctx context.Context, id primitive.ObjectID, in service.ProductInput) (*domain.Product, error) {
	m.gotInput = in
	return m.product, m.err
}

func (m *CatalogServiceMock) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return m.err
}

func (m *CatalogServiceMock) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*domain.Product, error) {
	m.gotStock = stock
	return m.product, m.err
}

// --- ReviewService ---

type ReviewServiceMock struct {
	review *domain.Review
	page   domain.Page[*domain.Review]
	err    error

	gotInput service.ReviewInput
}

func (m *ReviewServiceMock) ListReviews(ctx context.Context, productID primitive.ObjectID, page, limit int) (domain.Page[*domain.Review], error) {
	return m.page, m.err
}

func (m *ReviewServiceMock) CreateReview(ctx context.Context, p domain.Principal, productID primitive.ObjectID, in service.ReviewInput) (*domain.Review, error) {
	m.gotInput = in
	return m.review, m.err
}

func (m *ReviewServiceMock) UpdateReview(ctx context.Context, p domain.Principal, reviewID primitive.ObjectID, in service.ReviewInput) (*domain.Review, error) {
	m.gotInput = in
	return m.review, m.err
}

func (m *ReviewServiceMock) DeleteReview(ctx context.Context, p domain.Principal, reviewID primitive.ObjectID) error {
	return m.err
}

// --- BannerService ---

type BannerServiceMock struct {
	banners       []*domain.Banner
	banner        *domain.Banner
	err           error
	gotActiveOnly bool
}

func (m *BannerServiceMock) ListBanners(ctx context.Context, activeOnly bool) ([]*domain.Banner, error) {
	m.gotActiveOnly = activeOnly
	return m.banners, m.err
}

func (m *BannerServiceMock) CreateBanner(ctx context.Context, in service.BannerInput) (*domain.Banner, error) {
	return m.banner, m.err
}

func (m *BannerServiceMock) UpdateBanner(ctx context.Context, id primitive.ObjectID, in service.BannerInput) (*domain.Banner, error) {
	return m.banner, m.err
}

func (m *BannerServiceMock) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	return m.err
}

// --- media.Uploader ---

type UploaderMock struct {
	asset    media.Asset
	err      error
	gotName  string
	gotBytes []byte
}

func (m *UploaderMock) Upload(ctx context.Context, filename string, r io.Reader) (media.Asset, error) {
	m.gotName = filename
	b, err := io.ReadAll(r)
	if err != nil {
		return media.Asset{}, err
	}
	m.gotBytes = b
	return m.asset, m.err
}

func (m *UploaderMock) Delete(ctx context.Context, publicID string) error {
	return m.err
}
