package service

import (
	"context"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/inkdesk/storefront/internal/cache"
	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/media"
	"github.com/inkdesk/storefront/internal/notifier"
	"github.com/inkdesk/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryProducts implements repository.ProductRepository with the same
// conditional stock semantics as the MongoDB implementation.
type MemoryProducts struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*domain.Product
	// DecrementErr forces DecrementStock to fail for a product.
	DecrementErr map[primitive.ObjectID]error
	Increments   int
}

func NewMemoryProducts(products ...*domain.Product) *MemoryProducts {
	m := &MemoryProducts{
		products:     make(map[primitive.ObjectID]*domain.Product),
		DecrementErr: make(map[primitive.ObjectID]error),
	}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.products[p.ID] = p
	}
	return m
}

func (m *MemoryProducts) Stock(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *MemoryProducts) GetProduct(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryProducts) GetProducts(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[primitive.ObjectID]*domain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			result[id] = &cp
		}
	}
	return result, nil
}

func (m *MemoryProducts) ListProducts(_ context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Product
	for _, p := range m.products {
		if f.InStockOnly && p.Stock == 0 {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Price < all[j].Price })
	return all, int64(len(all)), nil
}

func (m *MemoryProducts) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *MemoryProducts) UpdateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stock, rating, count := existing.Stock, existing.Rating, existing.ReviewCount
	cp := *p
	cp.Stock, cp.Rating, cp.ReviewCount = stock, rating, count
	m.products[p.ID] = &cp
	return nil
}

func (m *MemoryProducts) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryProducts) CountByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryProducts) SetStock(_ context.Context, id primitive.ObjectID, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock = stock
	return nil
}

func (m *MemoryProducts) DecrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.DecrementErr[id]; err != nil {
		return err
	}
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (m *MemoryProducts) IncrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += quantity
	m.Increments++
	return nil
}

func (m *MemoryProducts) SetRating(_ context.Context, id primitive.ObjectID, summary domain.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Rating, p.ReviewCount = summary.Average, summary.Count
	return nil
}

// MemoryUsers implements repository.UserRepository.
type MemoryUsers struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*domain.User
	ClearErr error
}

func NewMemoryUsers(users ...*domain.User) *MemoryUsers {
	m := &MemoryUsers{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *MemoryUsers) GetUser(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.ShoppingCart = append([]domain.CartItem(nil), u.ShoppingCart...)
	cp.Wishlist = append([]primitive.ObjectID(nil), u.Wishlist...)
	return &cp, nil
}

func (m *MemoryUsers) AddCartItem(_ context.Context, userID primitive.ObjectID, item domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range u.ShoppingCart {
		if u.ShoppingCart[i].ProductID == item.ProductID {
			u.ShoppingCart[i].Quantity = item.Quantity
			u.ShoppingCart[i].Price = item.Price
			return nil
		}
	}
	u.ShoppingCart = append(u.ShoppingCart, item)
	return nil
}

func (m *MemoryUsers) UpdateCartItemQuantity(_ context.Context, userID, productID primitive.ObjectID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrItemNotFound
	}
	for i := range u.ShoppingCart {
		if u.ShoppingCart[i].ProductID == productID {
			u.ShoppingCart[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *MemoryUsers) RemoveCartItem(_ context.Context, userID, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := u.ShoppingCart[:0]
	for _, it := range u.ShoppingCart {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	u.ShoppingCart = kept
	return nil
}

func (m *MemoryUsers) ClearCart(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.ShoppingCart = []domain.CartItem{}
	return nil
}

func (m *MemoryUsers) AddToWishlist(_ context.Context, userID, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range u.Wishlist {
		if id == productID {
			return nil
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	return nil
}

func (m *MemoryUsers) RemoveFromWishlist(_ context.Context, userID, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := u.Wishlist[:0]
	for _, id := range u.Wishlist {
		if id != productID {
			kept = append(kept, id)
		}
	}
	u.Wishlist = kept
	return nil
}

// MemoryOrders implements repository.OrderRepository.
type MemoryOrders struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*domain.Order
	// DuplicateInserts makes the next n inserts fail with ErrDuplicate.
	DuplicateInserts int
	InsertErr        error
	Attempts         int
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{orders: make(map[primitive.ObjectID]*domain.Order)}
}

func (m *MemoryOrders) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MemoryOrders) Put(o *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	cp := *o
	m.orders[o.ID] = &cp
}

func (m *MemoryOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if m.DuplicateInserts > 0 {
		m.DuplicateInserts--
		return repository.ErrDuplicate
	}
	for _, o := range m.orders {
		if o.OrderNumber == order.OrderNumber {
			return repository.ErrDuplicate
		}
	}
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MemoryOrders) GetOrder(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryOrders) ListOrders(_ context.Context, f domain.OrderFilter) ([]*domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		cp := *o
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, int64(len(result)), nil
}

func (m *MemoryOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if o.Status != from {
		return nil, repository.ErrStatusChanged
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

// MemoryReviews implements repository.ReviewRepository with the unique
// (user, product) constraint.
type MemoryReviews struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]*domain.Review
}

func NewMemoryReviews() *MemoryReviews {
	return &MemoryReviews{reviews: make(map[primitive.ObjectID]*domain.Review)}
}

func (m *MemoryReviews) CreateReview(_ context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.UserID == r.UserID && existing.ProductID == r.ProductID {
			return repository.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *MemoryReviews) GetReview(_ context.Context, id primitive.ObjectID) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryReviews) UpdateReview(_ context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[r.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *MemoryReviews) DeleteReview(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *MemoryReviews) ListByProduct(_ context.Context, productID primitive.ObjectID, _, _ int) ([]*domain.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, int64(len(result)), nil
}

func (m *MemoryReviews) Summarize(_ context.Context, productID primitive.ObjectID) (domain.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, count := 0, 0
	for _, r := range m.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return domain.RatingSummary{}, nil
	}
	avg := math.Round(float64(sum)/float64(count)*10) / 10
	return domain.RatingSummary{Average: avg, Count: count}, nil
}

// MemoryCategories implements repository.CategoryRepository.
type MemoryCategories struct {
	mu            sync.Mutex
	categories    map[primitive.ObjectID]*domain.Category
	subcategories map[primitive.ObjectID]*domain.Subcategory
}

func NewMemoryCategories(categories ...*domain.Category) *MemoryCategories {
	m := &MemoryCategories{
		categories:    make(map[primitive.ObjectID]*domain.Category),
		subcategories: make(map[primitive.ObjectID]*domain.Subcategory),
	}
	for _, c := range categories {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		m.categories[c.ID] = c
	}
	return m
}

func (m *MemoryCategories) ListCategories(_ context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cp := *c
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MemoryCategories) GetCategory(_ context.Context, id primitive.ObjectID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryCategories) CreateCategory(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *MemoryCategories) UpdateCategory(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *MemoryCategories) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.categories, id)
	for sid, s := range m.subcategories {
		if s.CategoryID == id {
			delete(m.subcategories, sid)
		}
	}
	return nil
}

func (m *MemoryCategories) ListSubcategories(_ context.Context, categoryID *primitive.ObjectID) ([]*domain.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Subcategory, 0)
	for _, s := range m.subcategories {
		if categoryID == nil || s.CategoryID == *categoryID {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MemoryCategories) GetSubcategory(_ context.Context, id primitive.ObjectID) (*domain.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subcategories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryCategories) CreateSubcategory(_ context.Context, s *domain.Subcategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subcategories {
		if existing.CategoryID == s.CategoryID && existing.Name == s.Name {
			return repository.ErrDuplicate
		}
	}
	s.ID = primitive.NewObjectID()
	cp := *s
	m.subcategories[s.ID] = &cp
	return nil
}

func (m *MemoryCategories) UpdateSubcategory(_ context.Context, s *domain.Subcategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subcategories[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	m.subcategories[s.ID] = &cp
	return nil
}

func (m *MemoryCategories) DeleteSubcategory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subcategories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.subcategories, id)
	return nil
}

// MemoryBanners implements repository.BannerRepository.
type MemoryBanners struct {
	mu      sync.Mutex
	banners map[primitive.ObjectID]*domain.Banner
}

func NewMemoryBanners() *MemoryBanners {
	return &MemoryBanners{banners: make(map[primitive.ObjectID]*domain.Banner)}
}

func (m *MemoryBanners) ListBanners(_ context.Context, activeOnly bool) ([]*domain.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Banner, 0)
	for _, b := range m.banners {
		if activeOnly && !b.Active {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *MemoryBanners) GetBanner(_ context.Context, id primitive.ObjectID) (*domain.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.banners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryBanners) CreateBanner(_ context.Context, b *domain.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = primitive.NewObjectID()
	cp := *b
	m.banners[b.ID] = &cp
	return nil
}

func (m *MemoryBanners) UpdateBanner(_ context.Context, b *domain.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.banners[b.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *b
	m.banners[b.ID] = &cp
	return nil
}

func (m *MemoryBanners) DeleteBanner(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.banners[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.banners, id)
	return nil
}

// MockCache implements cache.ProductCache.
type MockCache struct {
	mu      sync.Mutex
	items   map[primitive.ObjectID]*domain.Product
	Gets    int
	Deletes []primitive.ObjectID
	GetErr  error
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[primitive.ObjectID]*domain.Product)}
}

func (m *MockCache) Get(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.items[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *p
	return &cp, nil
}

func (m *MockCache) Set(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *MockCache) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	m.Deletes = append(m.Deletes, id)
	return nil
}

func (m *MockCache) Has(id primitive.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok
}

// RecordingDispatcher implements notifier.Dispatcher.
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []notifier.Notification
}

func (d *RecordingDispatcher) Dispatch(_ context.Context, n notifier.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

func (d *RecordingDispatcher) Sent() []notifier.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifier.Notification(nil), d.sent...)
}

// MockUploader implements media.Uploader.
type MockUploader struct {
	mu      sync.Mutex
	Deleted []string
	Err     error
}

func (m *MockUploader) Upload(_ context.Context, filename string, _ io.Reader) (media.Asset, error) {
	return media.Asset{URL: "https://cdn.test/" + filename, PublicID: filename}, m.Err
}

func (m *MockUploader) Delete(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, publicID)
	return m.Err
}
