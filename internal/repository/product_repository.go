package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoProductRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, translate(err, "get product")
	}
	return &product, nil
}

func (m *mongoProductRepository) GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Product, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrap("query products", err)
	}
	defer cursor.Close(ctx)

	products := make(map[primitive.ObjectID]*domain.Product, len(ids))
	for cursor.Next(ctx) {
		var p domain.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, wrap("decode product", err)
		}
		products[p.ID] = &p
	}
	if err := cursor.Err(); err != nil {
		return nil, wrap("iterate products", err)
	}
	return products, nil
}

func (m *mongoProductRepository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	filter := productFilter(f)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap("count products", err)
	}

	opts := pageOptions(f.Page, f.Limit).SetSort(productSort(f.Sort))
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrap("query products", err)
	}

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, wrap("decode products", err)
	}
	return products, total, nil
}

func productFilter(f domain.ProductFilter) bson.M {
	filter := bson.M{}
	if f.CategoryID != nil {
		filter["category_id"] = *f.CategoryID
	}
	if f.Subcategory != "" {
		filter["subcategory"] = f.Subcategory
	}
	if f.Brand != "" {
		filter["brand"] = f.Brand
	}
	if f.Search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.InStockOnly {
		filter["stock"] = bson.M{"$gt": 0}
	}
	return filter
}

func productSort(s domain.ProductSort) bson.D {
	switch s {
	case domain.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case domain.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case domain.SortRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "review_count", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func (m *mongoProductRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	now := time.Now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Images == nil {
		p.Images = []domain.Image{}
	}

	_, err := m.collection.InsertOne(ctx, p)
	return translate(err, "insert product")
}

// UpdateProduct replaces the editable fields. Stock, rating and review count
// are owned by their dedicated operations and left untouched.
func (m *mongoProductRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":        p.Name,
			"brand":       p.Brand,
			"description": p.Description,
			"price":       p.Price,
			"discount":    p.Discount,
			"category_id": p.CategoryID,
			"subcategory": p.Subcategory,
			"images":      p.Images,
			"updated_at":  p.UpdatedAt,
		},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return translate(err, "update product")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete product", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, wrap("count products by category", err)
	}
	return n, nil
}

func (m *mongoProductRepository) SetStock(ctx context.Context, id primitive.ObjectID, stock int) error {
	update := bson.M{"$set": bson.M{"stock": stock, "updated_at": time.Now()}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrap("set stock", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	filter := bson.M{
		"_id":   id,
		"stock": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrap("decrement stock", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing product from one without enough units.
		n, err := m.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return wrap("check product", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (m *mongoProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	update := bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrap("increment stock", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) SetRating(ctx context.Context, id primitive.ObjectID, summary domain.RatingSummary) error {
	update := bson.M{"$set": bson.M{
		"rating":       summary.Average,
		"review_count": summary.Count,
	}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrap("set rating", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
