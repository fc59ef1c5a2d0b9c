package repository

import (
	"context"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCategoryRepository struct {
	categories    *mongo.Collection
	subcategories *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) CategoryRepository {
	return &mongoCategoryRepository{
		categories:    db.Collection("categories"),
		subcategories: db.Collection("subcategories"),
	}
}

func (m *mongoCategoryRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	cursor, err := m.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, wrap("query categories", err)
	}
	categories := make([]*domain.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, wrap("decode categories", err)
	}
	return categories, nil
}

func (m *mongoCategoryRepository) GetCategory(ctx context.Context, id primitive.ObjectID) (*domain.Category, error) {
	var c domain.Category
	if err := m.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err, "get category")
	}
	return &c, nil
}

func (m *mongoCategoryRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := m.categories.InsertOne(ctx, c)
	return translate(err, "insert category")
}

func (m *mongoCategoryRepository) UpdateCategory(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":        c.Name,
		"description": c.Description,
		"image":       c.Image,
		"updated_at":  c.UpdatedAt,
	}}
	result, err := m.categories.UpdateOne(ctx, bson.M{"_id": c.ID}, update)
	if err != nil {
		return translate(err, "update category")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes the category together with its subcategories.
func (m *mongoCategoryRepository) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete category", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := m.subcategories.DeleteMany(ctx, bson.M{"category_id": id}); err != nil {
		return wrap("delete subcategories", err)
	}
	return nil
}

func (m *mongoCategoryRepository) ListSubcategories(ctx context.Context, categoryID *primitive.ObjectID) ([]*domain.Subcategory, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}
	cursor, err := m.subcategories.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, wrap("query subcategories", err)
	}
	subs := make([]*domain.Subcategory, 0)
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, wrap("decode subcategories", err)
	}
	return subs, nil
}

func (m *mongoCategoryRepository) GetSubcategory(ctx context.Context, id primitive.ObjectID) (*domain.Subcategory, error) {
	var s domain.Subcategory
	if err := m.subcategories.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, translate(err, "get subcategory")
	}
	return &s, nil
}

func (m *mongoCategoryRepository) CreateSubcategory(ctx context.Context, s *domain.Subcategory) error {
	now := time.Now()
	s.ID = primitive.NewObjectID()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := m.subcategories.InsertOne(ctx, s)
	return translate(err, "insert subcategory")
}

func (m *mongoCategoryRepository) UpdateSubcategory(ctx context.Context, s *domain.Subcategory) error {
	s.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":        s.Name,
		"category_id": s.CategoryID,
		"updated_at":  s.UpdatedAt,
	}}
	result, err := m.subcategories.UpdateOne(ctx, bson.M{"_id": s.ID}, update)
	if err != nil {
		return translate(err, "update subcategory")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoCategoryRepository) DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.subcategories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete subcategory", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
