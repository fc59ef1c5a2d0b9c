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

type mongoBannerRepository struct {
	collection *mongo.Collection
}

func NewBannerRepository(db *mongo.Database) BannerRepository {
	return &mongoBannerRepository{collection: db.Collection("banners")}
}

func (m *mongoBannerRepository) ListBanners(ctx context.Context, activeOnly bool) ([]*domain.Banner, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap("query banners", err)
	}
	banners := make([]*domain.Banner, 0)
	if err := cursor.All(ctx, &banners); err != nil {
		return nil, wrap("decode banners", err)
	}
	return banners, nil
}

func (m *mongoBannerRepository) GetBanner(ctx context.Context, id primitive.ObjectID) (*domain.Banner, error) {
	var b domain.Banner
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, translate(err, "get banner")
	}
	return &b, nil
}

func (m *mongoBannerRepository) CreateBanner(ctx context.Context, b *domain.Banner) error {
	now := time.Now()
	b.ID = primitive.NewObjectID()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err := m.collection.InsertOne(ctx, b)
	return translate(err, "insert banner")
}

func (m *mongoBannerRepository) UpdateBanner(ctx context.Context, b *domain.Banner) error {
	b.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"title":      b.Title,
		"subtitle":   b.Subtitle,
		"image":      b.Image,
		"link":       b.Link,
		"active":     b.Active,
		"position":   b.Position,
		"updated_at": b.UpdatedAt,
	}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": b.ID}, update)
	if err != nil {
		return translate(err, "update banner")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoBannerRepository) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete banner", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
