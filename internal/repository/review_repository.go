package repository

import (
	"context"
	"time"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{collection: db.Collection("reviews")}
}

// CreateReview relies on the unique (user_id, product_id) index; a second
// review by the same user fails with ErrDuplicate.
func (m *mongoReviewRepository) CreateReview(ctx context.Context, r *domain.Review) error {
	now := time.Now()
	r.ID = primitive.NewObjectID()
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err := m.collection.InsertOne(ctx, r)
	return translate(err, "insert review")
}

func (m *mongoReviewRepository) GetReview(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	var r domain.Review
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err, "get review")
	}
	return &r, nil
}

func (m *mongoReviewRepository) UpdateReview(ctx context.Context, r *domain.Review) error {
	r.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"rating":     r.Rating,
		"comment":    r.Comment,
		"updated_at": r.UpdatedAt,
	}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": r.ID}, update)
	if err != nil {
		return wrap("update review", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoReviewRepository) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete review", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoReviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID, page, limit int) ([]*domain.Review, int64, error) {
	filter := bson.M{"product_id": productID}
	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap("count reviews", err)
	}

	opts := pageOptions(page, limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrap("query reviews", err)
	}
	reviews := make([]*domain.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, wrap("decode reviews", err)
	}
	return reviews, total, nil
}

// Summarize scans every review of the product and returns the mean rating
// rounded to one decimal together with the review count.
func (m *mongoReviewRepository) Summarize(ctx context.Context, productID primitive.ObjectID) (domain.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$product_id",
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingSummary{}, wrap("aggregate reviews", err)
	}
	var rows []struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.RatingSummary{}, wrap("decode review summary", err)
	}
	if len(rows) == 0 {
		return domain.RatingSummary{}, nil
	}

	avg := decimal.NewFromFloat(rows[0].Average).Round(1).InexactFloat64()
	return domain.RatingSummary{Average: avg, Count: rows[0].Count}, nil
}
