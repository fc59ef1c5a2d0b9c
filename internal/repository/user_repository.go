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

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (m *mongoUserRepository) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

// AddCartItem sets the quantity and price of an existing line for the
// product, or appends a new line when the cart does not contain it yet.
func (m *mongoUserRepository) AddCartItem(ctx context.Context, userID primitive.ObjectID, item domain.CartItem) error {
	item.AddedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"shopping_cart.$[elem].quantity": item.Quantity,
			"shopping_cart.$[elem].price":    item.Price,
			"shopping_cart.$[elem].added_at": item.AddedAt,
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []any{
			bson.M{"elem.product_id": item.ProductID},
		},
	})
	filter := bson.M{"_id": userID, "shopping_cart.product_id": item.ProductID}

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return wrap("update existing cart item", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	filter = bson.M{"_id": userID, "shopping_cart.product_id": bson.M{"$ne": item.ProductID}}
	result, err = m.collection.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"shopping_cart": item}})
	if err != nil {
		return wrap("add cart item", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Neither matched: the user is gone, or a concurrent add pushed the same
	// product between the two updates.
	if _, err := m.GetUser(ctx, userID); err != nil {
		return err
	}
	result, err = m.collection.UpdateOne(ctx,
		bson.M{"_id": userID, "shopping_cart.product_id": item.ProductID}, update, arrayFilters)
	if err != nil {
		return wrap("update existing cart item", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoUserRepository) UpdateCartItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) error {
	filter := bson.M{
		"_id":                      userID,
		"shopping_cart.product_id": productID,
	}
	update := bson.M{
		"$set": bson.M{
			"shopping_cart.$[elem].quantity": quantity,
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []any{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return wrap("update item quantity", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoUserRepository) RemoveCartItem(ctx context.Context, userID, productID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{
			"shopping_cart": bson.M{"product_id": productID},
		},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return wrap("remove item", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoUserRepository) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"shopping_cart": []domain.CartItem{}}}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return wrap("clear cart", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoUserRepository) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	update := bson.M{"$addToSet": bson.M{"wishlist": productID}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return wrap("add to wishlist", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoUserRepository) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{"wishlist": productID}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return wrap("remove from wishlist", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
