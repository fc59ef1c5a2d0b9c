package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is owned by the auth service. This service only reads the profile
// fields and writes the embedded cart and wishlist.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Email        string               `bson:"email" json:"email"`
	Role         Role                 `bson:"role" json:"role"`
	ShoppingCart []CartItem           `bson:"shopping_cart" json:"shopping_cart"`
	Wishlist     []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	AddedAt   time.Time          `bson:"added_at" json:"added_at"`
}

// Principal is the authenticated caller, resolved from the bearer token.
type Principal struct {
	UserID primitive.ObjectID
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
