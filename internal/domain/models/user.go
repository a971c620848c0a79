// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is the coarse place a user or listing belongs to.
type Location struct {
	City    string `bson:"city" json:"city"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// User is a registered account. Users are never hard-deleted.
//
// NOTE:
//   - Favorites are not stored on the user; they live on Listing.Favorites.
//     Use the listings collection to discover a user's favorites.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username     string             `bson:"username" json:"username"`
	UsernameCI   string             `bson:"username_ci" json:"-"` // folded for uniqueness
	Email        string             `bson:"email" json:"email"`   // lower-cased
	PasswordHash string             `bson:"password_hash" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Location     Location           `bson:"location" json:"location"`
	Avatar       string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsVerified   bool               `bson:"is_verified" json:"isVerified"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the subset of a User that other users may see, for example
// as the populated seller of a listing or the sender of a message.
type PublicUser struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Username  string             `bson:"username" json:"username"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Location  Location           `bson:"location" json:"location"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Public projects u down to its PublicUser view.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Location:  u.Location,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
