package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string        `bson:"username" json:"username"` // stored lowercase
	Email      string        `bson:"email" json:"email"`
	FullName   string        `bson:"fullName" json:"fullName"`
	Avatar     string        `bson:"avatar" json:"avatar"`
	CoverImage string        `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Password   string        `bson:"password" json:"-"` // bcrypt hash, never returned in JSON
	// RefreshToken is the single session slot: one live refresh token per
	// user, overwritten on every login and refresh, unset on logout.
	RefreshToken string    `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
