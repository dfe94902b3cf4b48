// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account created on first successful sign-in through the
// identity provider. The ID never changes once created.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	AvatarURL   string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	// Subject is the stable identifier assigned by the identity provider
	// (Google OAuth "sub" claim). Unique across users.
	Subject string `bson:"subject" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
