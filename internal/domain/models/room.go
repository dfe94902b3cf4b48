// internal/domain/models/room.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is a named collaborative workspace owning files, chat, and membership.
//
// NOTE:
//   - OwnerID never changes after creation; exactly one owner per room.
//   - Membership is not embedded; use the room_memberships collection.
type Room struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	RoomType    string             `bson:"room_type" json:"room_type"` // "collab" | "mentor"
	IsPublic    bool               `bson:"is_public" json:"is_public"`

	// MaxUsers caps how many memberships a public room accepts on self-join.
	// Zero means unlimited. The cap is best-effort: the count check and the
	// membership insert are separate document operations.
	MaxUsers int `bson:"max_users,omitempty" json:"max_users,omitempty"`

	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	LastAccessed time.Time `bson:"last_accessed" json:"last_accessed"`
}
